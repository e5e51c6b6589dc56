package kb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/missionbench/model"
)

// CaseKB is the case-scoped registry of satellites and ground points. One
// CaseKB is built per verification run from static case input; there is no
// process-wide catalogue, so independent cases can run concurrently without
// isolation bugs.
//
// Entities are read-only after loading. The mutex only guards the load
// phase; list accessors return ID-sorted snapshots so every consumer sees
// the same deterministic ordering.
type CaseKB struct {
	mu sync.RWMutex

	satellites   map[string]*model.Satellite
	groundPoints map[string]*model.GroundPoint
}

// NewCaseKB constructs an empty registry.
func NewCaseKB() *CaseKB {
	return &CaseKB{
		satellites:   make(map[string]*model.Satellite),
		groundPoints: make(map[string]*model.GroundPoint),
	}
}

// FromCase builds a populated registry from a loaded case definition.
func FromCase(c *model.Case) (*CaseKB, error) {
	kb := NewCaseKB()
	for i := range c.Satellites {
		if err := kb.AddSatellite(&c.Satellites[i]); err != nil {
			return nil, err
		}
	}
	for i := range c.GroundPoints {
		if err := kb.AddGroundPoint(&c.GroundPoints[i]); err != nil {
			return nil, err
		}
	}
	return kb, nil
}

// AddSatellite adds a satellite. It returns an error if the ID already
// exists, in either namespace.
func (kb *CaseKB) AddSatellite(s *model.Satellite) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	if s.ID == "" {
		return fmt.Errorf("satellite with empty ID")
	}
	if _, exists := kb.satellites[s.ID]; exists {
		return fmt.Errorf("satellite with ID %q already exists", s.ID)
	}
	if _, exists := kb.groundPoints[s.ID]; exists {
		return fmt.Errorf("ID %q already used by a ground point", s.ID)
	}
	kb.satellites[s.ID] = s
	return nil
}

// AddGroundPoint adds a station or target. It returns an error if the ID
// already exists, in either namespace.
func (kb *CaseKB) AddGroundPoint(g *model.GroundPoint) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	if g.ID == "" {
		return fmt.Errorf("ground point with empty ID")
	}
	if _, exists := kb.groundPoints[g.ID]; exists {
		return fmt.Errorf("ground point with ID %q already exists", g.ID)
	}
	if _, exists := kb.satellites[g.ID]; exists {
		return fmt.Errorf("ID %q already used by a satellite", g.ID)
	}
	kb.groundPoints[g.ID] = g
	return nil
}

// Satellite returns the satellite with the given ID, or nil.
func (kb *CaseKB) Satellite(id string) *model.Satellite {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.satellites[id]
}

// GroundPoint returns the ground point with the given ID, or nil.
func (kb *CaseKB) GroundPoint(id string) *model.GroundPoint {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.groundPoints[id]
}

// Has reports whether the ID names any known entity.
func (kb *CaseKB) Has(id string) bool {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	if _, ok := kb.satellites[id]; ok {
		return true
	}
	_, ok := kb.groundPoints[id]
	return ok
}

// Satellites returns all satellites sorted by ID.
func (kb *CaseKB) Satellites() []*model.Satellite {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	out := make([]*model.Satellite, 0, len(kb.satellites))
	for _, s := range kb.satellites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GroundPoints returns all ground points sorted by ID.
func (kb *CaseKB) GroundPoints() []*model.GroundPoint {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	out := make([]*model.GroundPoint, 0, len(kb.groundPoints))
	for _, g := range kb.groundPoints {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stations returns ground points of station kind, sorted by ID.
func (kb *CaseKB) Stations() []*model.GroundPoint {
	all := kb.GroundPoints()
	out := all[:0:0]
	for _, g := range all {
		if g.Kind == model.GroundKindStation {
			out = append(out, g)
		}
	}
	return out
}
