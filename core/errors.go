package core

import "errors"

// Sentinel errors for out-of-range queries and degenerate inputs. Callers
// are expected to branch on these with errors.Is: out-of-horizon and
// inactive-chain results are normal control flow, while element-set and
// degeneracy errors exclude a single satellite without aborting the case.
var (
	// ErrOutOfHorizon marks a state query outside the case validity window.
	ErrOutOfHorizon = errors.New("epoch outside case horizon")

	// ErrInvalidElementSet marks a degenerate orbital element set
	// (non-elliptical eccentricity, non-positive semi-major axis, or a
	// malformed TLE).
	ErrInvalidElementSet = errors.New("invalid orbital element set")

	// ErrNumericDegeneracy marks a propagation that produced an undefined
	// trajectory (NaN/Inf output or an unphysical position magnitude).
	ErrNumericDegeneracy = errors.New("propagation numerically degenerate")

	// ErrChainInactive marks a latency query at an instant where not every
	// hop of the chain is simultaneously visible.
	ErrChainInactive = errors.New("relay chain not active at epoch")

	// ErrUnknownEntity marks a query naming an ID absent from the case.
	ErrUnknownEntity = errors.New("unknown entity")
)
