package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/missionbench/core"
	"github.com/signalsfoundry/missionbench/internal/caseio"
	"github.com/signalsfoundry/missionbench/kb"
	"github.com/signalsfoundry/missionbench/model"
)

var (
	windowsCaseFile  string
	windowsFrom      string
	windowsTo        string
	windowsStart     string
	windowsEnd       string
	windowsStep      time.Duration
	windowsPrecision time.Duration
)

// windowsCmd queries access windows through the same engine call the
// verifier uses, so a planner inspecting a pass sees exactly what the
// verification run will hold it to.
var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "Compute access windows between two case entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := caseio.LoadCaseFile(windowsCaseFile)
		if err != nil {
			return err
		}

		h := c.Horizon
		if windowsStart != "" {
			if h.Start, err = time.Parse(time.RFC3339, windowsStart); err != nil {
				return fmt.Errorf("parse --start: %w", err)
			}
		}
		if windowsEnd != "" {
			if h.End, err = time.Parse(time.RFC3339, windowsEnd); err != nil {
				return fmt.Errorf("parse --end: %w", err)
			}
		}

		ckb, err := kb.FromCase(c)
		if err != nil {
			return err
		}
		eng := core.NewEngine(ckb, c.Horizon, core.Options{
			SampleStep:      windowsStep,
			Precision:       windowsPrecision,
			MinElevationDeg: c.MinElevationDeg,
			MaxISLRangeKm:   c.MaxISLRangeKm,
		})

		windows, err := eng.AccessWindows(cmd.Context(), windowsFrom, windowsTo, h,
			pairConstraints(c, windowsFrom, windowsTo))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(windows)
	},
}

func init() {
	windowsCmd.Flags().StringVar(&windowsCaseFile, "case", "", "case YAML file")
	windowsCmd.Flags().StringVar(&windowsFrom, "from", "", "first entity ID")
	windowsCmd.Flags().StringVar(&windowsTo, "to", "", "second entity ID")
	windowsCmd.Flags().StringVar(&windowsStart, "start", "", "query start, RFC 3339 (default case horizon)")
	windowsCmd.Flags().StringVar(&windowsEnd, "end", "", "query end, RFC 3339 (default case horizon)")
	windowsCmd.Flags().DurationVar(&windowsStep, "step", 0, "coarse sampling step (default 30s)")
	windowsCmd.Flags().DurationVar(&windowsPrecision, "precision", 0, "edge refinement precision (default 1s)")
	_ = windowsCmd.MarkFlagRequired("case")
	_ = windowsCmd.MarkFlagRequired("from")
	_ = windowsCmd.MarkFlagRequired("to")
}

// pairConstraints mirrors the hop rules of the verification run: any pair
// touching the ground is gated by the case's minimum elevation, while a
// satellite pair is gated by Earth occlusion and the optional inter-
// satellite range cap.
func pairConstraints(c *model.Case, a, b string) []model.Constraint {
	if c.GroundPointByID(a) != nil || c.GroundPointByID(b) != nil {
		return []model.Constraint{model.MinElevation(c.MinElevationDeg)}
	}
	cons := []model.Constraint{model.EarthOcclusion()}
	if c.MaxISLRangeKm > 0 {
		cons = append(cons, model.MaxRange(c.MaxISLRangeKm))
	}
	return cons
}
