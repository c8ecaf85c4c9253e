package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyclonewatch/stormtrack/internal/jobs"
	"github.com/cyclonewatch/stormtrack/pkg/schedule"
)

// NewIngestNowCommand ingests one storm's observations and wind radii
// immediately, bypassing the scheduler's period.
func NewIngestNowCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest-now <storm-code>",
		Short: "Ingest one storm's observations and radii immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]

			e, cleanup, err := newEnv(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			storm, err := e.deps.Store.GetStormByCode(cmd.Context(), code)
			if err != nil {
				return fmt.Errorf("look up storm %s: %w", code, err)
			}

			if res := jobs.NewIngestObservationsJob(e.deps).Run(cmd.Context(), storm.ID); res.Outcome != schedule.OutcomeOK {
				return resultToError(res)
			}

			res := jobs.NewIngestRadiiJob(e.deps).Run(cmd.Context(), storm.ID)

			return resultToError(res)
		},
	}

	return cmd
}
