package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyclonewatch/stormtrack/internal/jobs"
)

// NewRegenerateZonesCommand recomputes one storm's watch/warning zones
// immediately.
func NewRegenerateZonesCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate-zones <storm-code>",
		Short: "Recompute one storm's watch/warning zones",
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

			res := jobs.NewRegenerateZonesJob(e.deps).Run(cmd.Context(), storm.ID)

			return resultToError(res)
		},
	}
}
