package commands

import (
	"github.com/spf13/cobra"

	"github.com/cyclonewatch/stormtrack/internal/jobs"
)

// NewDiscoverNowCommand runs one discovery cycle immediately.
func NewDiscoverNowCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "discover-now",
		Short: "Run one discovery cycle immediately",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, cleanup, err := newEnv(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			res := jobs.NewDiscoverJob(e.deps).Run(cmd.Context())

			return resultToError(res)
		},
	}
}
