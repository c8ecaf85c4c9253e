package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cyclonewatch/stormtrack/internal/jobs"
)

// NewRebuildForecastCommand recomputes one storm's forecast from its
// A-Deck file immediately.
func NewRebuildForecastCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-forecast <storm-code>",
		Short: "Recompute one storm's forecast from its A-Deck file",
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

			fmt.Fprintf(os.Stdout, "storm %s last seen %s, rebuilding forecast...\n",
				storm.Code, humanize.Time(storm.LastSeenUTC))

			res := jobs.NewUpdateForecastJob(e.deps).Run(cmd.Context(), storm.ID)

			return resultToError(res)
		},
	}
}
