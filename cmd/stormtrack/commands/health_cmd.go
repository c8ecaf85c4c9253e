package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewHealthCommand reports store and cache connectivity, the same check
// the periodic health job runs.
func NewHealthCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report store and cache connectivity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, cleanup, err := newEnv(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			checkedAt := time.Now()

			if err := e.deps.Store.Ping(cmd.Context()); err != nil {
				fmt.Fprintf(os.Stdout, "store: unreachable (%v), checked %s\n", err, humanize.Time(checkedAt))

				return &transientError{err: err}
			}

			fmt.Fprintf(os.Stdout, "store: ok, checked %s\n", humanize.Time(checkedAt))

			stats := e.deps.Cache.Stats()
			fmt.Fprintf(os.Stdout, "cache: %d entries, hit rate %.2f\n", stats.Entries, stats.HitRate())

			return nil
		},
	}
}
