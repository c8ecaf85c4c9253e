package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyclonewatch/stormtrack/internal/audit"
	"github.com/cyclonewatch/stormtrack/internal/lifecycle"
	"github.com/cyclonewatch/stormtrack/internal/model"
	"github.com/cyclonewatch/stormtrack/pkg/eventbus"
)

// errNotDormant is returned when archive is asked to force a storm that
// isn't currently dormant: the archival transition only runs from dormant.
var errNotDormant = errors.New("commands: storm is not dormant")

// NewArchiveCommand forces a storm's dormant->archived transition ahead of
// its staleness threshold, for operator-driven cleanup.
func NewArchiveCommand(configPath *string) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "archive <storm-code>",
		Short: "Force a storm's dormant->archived transition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]

			e, cleanup, err := newEnv(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()

			storm, err := e.deps.Store.GetStormByCode(ctx, code)
			if err != nil {
				return fmt.Errorf("look up storm %s: %w", code, err)
			}

			if storm.Status != model.StatusDormant {
				return fmt.Errorf("%w: storm %s is %s", errNotDormant, storm.Code, storm.Status)
			}

			advisories, err := e.deps.Store.ListAdvisories(ctx, storm.ID)
			if err != nil {
				return fmt.Errorf("list advisories for storm %s: %w", storm.Code, err)
			}

			if len(advisories) == 0 {
				return fmt.Errorf("%w: storm %s", lifecycle.ErrNoAdvisories, storm.Code)
			}

			if reason == "" {
				reason = "forced by admin"
			}

			now := time.Now().UTC()
			stats := lifecycle.ComputeArchivalStats(advisories)
			entry := audit.NewArchival(storm, reason, stats, now)

			if err := e.deps.Store.TransitionStatus(ctx, storm.ID, model.StatusDormant, model.StatusArchived, entry); err != nil {
				return fmt.Errorf("transition storm %s to archived: %w", storm.Code, err)
			}

			e.deps.Bus.Publish(eventbus.StormStatusChanged{
				StormCode: storm.Code,
				From:      string(model.StatusDormant),
				To:        string(model.StatusArchived),
				Reason:    reason,
				At:        now,
			})

			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in the audit log (default: \"forced by admin\")")

	return cmd
}
