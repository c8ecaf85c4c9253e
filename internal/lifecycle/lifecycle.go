// Package lifecycle implements the storm state machine: staleness
// checks that drive active->dormant->archived transitions, and the
// archival statistics pack computed on the dormant->archived transition.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/audit"
	"github.com/cyclonewatch/stormtrack/internal/model"
	"github.com/cyclonewatch/stormtrack/internal/store"
	"github.com/cyclonewatch/stormtrack/pkg/eventbus"
)

// Staleness thresholds for the dormancy and archival transitions.
const (
	DormantThreshold = 24 * time.Hour
	ArchiveThreshold = 168 * time.Hour
)

// ErrNoAdvisories is returned when an archival transition is attempted for
// a storm with no persisted advisories: archival stats need at least one.
var ErrNoAdvisories = errors.New("lifecycle: storm has no advisories to archive")

// Checker drives the periodic staleness checks and the archival transition.
// It is constructed once in the composition root and shared by the
// scheduler's jobs.
type Checker struct {
	store store.Store
	bus   *eventbus.Bus
}

// NewChecker constructs a Checker backed by s, publishing lifecycle events
// on bus.
func NewChecker(s store.Store, bus *eventbus.Bus) *Checker {
	return &Checker{store: s, bus: bus}
}

// CheckDormant transitions storm active->dormant if its last-seen advisory
// is older than DormantThreshold as of now. A no-op for storms already
// dormant or archived, or not yet stale.
func (c *Checker) CheckDormant(ctx context.Context, storm model.Storm, now time.Time) error {
	if storm.Status != model.StatusActive {
		return nil
	}

	if now.Sub(storm.LastSeenUTC) < DormantThreshold {
		return nil
	}

	entry := audit.NewStatusChange(storm, model.StatusActive, model.StatusDormant, "no advisory newer than 24h", now)

	if err := c.store.TransitionStatus(ctx, storm.ID, model.StatusActive, model.StatusDormant, entry); err != nil {
		return fmt.Errorf("transition storm %s to dormant: %w", storm.Code, err)
	}

	c.publishStatusChange(storm, model.StatusActive, model.StatusDormant, entry.Reason, now)

	return nil
}

// CheckArchive transitions storm dormant->archived if its last-seen
// advisory is older than ArchiveThreshold as of now, computing and
// persisting the archival statistics pack in the same transition.
func (c *Checker) CheckArchive(ctx context.Context, storm model.Storm, now time.Time) error {
	if storm.Status != model.StatusDormant {
		return nil
	}

	if now.Sub(storm.LastSeenUTC) < ArchiveThreshold {
		return nil
	}

	advisories, err := c.store.ListAdvisories(ctx, storm.ID)
	if err != nil {
		return fmt.Errorf("list advisories for storm %s: %w", storm.Code, err)
	}

	if len(advisories) == 0 {
		return fmt.Errorf("%w: storm %s", ErrNoAdvisories, storm.Code)
	}

	stats := ComputeArchivalStats(advisories)

	entry := audit.NewArchival(storm, "no advisory newer than 168h", stats, now)

	if err := c.store.TransitionStatus(ctx, storm.ID, model.StatusDormant, model.StatusArchived, entry); err != nil {
		return fmt.Errorf("transition storm %s to archived: %w", storm.Code, err)
	}

	c.publishStatusChange(storm, model.StatusDormant, model.StatusArchived, entry.Reason, now)

	return nil
}

func (c *Checker) publishStatusChange(storm model.Storm, from, to model.Status, reason string, now time.Time) {
	if c.bus == nil {
		return
	}

	c.bus.Publish(eventbus.StormStatusChanged{
		StormCode: storm.Code,
		From:      string(from),
		To:        string(to),
		Reason:    reason,
		At:        now,
	})
}
