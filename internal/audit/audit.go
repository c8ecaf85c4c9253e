// Package audit builds the audit-log entries written on every lifecycle
// transition. Entries are pure values; internal/store is responsible for
// persisting them transactionally alongside the storm-status write they
// describe.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/cyclonewatch/stormtrack/internal/model"
)

// Action identifies the kind of event an Entry records.
type Action string

// Recognized audit actions.
const (
	ActionStatusChanged Action = "storm.status_changed"
	ActionArchived      Action = "storm.archived"
)

// ArchivalStats is the archival statistics pack computed on the
// dormant->archived transition: peak intensity, minimum pressure,
// Accumulated Cyclone Energy, track length, and duration.
type ArchivalStats struct {
	PeakVmaxKt    float64
	MinMSLPHpa    float64
	ACE           float64
	TrackLengthKm float64
	DurationHours float64
	AdvisoryCount int
	LandfallCount int // Always 0: coastline-crossing detection is out of scope for archival stats.
}

// Entry is one immutable audit-log row.
type Entry struct {
	ID            uuid.UUID
	StormID       int64
	StormCode     string
	Action        Action
	FromStatus    model.Status
	ToStatus      model.Status
	Reason        string
	ArchivalStats *ArchivalStats
	CreatedAtUTC  time.Time
}

// NewStatusChange builds the Entry for a plain status transition
// (active<->dormant, dormant->active reactivation).
func NewStatusChange(storm model.Storm, from, to model.Status, reason string, now time.Time) Entry {
	return Entry{
		ID:           uuid.New(),
		StormID:      storm.ID,
		StormCode:    storm.Code,
		Action:       ActionStatusChanged,
		FromStatus:   from,
		ToStatus:     to,
		Reason:       reason,
		CreatedAtUTC: now,
	}
}

// NewArchival builds the Entry for a dormant->archived transition, carrying
// the computed archival statistics pack.
func NewArchival(storm model.Storm, reason string, stats ArchivalStats, now time.Time) Entry {
	return Entry{
		ID:            uuid.New(),
		StormID:       storm.ID,
		StormCode:     storm.Code,
		Action:        ActionArchived,
		FromStatus:    model.StatusDormant,
		ToStatus:      model.StatusArchived,
		Reason:        reason,
		ArchivalStats: &stats,
		CreatedAtUTC:  now,
	}
}
