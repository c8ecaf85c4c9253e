// Package store implements the pipeline's persistence contract: a
// transactional store with upsert semantics for advisories and forecast
// points, atomic replace-all for forecasts and zones, and an audit log
// written in the same transaction as a storm's status change.
//
// Store is implemented twice: Postgres (pkg transaction substrate, via
// pgx/sqlx) for production, and an in-memory Memory for unit tests that
// must not touch the network or a live database.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/audit"
	"github.com/cyclonewatch/stormtrack/internal/model"
)

// ErrNotFound is returned when a lookup finds no matching row.
var ErrNotFound = errors.New("store: not found")

// ErrConcurrentTransition is returned when a status transition's expected
// "from" state no longer matches the persisted state (another worker beat
// this one to it).
var ErrConcurrentTransition = errors.New("store: concurrent status transition")

// Store is the persistence contract every pipeline component writes
// through. Every method that accepts multiple rows for one storm commits
// them in a single transaction.
type Store interface {
	// UpsertStorm inserts storm if storm.Code is new, or returns the
	// existing row unchanged if it already exists (discovery never
	// overwrites a storm's status or timestamps).
	UpsertStorm(ctx context.Context, storm model.Storm) (model.Storm, error)

	// GetStormByCode looks up a storm by its unique upstream code.
	GetStormByCode(ctx context.Context, code string) (model.Storm, error)

	// GetStormByID looks up a storm by its primary key, the form every
	// StormJob.Run receives from the scheduler.
	GetStormByID(ctx context.Context, stormID int64) (model.Storm, error)

	// ListStormsByStatus returns every storm currently in status.
	ListStormsByStatus(ctx context.Context, status model.Status) ([]model.Storm, error)

	// TouchLastSeen advances storm.LastSeenUTC and, if storm was dormant,
	// reactivates it to active, writing the audit entry and status change
	// in the same transaction as the timestamp update.
	TouchLastSeen(ctx context.Context, stormID int64, seenAtUTC time.Time) error

	// TransitionStatus moves storm from its current status to to,
	// persisting entry in the same transaction. Returns
	// ErrConcurrentTransition if the storm's persisted status is no longer
	// from.
	TransitionStatus(ctx context.Context, stormID int64, from, to model.Status, entry audit.Entry) error

	// UpsertAdvisories inserts or updates advisories for storm, keyed by
	// (storm, issuance_time) and de-duplicated by source-line checksum so
	// reprocessing the same upstream bytes is a no-op. Returns
	// the count of rows actually written (inserted or changed).
	UpsertAdvisories(ctx context.Context, stormID int64, advisories []model.Advisory) (int, error)

	// ListAdvisories returns every advisory for storm, ordered by
	// issuance time ascending.
	ListAdvisories(ctx context.Context, stormID int64) ([]model.Advisory, error)

	// UpdateRadii attaches radiiSet to one advisory, identified by ID and
	// its owning storm. Unlike UpsertAdvisories this is not gated by the
	// advisory's source-line checksum, since radii usually arrive from a
	// separate companion file after the advisory itself was persisted.
	UpdateRadii(ctx context.Context, stormID, advisoryID int64, radiiSet []model.Radii) error

	// LatestAdvisory returns the most recent advisory for storm.
	LatestAdvisory(ctx context.Context, stormID int64) (model.Advisory, error)

	// ReplaceForecast atomically deletes all prior is_final forecast
	// points for storm and inserts points in the same transaction, so
	// readers never observe an empty intermediate state.
	ReplaceForecast(ctx context.Context, stormID int64, points []model.ForecastPoint) error

	// LatestForecast returns the forecast points for storm's current
	// (is_final) issuance, ordered by lead hours ascending.
	LatestForecast(ctx context.Context, stormID int64) ([]model.ForecastPoint, error)

	// ReplaceZones atomically deletes all prior zones for storm and
	// inserts zones.
	ReplaceZones(ctx context.Context, stormID int64, zones []model.Zone) error

	// ListZones returns every zone currently persisted for storm.
	ListZones(ctx context.Context, stormID int64) ([]model.Zone, error)

	// Ping exercises the store's connectivity for the health job.
	Ping(ctx context.Context) error
}
