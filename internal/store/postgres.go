package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// Registers the "pgx" database/sql driver used by sqlx.Connect below.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/cyclonewatch/stormtrack/internal/audit"
	"github.com/cyclonewatch/stormtrack/internal/model"
)

// Postgres implements Store against a Postgres database via sqlx/pgx,
// wrapping every per-storm write cycle in one READ COMMITTED (or
// stricter) transaction.
type Postgres struct {
	db *sqlx.DB
}

// Open connects to databaseURL and configures the pool per cfg.
func Open(ctx context.Context, databaseURL string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (*Postgres, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}

	if connMaxLifetime > 0 {
		db.SetConnMaxLifetime(connMaxLifetime)
	}

	return &Postgres{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	err := p.db.Close()
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	return nil
}

// DB exposes the underlying *sql.DB for the goose migration runner.
func (p *Postgres) DB() *sql.DB {
	return p.db.DB
}

func (p *Postgres) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if runErr := fn(tx); runErr != nil {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback after %w: %w", runErr, rollbackErr)
		}

		return runErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit transaction: %w", commitErr)
	}

	return nil
}

// UpsertStorm implements Store.
func (p *Postgres) UpsertStorm(ctx context.Context, storm model.Storm) (model.Storm, error) {
	if storm.Status == "" {
		storm.Status = model.StatusActive
	}

	const query = `
		INSERT INTO storms (code, basin, name, status, first_seen_utc, last_seen_utc,
		                     last_status_change_utc, history_url, peak_vmax_kt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (code) DO UPDATE SET code = storms.code
		RETURNING id, code, basin, name, status, first_seen_utc, last_seen_utc,
		          last_status_change_utc, history_url, peak_vmax_kt`

	var out stormRow

	err := p.db.GetContext(ctx, &out, query,
		storm.Code, storm.Basin, storm.Name, storm.Status,
		storm.FirstSeenUTC, storm.LastSeenUTC, storm.FirstSeenUTC, storm.HistoryURL, storm.PeakVmaxKt)
	if err != nil {
		return model.Storm{}, fmt.Errorf("upsert storm %s: %w", storm.Code, err)
	}

	return out.toModel(), nil
}

// GetStormByCode implements Store.
func (p *Postgres) GetStormByCode(ctx context.Context, code string) (model.Storm, error) {
	const query = `SELECT id, code, basin, name, status, first_seen_utc, last_seen_utc,
	                      last_status_change_utc, history_url, peak_vmax_kt
	               FROM storms WHERE code = $1`

	var out stormRow

	err := p.db.GetContext(ctx, &out, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Storm{}, fmt.Errorf("%w: storm %q", ErrNotFound, code)
	}

	if err != nil {
		return model.Storm{}, fmt.Errorf("get storm %s: %w", code, err)
	}

	return out.toModel(), nil
}

// GetStormByID implements Store.
func (p *Postgres) GetStormByID(ctx context.Context, stormID int64) (model.Storm, error) {
	const query = `SELECT id, code, basin, name, status, first_seen_utc, last_seen_utc,
	                      last_status_change_utc, history_url, peak_vmax_kt
	               FROM storms WHERE id = $1`

	var out stormRow

	err := p.db.GetContext(ctx, &out, query, stormID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Storm{}, fmt.Errorf("%w: storm id %d", ErrNotFound, stormID)
	}

	if err != nil {
		return model.Storm{}, fmt.Errorf("get storm %d: %w", stormID, err)
	}

	return out.toModel(), nil
}

// ListStormsByStatus implements Store.
func (p *Postgres) ListStormsByStatus(ctx context.Context, status model.Status) ([]model.Storm, error) {
	const query = `SELECT id, code, basin, name, status, first_seen_utc, last_seen_utc,
	                      last_status_change_utc, history_url, peak_vmax_kt
	               FROM storms WHERE status = $1 ORDER BY code`

	var rows []stormRow

	err := p.db.SelectContext(ctx, &rows, query, status)
	if err != nil {
		return nil, fmt.Errorf("list storms by status %s: %w", status, err)
	}

	out := make([]model.Storm, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}

	return out, nil
}

// TouchLastSeen implements Store.
func (p *Postgres) TouchLastSeen(ctx context.Context, stormID int64, seenAtUTC time.Time) error {
	return p.withTx(ctx, func(tx *sqlx.Tx) error {
		var current stormRow

		err := tx.GetContext(ctx, &current, `SELECT id, code, basin, name, status, first_seen_utc,
			last_seen_utc, last_status_change_utc, history_url, peak_vmax_kt
			FROM storms WHERE id = $1 FOR UPDATE`, stormID)
		if err != nil {
			return fmt.Errorf("lock storm %d: %w", stormID, err)
		}

		newStatus := current.Status
		statusChangeUTC := current.LastStatusChangeUTC

		if current.Status == string(model.StatusDormant) {
			newStatus = string(model.StatusActive)
			statusChangeUTC = seenAtUTC

			entry := audit.NewStatusChange(current.toModel(), model.StatusDormant, model.StatusActive, "new advisory observed", seenAtUTC)
			if writeErr := insertAuditEntry(ctx, tx, entry); writeErr != nil {
				return writeErr
			}
		}

		_, err = tx.ExecContext(ctx, `UPDATE storms SET
			last_seen_utc = GREATEST(last_seen_utc, $2),
			status = $3,
			last_status_change_utc = $4
			WHERE id = $1`, stormID, seenAtUTC, newStatus, statusChangeUTC)
		if err != nil {
			return fmt.Errorf("touch last seen for storm %d: %w", stormID, err)
		}

		return nil
	})
}

// TransitionStatus implements Store.
func (p *Postgres) TransitionStatus(ctx context.Context, stormID int64, from, to model.Status, entry audit.Entry) error {
	return p.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE storms SET status = $2, last_status_change_utc = $3
			WHERE id = $1 AND status = $4`, stormID, to, entry.CreatedAtUTC, from)
		if err != nil {
			return fmt.Errorf("transition storm %d status: %w", stormID, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected for storm %d transition: %w", stormID, err)
		}

		if affected == 0 {
			return fmt.Errorf("%w: storm id %d", ErrConcurrentTransition, stormID)
		}

		return insertAuditEntry(ctx, tx, entry)
	})
}

func insertAuditEntry(ctx context.Context, tx *sqlx.Tx, entry audit.Entry) error {
	var statsJSON []byte

	if entry.ArchivalStats != nil {
		encoded, err := json.Marshal(entry.ArchivalStats)
		if err != nil {
			return fmt.Errorf("marshal archival stats: %w", err)
		}

		statsJSON = encoded
	}

	_, err := tx.ExecContext(ctx, `INSERT INTO audit_logs
		(id, storm_id, storm_code, action, from_status, to_status, reason, archival_stats, created_at_utc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.StormID, entry.StormCode, entry.Action,
		entry.FromStatus, entry.ToStatus, entry.Reason, statsJSON, entry.CreatedAtUTC)
	if err != nil {
		return fmt.Errorf("insert audit log entry: %w", err)
	}

	return nil
}

// UpsertAdvisories implements Store.
func (p *Postgres) UpsertAdvisories(ctx context.Context, stormID int64, advisories []model.Advisory) (int, error) {
	written := 0

	err := p.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, a := range advisories {
			radiiJSON, err := json.Marshal(a.Radii)
			if err != nil {
				return fmt.Errorf("marshal radii: %w", err)
			}

			res, err := tx.ExecContext(ctx, `
				INSERT INTO advisories
					(storm_id, issuance_time_utc, lat, lon, vmax_kt, mslp_hpa,
					 motion_bearing_deg, motion_speed_kt, radii, source_line_checksum, parser_version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				ON CONFLICT (storm_id, issuance_time_utc) DO UPDATE SET
					lat = EXCLUDED.lat, lon = EXCLUDED.lon, vmax_kt = EXCLUDED.vmax_kt,
					mslp_hpa = EXCLUDED.mslp_hpa, motion_bearing_deg = EXCLUDED.motion_bearing_deg,
					motion_speed_kt = EXCLUDED.motion_speed_kt, radii = EXCLUDED.radii,
					source_line_checksum = EXCLUDED.source_line_checksum, parser_version = EXCLUDED.parser_version
				WHERE advisories.source_line_checksum IS DISTINCT FROM EXCLUDED.source_line_checksum`,
				stormID, a.IssuanceTimeUTC, a.Lat, a.Lon, a.VmaxKt, a.MSLPHpa,
				a.MotionBearingDeg, a.MotionSpeedKt, radiiJSON, a.SourceLineChecksum, a.ParserVersion)
			if err != nil {
				return fmt.Errorf("upsert advisory for storm %d at %s: %w", stormID, a.IssuanceTimeUTC, err)
			}

			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected for advisory upsert: %w", err)
			}

			written += int(affected)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return written, nil
}

// UpdateRadii implements Store.
func (p *Postgres) UpdateRadii(ctx context.Context, stormID, advisoryID int64, radiiSet []model.Radii) error {
	radiiJSON, err := json.Marshal(radiiSet)
	if err != nil {
		return fmt.Errorf("marshal radii: %w", err)
	}

	res, err := p.db.ExecContext(ctx,
		`UPDATE advisories SET radii = $1 WHERE id = $2 AND storm_id = $3`,
		radiiJSON, advisoryID, stormID)
	if err != nil {
		return fmt.Errorf("update radii for advisory %d: %w", advisoryID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for radii update: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: advisory id %d for storm %d", ErrNotFound, advisoryID, stormID)
	}

	return nil
}

// ListAdvisories implements Store.
func (p *Postgres) ListAdvisories(ctx context.Context, stormID int64) ([]model.Advisory, error) {
	const query = `SELECT storm_id, issuance_time_utc, lat, lon, vmax_kt, mslp_hpa,
	                      motion_bearing_deg, motion_speed_kt, radii, source_line_checksum, parser_version
	               FROM advisories WHERE storm_id = $1 ORDER BY issuance_time_utc`

	var rows []advisoryRow

	err := p.db.SelectContext(ctx, &rows, query, stormID)
	if err != nil {
		return nil, fmt.Errorf("list advisories for storm %d: %w", stormID, err)
	}

	out := make([]model.Advisory, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}

	return out, nil
}

// LatestAdvisory implements Store.
func (p *Postgres) LatestAdvisory(ctx context.Context, stormID int64) (model.Advisory, error) {
	const query = `SELECT storm_id, issuance_time_utc, lat, lon, vmax_kt, mslp_hpa,
	                      motion_bearing_deg, motion_speed_kt, radii, source_line_checksum, parser_version
	               FROM advisories WHERE storm_id = $1 ORDER BY issuance_time_utc DESC LIMIT 1`

	var row advisoryRow

	err := p.db.GetContext(ctx, &row, query, stormID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Advisory{}, fmt.Errorf("%w: no advisories for storm id %d", ErrNotFound, stormID)
	}

	if err != nil {
		return model.Advisory{}, fmt.Errorf("latest advisory for storm %d: %w", stormID, err)
	}

	return row.toModel(), nil
}

// ReplaceForecast implements Store by deleting and inserting inside one
// transaction rather than a visible two-step swap.
func (p *Postgres) ReplaceForecast(ctx context.Context, stormID int64, points []model.ForecastPoint) error {
	return p.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM forecast_points WHERE storm_id = $1 AND is_final`, stormID)
		if err != nil {
			return fmt.Errorf("delete prior forecast for storm %d: %w", stormID, err)
		}

		for _, pt := range points {
			radiiJSON, marshalErr := json.Marshal(pt.Radii)
			if marshalErr != nil {
				return fmt.Errorf("marshal forecast radii: %w", marshalErr)
			}

			_, execErr := tx.ExecContext(ctx, `
				INSERT INTO forecast_points
					(storm_id, issuance_time_utc, valid_at_utc, lead_hours, lat, lon,
					 vmax_kt, mslp_hpa, radii, member_count, source_tag, is_final)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true)`,
				stormID, pt.IssuanceTimeUTC, pt.ValidAtUTC, pt.LeadHours, pt.Lat, pt.Lon,
				pt.VmaxKt, pt.MSLPHpa, radiiJSON, pt.MemberCount, pt.SourceTag)
			if execErr != nil {
				return fmt.Errorf("insert forecast point lead %d for storm %d: %w", pt.LeadHours, stormID, execErr)
			}
		}

		return nil
	})
}

// LatestForecast implements Store.
func (p *Postgres) LatestForecast(ctx context.Context, stormID int64) ([]model.ForecastPoint, error) {
	const query = `SELECT storm_id, issuance_time_utc, valid_at_utc, lead_hours, lat, lon,
	                      vmax_kt, mslp_hpa, radii, member_count, source_tag, is_final
	               FROM forecast_points WHERE storm_id = $1 AND is_final ORDER BY lead_hours`

	var rows []forecastRow

	err := p.db.SelectContext(ctx, &rows, query, stormID)
	if err != nil {
		return nil, fmt.Errorf("latest forecast for storm %d: %w", stormID, err)
	}

	out := make([]model.ForecastPoint, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}

	return out, nil
}

// ReplaceZones implements Store.
func (p *Postgres) ReplaceZones(ctx context.Context, stormID int64, zones []model.Zone) error {
	return p.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM zones WHERE storm_id = $1`, stormID)
		if err != nil {
			return fmt.Errorf("delete prior zones for storm %d: %w", stormID, err)
		}

		for _, z := range zones {
			geomJSON, marshalErr := json.Marshal(z.Geometry)
			if marshalErr != nil {
				return fmt.Errorf("marshal zone geometry: %w", marshalErr)
			}

			paramsJSON, marshalErr := json.Marshal(z.Parameters)
			if marshalErr != nil {
				return fmt.Errorf("marshal zone parameters: %w", marshalErr)
			}

			_, execErr := tx.ExecContext(ctx, `
				INSERT INTO zones
					(storm_id, zone_type, generated_at, valid_from_utc, valid_to_utc,
					 geometry, method_version, parameters)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				stormID, z.Type, z.GeneratedAt, z.ValidFrom, z.ValidTo, geomJSON, z.MethodVersion, paramsJSON)
			if execErr != nil {
				return fmt.Errorf("insert %s zone for storm %d: %w", z.Type, stormID, execErr)
			}
		}

		return nil
	})
}

// ListZones implements Store.
func (p *Postgres) ListZones(ctx context.Context, stormID int64) ([]model.Zone, error) {
	const query = `SELECT storm_id, zone_type, generated_at, valid_from_utc, valid_to_utc,
	                      geometry, method_version, parameters
	               FROM zones WHERE storm_id = $1 ORDER BY zone_type, valid_from_utc`

	var rows []zoneRow

	err := p.db.SelectContext(ctx, &rows, query, stormID)
	if err != nil {
		return nil, fmt.Errorf("list zones for storm %d: %w", stormID, err)
	}

	out := make([]model.Zone, len(rows))
	for i, r := range rows {
		zone, convErr := r.toModel()
		if convErr != nil {
			return nil, convErr
		}

		out[i] = zone
	}

	return out, nil
}

// Ping implements Store.
func (p *Postgres) Ping(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	return nil
}
