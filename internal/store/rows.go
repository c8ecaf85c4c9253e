package store

import (
	"encoding/json"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/model"
)

// stormRow mirrors the storms table for sqlx scanning.
type stormRow struct {
	ID                  int64     `db:"id"`
	Code                string    `db:"code"`
	Basin               string    `db:"basin"`
	Name                string    `db:"name"`
	Status              string    `db:"status"`
	FirstSeenUTC        time.Time `db:"first_seen_utc"`
	LastSeenUTC         time.Time `db:"last_seen_utc"`
	LastStatusChangeUTC time.Time `db:"last_status_change_utc"`
	HistoryURL          string    `db:"history_url"`
	PeakVmaxKt          float64   `db:"peak_vmax_kt"`
}

func (r stormRow) toModel() model.Storm {
	return model.Storm{
		ID:                  r.ID,
		Code:                r.Code,
		Basin:               model.Basin(r.Basin),
		Name:                r.Name,
		Status:              model.Status(r.Status),
		FirstSeenUTC:        r.FirstSeenUTC,
		LastSeenUTC:         r.LastSeenUTC,
		LastStatusChangeUTC: r.LastStatusChangeUTC,
		HistoryURL:          r.HistoryURL,
		PeakVmaxKt:          r.PeakVmaxKt,
	}
}

// advisoryRow mirrors the advisories table; Radii is stored as a jsonb
// column and decoded on read.
type advisoryRow struct {
	StormID            int64     `db:"storm_id"`
	IssuanceTimeUTC    time.Time `db:"issuance_time_utc"`
	Lat                float64   `db:"lat"`
	Lon                float64   `db:"lon"`
	VmaxKt             float64   `db:"vmax_kt"`
	MSLPHpa            float64   `db:"mslp_hpa"`
	MotionBearingDeg   float64   `db:"motion_bearing_deg"`
	MotionSpeedKt      float64   `db:"motion_speed_kt"`
	Radii              []byte    `db:"radii"`
	SourceLineChecksum string    `db:"source_line_checksum"`
	ParserVersion      int       `db:"parser_version"`
}

func (r advisoryRow) toModel() model.Advisory {
	var radii []model.Radii
	_ = json.Unmarshal(r.Radii, &radii)

	return model.Advisory{
		StormID:            r.StormID,
		IssuanceTimeUTC:    r.IssuanceTimeUTC,
		Lat:                r.Lat,
		Lon:                r.Lon,
		VmaxKt:             r.VmaxKt,
		MSLPHpa:            r.MSLPHpa,
		MotionBearingDeg:   r.MotionBearingDeg,
		MotionSpeedKt:      r.MotionSpeedKt,
		Radii:              radii,
		SourceLineChecksum: r.SourceLineChecksum,
		ParserVersion:      r.ParserVersion,
	}
}

// forecastRow mirrors the forecast_points table.
type forecastRow struct {
	StormID         int64     `db:"storm_id"`
	IssuanceTimeUTC time.Time `db:"issuance_time_utc"`
	ValidAtUTC      time.Time `db:"valid_at_utc"`
	LeadHours       int       `db:"lead_hours"`
	Lat             float64   `db:"lat"`
	Lon             float64   `db:"lon"`
	VmaxKt          float64   `db:"vmax_kt"`
	MSLPHpa         float64   `db:"mslp_hpa"`
	Radii           []byte    `db:"radii"`
	MemberCount     int       `db:"member_count"`
	SourceTag       string    `db:"source_tag"`
	IsFinal         bool      `db:"is_final"`
}

func (r forecastRow) toModel() model.ForecastPoint {
	var radii []model.Radii
	_ = json.Unmarshal(r.Radii, &radii)

	return model.ForecastPoint{
		StormID:         r.StormID,
		IssuanceTimeUTC: r.IssuanceTimeUTC,
		ValidAtUTC:      r.ValidAtUTC,
		LeadHours:       r.LeadHours,
		Lat:             r.Lat,
		Lon:             r.Lon,
		VmaxKt:          r.VmaxKt,
		MSLPHpa:         r.MSLPHpa,
		Radii:           radii,
		MemberCount:     r.MemberCount,
		SourceTag:       r.SourceTag,
		IsFinal:         r.IsFinal,
	}
}

// zoneRow mirrors the zones table; Geometry and Parameters are jsonb
// columns decoded on read.
type zoneRow struct {
	StormID       int64     `db:"storm_id"`
	ZoneType      string    `db:"zone_type"`
	GeneratedAt   time.Time `db:"generated_at"`
	ValidFromUTC  time.Time `db:"valid_from_utc"`
	ValidToUTC    time.Time `db:"valid_to_utc"`
	Geometry      []byte    `db:"geometry"`
	MethodVersion int       `db:"method_version"`
	Parameters    []byte    `db:"parameters"`
}

func (r zoneRow) toModel() (model.Zone, error) {
	var geometry model.MultiPolygon
	if err := json.Unmarshal(r.Geometry, &geometry); err != nil {
		return model.Zone{}, err
	}

	var params map[string]float64
	if len(r.Parameters) > 0 {
		if err := json.Unmarshal(r.Parameters, &params); err != nil {
			return model.Zone{}, err
		}
	}

	return model.Zone{
		StormID:       r.StormID,
		Type:          model.ZoneType(r.ZoneType),
		GeneratedAt:   r.GeneratedAt,
		ValidFrom:     r.ValidFromUTC,
		ValidTo:       r.ValidToUTC,
		Geometry:      geometry,
		MethodVersion: r.MethodVersion,
		Parameters:    params,
	}, nil
}
