// Package radii parses the quadrant wind-radii companion file and infers
// radii from intensity when the upstream value is missing.
package radii

import (
	"strconv"
	"strings"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/model"
)

// Record is one parsed timestamped radii row, all four quadrants at all
// three thresholds.
type Record struct {
	TimestampUTC time.Time
	Quadrants    [4]model.Radii // Indexed by NE, SE, SW, NW.
}

// MatchWindow is the tolerance within which a radii record is matched to
// an advisory by timestamp.
const MatchWindow = 3 * time.Hour

// Parse reads the space-delimited companion file: one row per timestamp,
// twelve quadrant radii values (4 quadrants × {34,50,64} kt) following a
// leading datetime token. Malformed rows are skipped tolerantly.
func Parse(raw string) []Record {
	var records []Record

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		rec, ok := parseLine(trimmed)
		if ok {
			records = append(records, rec)
		}
	}

	return records
}

func parseLine(line string) (Record, bool) {
	fields := strings.Fields(line)
	if len(fields) < 13 {
		return Record{}, false
	}

	ts, ok := parseTimestamp(fields[0])
	if !ok {
		return Record{}, false
	}

	values := make([]float64, 12)

	for i := 0; i < 12; i++ {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return Record{}, false
		}

		values[i] = v
	}

	quadrantNames := [4]model.Quadrant{model.QuadrantNE, model.QuadrantSE, model.QuadrantSW, model.QuadrantNW}

	var rec Record
	rec.TimestampUTC = ts

	for q := 0; q < 4; q++ {
		rec.Quadrants[q] = model.Radii{
			Quadrant: quadrantNames[q],
			R34:      values[q*3+0],
			R50:      values[q*3+1],
			R64:      values[q*3+2],
			Source:   model.RadiiSourceUpstream,
		}
	}

	return rec, true
}

var monthAbbrev = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March, "APR": time.April,
	"MAY": time.May, "JUN": time.June, "JUL": time.July, "AUG": time.August,
	"SEP": time.September, "OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// parseTimestamp accepts "DDMonYYYYHHMM" (three-letter month abbreviation),
// the companion file's timestamp convention.
func parseTimestamp(raw string) (time.Time, bool) {
	if len(raw) < 11 {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(raw[:2])
	if err != nil {
		return time.Time{}, false
	}

	month, ok := monthAbbrev[strings.ToUpper(raw[2:5])]
	if !ok {
		return time.Time{}, false
	}

	rest := raw[5:]
	if len(rest) < 8 {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(rest[:4])
	if err != nil {
		return time.Time{}, false
	}

	hour, err := strconv.Atoi(rest[4:6])
	if err != nil {
		return time.Time{}, false
	}

	minute, err := strconv.Atoi(rest[6:8])
	if err != nil {
		return time.Time{}, false
	}

	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC), true
}

// MatchToAdvisory finds the advisory within MatchWindow of rec's timestamp,
// returning its index in advisories, or -1 if none is within tolerance.
func MatchToAdvisory(rec Record, advisories []model.Advisory) int {
	best := -1

	var bestDelta time.Duration

	for i, adv := range advisories {
		delta := rec.TimestampUTC.Sub(adv.IssuanceTimeUTC)
		if delta < 0 {
			delta = -delta
		}

		if delta > MatchWindow {
			continue
		}

		if best == -1 || delta < bestDelta {
			best = i
			bestDelta = delta
		}
	}

	return best
}
