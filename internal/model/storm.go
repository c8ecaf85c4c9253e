// Package model holds the normalized entities the pipeline reads and
// writes: storms, advisories, radii, forecast points, and zones.
package model

import "time"

// Basin is one of the fixed upstream basin codes; it governs parser
// adapter selection and empirical radii-inference coefficients.
type Basin string

// Recognized basins.
const (
	BasinWP Basin = "WP"
	BasinEP Basin = "EP"
	BasinAL Basin = "AL"
	BasinCP Basin = "CP"
	BasinSH Basin = "SH"
	BasinIO Basin = "IO"
)

// BasinFromUpstreamCode maps the last character of an upstream storm code
// (e.g. "28W") to a Basin, per the discovery component's mapping table.
func BasinFromUpstreamCode(code string) (Basin, bool) {
	if code == "" {
		return "", false
	}

	switch code[len(code)-1] {
	case 'W':
		return BasinWP, true
	case 'E':
		return BasinEP, true
	case 'S':
		return BasinSH, true
	case 'L':
		return BasinAL, true
	case 'C':
		return BasinCP, true
	case 'I', 'A', 'B':
		return BasinIO, true
	default:
		return "", false
	}
}

// Status is a storm's lifecycle state.
type Status string

// Recognized lifecycle states.
const (
	StatusActive   Status = "active"
	StatusDormant  Status = "dormant"
	StatusArchived Status = "archived"
)

// Storm is the root entity; it transitively owns Advisories, ForecastPoints,
// Zones, and Radii.
type Storm struct {
	ID                  int64
	Code                string // Unique upstream storm code, e.g. "28W".
	Basin               Basin
	Name                string // Empty when the upstream name is a placeholder.
	Status              Status
	FirstSeenUTC        time.Time
	LastSeenUTC         time.Time
	LastStatusChangeUTC time.Time
	HistoryURL          string
	PeakVmaxKt          float64 // Cache of the highest vmax observed across advisories.
}

// PlaceholderNames are upstream display names that carry no real storm name.
var PlaceholderNames = map[string]bool{
	"":         true,
	"UNNAMED":  true,
	"INVEST":   true,
	"TD":       true,
}
