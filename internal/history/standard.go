package history

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/cyclonewatch/stormtrack/internal/model"
)

// ParserVersion is bumped whenever the parsing rules change in a way that
// affects persisted output, so Advisory.ParserVersion records provenance.
const ParserVersion = 1

// Report summarizes one parse pass: skipped lines are reported, not
// treated as a failure.
type Report struct {
	TotalLines   int
	ParsedLines  int
	SkippedLines int
	Errors       []ParseError
}

// FailureRateExceeded reports whether more than half the non-blank,
// non-comment lines failed to parse, the threshold past which a parse
// failure escalates to a permanent job failure.
func (r Report) FailureRateExceeded() bool {
	attempted := r.ParsedLines + r.SkippedLines
	if attempted == 0 {
		return false
	}

	return float64(r.SkippedLines)/float64(attempted) > 0.5
}

// ParseStandard parses a whitespace-delimited history-file line format
// shared by the WP/EP/AL/CP basin adapters: datetime, lat, lon, mslp,
// vmax, and optionally a motion bearing and speed.
func ParseStandard(raw string) ([]model.Advisory, Report) {
	var (
		report     Report
		advisories []model.Advisory
	)

	for lineNum, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		report.TotalLines++

		adv, err := parseStandardLine(trimmed)
		if err != nil {
			report.SkippedLines++
			report.Errors = append(report.Errors, ParseError{
				LineNumber: lineNum + 1,
				Line:       trimmed,
				Reason:     err.Error(),
			})

			continue
		}

		report.ParsedLines++
		advisories = append(advisories, adv)
	}

	return advisories, report
}

func parseStandardLine(line string) (model.Advisory, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return model.Advisory{}, errTooFewFields
	}

	issuance, ok := parseDatetime(fields[0])
	if !ok {
		return model.Advisory{}, errBadDatetime
	}

	lat, ok := parseLatLon(fields[1], true)
	if !ok {
		return model.Advisory{}, errBadLat
	}

	lon, ok := parseLatLon(fields[2], false)
	if !ok {
		return model.Advisory{}, errBadLon
	}

	mslp, ok := firstNumericToken(fields[3])
	if !ok {
		return model.Advisory{}, errBadPressure
	}

	vmax, ok := firstNumericToken(fields[4])
	if !ok {
		return model.Advisory{}, errBadIntensity
	}

	adv := model.Advisory{
		IssuanceTimeUTC: issuance,
		Lat:             lat,
		Lon:             lon,
		MSLPHpa:         mslp,
		VmaxKt:          vmax,
		ParserVersion:   ParserVersion,
	}

	if len(fields) >= 7 {
		if bearing, ok := parseMotionBearing(fields[5]); ok {
			adv.MotionBearingDeg = bearing
		}

		if speed, ok := firstNumericToken(fields[6]); ok {
			adv.MotionSpeedKt = speed
		}
	}

	adv.SourceLineChecksum = checksum(line)

	if !adv.Valid() {
		return model.Advisory{}, errOutOfRange
	}

	return adv, nil
}

func checksum(line string) string {
	sum := sha256.Sum256([]byte(line))

	return hex.EncodeToString(sum[:])
}
