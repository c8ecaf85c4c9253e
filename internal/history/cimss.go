package history

import (
	"strings"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/model"
)

// ParseCIMSS parses the CIMSS/ADT *-list.txt free-format extractor used for
// the SH and IO basins (tropic.ssec.wisc.edu): a whitespace-tokenized row
// whose date/time/pressure/intensity are in fixed leading columns but whose
// lat/lon are only reliably found by counting back from the end of the row
//. This positional brittleness is inherent to the upstream; malformed
// rows are skipped and reported, never fatal.
func ParseCIMSS(raw string) ([]model.Advisory, Report) {
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

		adv, err := parseCIMSSLine(trimmed)
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

func parseCIMSSLine(line string) (model.Advisory, error) {
	tokens := strings.Fields(line)
	if len(tokens) < 5 {
		return model.Advisory{}, errTooFewFields
	}

	issuance, ok := parseCIMSSDateTime(tokens[0], tokens[1])
	if !ok {
		return model.Advisory{}, errBadDatetime
	}

	mslp, ok := firstNumericToken(tokens[2])
	if !ok {
		return model.Advisory{}, errBadPressure
	}

	vmax, ok := firstNumericToken(tokens[3])
	if !ok {
		return model.Advisory{}, errBadIntensity
	}

	lat, ok := parseLatLon(tokens[len(tokens)-5], true)
	if !ok {
		return model.Advisory{}, errBadLat
	}

	lon, ok := parseLatLon(tokens[len(tokens)-4], false)
	if !ok {
		return model.Advisory{}, errBadLon
	}

	adv := model.Advisory{
		IssuanceTimeUTC: issuance,
		Lat:             lat,
		Lon:             lon,
		MSLPHpa:         mslp,
		VmaxKt:          vmax,
		ParserVersion:   ParserVersion,
	}

	adv.SourceLineChecksum = checksum(line)

	if !adv.Valid() {
		return model.Advisory{}, errOutOfRange
	}

	return adv, nil
}

// parseCIMSSDateTime parses a "YYYYmonDD" date token (month a three-letter
// abbreviation in any case) paired with an "HHMMSS" time token.
func parseCIMSSDateTime(dateToken, timeToken string) (time.Time, bool) {
	if len(dateToken) < 8 || len(timeToken) != 6 {
		return time.Time{}, false
	}

	month := strings.ToLower(dateToken[4:7])
	if len(month) != 3 {
		return time.Time{}, false
	}

	titledMonth := strings.ToUpper(month[:1]) + month[1:]
	normalized := dateToken[:4] + titledMonth + dateToken[7:]

	date, err := time.Parse("2006Jan02", normalized)
	if err != nil {
		return time.Time{}, false
	}

	t, err := time.Parse("150405", timeToken)
	if err != nil {
		return time.Time{}, false
	}

	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), true
}
