// Package zones implements the zone-builder algorithm: for a
// storm's latest forecast track and its basin's coastline, compute the
// time-of-first-intersection for each coast segment, classify it into
// warning/watch/excluded, then union, dissolve, smooth, and simplify the
// classified segments' buffers into persistable polygons.
package zones

import (
	"bufio"
	"embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/cyclonewatch/stormtrack/internal/geo"
	"github.com/cyclonewatch/stormtrack/internal/model"
)

//go:embed coastdata/*.txt
var coastFS embed.FS

// Segment is one static coastline segment, a pair of endpoints.
type Segment struct {
	ID    string
	Start geo.Point
	End   geo.Point
}

// CoastSource loads the basin-keyed static coastline segment sets the zone
// builder tests forecast tracks against.
type CoastSource struct {
	byBasin map[model.Basin][]Segment
}

// LoadCoastSource reads every embedded coastdata/<basin>.txt file into a
// CoastSource. Lines are "id lon1 lat1 lon2 lat2"; blank lines and lines
// starting with "#" are skipped.
func LoadCoastSource() (*CoastSource, error) {
	cs := &CoastSource{byBasin: make(map[model.Basin][]Segment)}

	entries, err := coastFS.ReadDir("coastdata")
	if err != nil {
		return nil, fmt.Errorf("read coastdata directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()

		basin := model.Basin(strings.ToUpper(strings.TrimSuffix(name, ".txt")))

		segments, err := parseCoastFile(fmt.Sprintf("coastdata/%s", name))
		if err != nil {
			return nil, fmt.Errorf("parse coast file %s: %w", name, err)
		}

		cs.byBasin[basin] = segments
	}

	return cs, nil
}

func parseCoastFile(path string) ([]Segment, error) {
	f, err := coastFS.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var segments []Segment

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, fmt.Errorf("malformed coast line %q: want 5 fields, got %d", line, len(fields))
		}

		lon1, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse lon1 in %q: %w", line, err)
		}

		lat1, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parse lat1 in %q: %w", line, err)
		}

		lon2, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("parse lon2 in %q: %w", line, err)
		}

		lat2, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("parse lat2 in %q: %w", line, err)
		}

		segments = append(segments, Segment{
			ID:    fields[0],
			Start: geo.Point{Lon: lon1, Lat: lat1},
			End:   geo.Point{Lon: lon2, Lat: lat2},
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	return segments, nil
}

// SegmentsFor returns the coastline segments registered for basin, or nil
// if the basin has no loaded coastline data.
func (c *CoastSource) SegmentsFor(basin model.Basin) []Segment {
	return c.byBasin[basin]
}
