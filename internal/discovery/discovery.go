// Package discovery parses the upstream storm index page to find active
// storm codes and their display names.
package discovery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cyclonewatch/stormtrack/internal/model"
)

// Entry is one storm discovered from the index page.
type Entry struct {
	Code       string
	Name       string
	Basin      model.Basin
	HistoryURL string
}

// HistoryURL builds the per-storm history-file URL, per the External
// Interfaces URL shape "<discovery_base>/<CODE>-list.txt".
func HistoryURL(discoveryBase, code string) string {
	return strings.TrimRight(discoveryBase, "/") + "/" + code + "-list.txt"
}

// stormLinkPattern matches anchor text of the form "Tropical Storm NAME" or
// "Typhoon CODE NAME" (some upstream pages repeat the storm code between the
// intensity class and the display name), associated with a storm code in
// the href.
var stormLinkPattern = regexp.MustCompile(`(?i)(?:Hurricane|Tropical Storm|Tropical Depression|Typhoon|Cyclone)\s+([A-Za-z0-9\-]+(?:\s+[A-Za-z0-9\-]+)?)`)

// codePattern extracts a storm code like "28W" or "09E" from an href/path.
var codePattern = regexp.MustCompile(`\b(\d{2}[WEPLSCAIB])\b`)

// Parse scans raw HTML (or plain text) index content and returns the
// distinct storm entries referenced. Placeholder/invest entries that carry
// no real name are kept with an empty Name; entries whose code maps to no
// known basin are skipped.
// discoveryBase is used only to populate Entry.HistoryURL.
func Parse(raw, discoveryBase string) ([]Entry, error) {
	seen := make(map[string]Entry)

	lines := strings.Split(raw, "\n")
	for _, line := range lines {
		codeMatch := codePattern.FindStringSubmatch(line)
		if codeMatch == nil {
			continue
		}

		code := strings.ToUpper(codeMatch[1])

		basin, ok := model.BasinFromUpstreamCode(code)
		if !ok {
			continue
		}

		name := ""
		if nameMatch := stormLinkPattern.FindStringSubmatch(line); nameMatch != nil {
			name = stripDisplayName(nameMatch[1], code)
		}

		if existing, ok := seen[code]; ok && existing.Name != "" {
			continue
		}

		seen[code] = Entry{Code: code, Name: name, Basin: basin, HistoryURL: HistoryURL(discoveryBase, code)}
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: no storm codes found", ErrNoEntries)
	}

	entries := make([]Entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}

	return entries, nil
}

// stripDisplayName normalizes an upstream display name: it drops a leading
// repeat of the storm's own code (some upstream pages render
// "Typhoon 28W YINXING", putting the code between the intensity class and
// the name), uppercases what remains, and discards placeholder names per
// model.PlaceholderNames.
func stripDisplayName(raw, code string) string {
	fields := strings.Fields(raw)
	if len(fields) > 1 && strings.EqualFold(fields[0], code) {
		fields = fields[1:]
	}

	name := strings.ToUpper(strings.Join(fields, " "))
	if model.PlaceholderNames[name] {
		return ""
	}

	return name
}
