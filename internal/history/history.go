package history

import "github.com/cyclonewatch/stormtrack/internal/model"

// Parse dispatches to the basin-appropriate adapter: the CIMSS/ADT
// free-format extractor for the Southern Hemisphere and Indian Ocean
// basins (served from the CIMSS origin), the shared-primitives standard
// adapter otherwise.
func Parse(basin model.Basin, raw string) ([]model.Advisory, Report) {
	switch basin {
	case model.BasinSH, model.BasinIO:
		return ParseCIMSS(raw)
	default:
		return ParseStandard(raw)
	}
}
