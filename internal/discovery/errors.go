package discovery

import "errors"

// ErrNoEntries is returned when the index page yields no recognizable
// storm entries at all. A quiet season and an upstream HTML change the
// parser no longer recognizes both produce it; DiscoverJob treats it as an
// empty, successful cycle.
var ErrNoEntries = errors.New("discovery: no storm entries parsed")
