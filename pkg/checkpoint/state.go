package checkpoint

// Checkpointable is implemented by a scheduler job that can persist and
// restore its own resume state (e.g. the discovery job's last-seen index
// page, or the history parser's last-consumed line offset).
type Checkpointable interface {
	SaveCheckpoint(dir string) error
	LoadCheckpoint(dir string) error
}

// ResumeState carries the small amount of cross-job bookkeeping that
// survives a scheduler restart: the last discovery cycle's cursor and the
// set of storm keys known to be active at that point.
type ResumeState struct {
	LastDiscoveryCursor string   `json:"last_discovery_cursor"`
	KnownStormKeys      []string `json:"known_storm_keys"`
}

// Metadata describes a saved checkpoint: which source it covers, which jobs
// contributed state, and when it was written.
type Metadata struct {
	Version     int         `json:"version"`
	SourceKey   string      `json:"source_key"`
	SourceHash  string      `json:"source_hash"`
	CreatedAt   string      `json:"created_at"`
	Jobs        []string    `json:"jobs"`
	ResumeState ResumeState `json:"resume_state"`
	Checksums   map[string]string `json:"checksums"`
}
