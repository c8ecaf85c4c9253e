package observability

import "log/slog"

// AppMode distinguishes the runtime posture of the process for resource attribution.
type AppMode string

// Recognized application modes.
const (
	ModeServe    AppMode = "serve"
	ModeAdminCLI AppMode = "admin-cli"
)

// defaultShutdownTimeoutSec bounds how long Shutdown waits for exporters to flush.
const defaultShutdownTimeoutSec = 5

// Config controls how Init wires tracing, metrics, and logging.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLPEndpoint is the collector gRPC endpoint. Empty disables OTLP
	// export: tracing falls back to a no-op tracer provider, and metrics go
	// only to the always-attached Prometheus reader.
	OTLPEndpoint string
	OTLPInsecure bool
	OTLPHeaders  map[string]string

	SampleRatio float64
	DebugTrace  bool

	LogLevel slog.Level
	LogJSON  bool

	ShutdownTimeoutSec int
}
