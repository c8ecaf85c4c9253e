// Package checkpoint persists scheduler resume state to disk so a restarted
// process can pick discovery and fetch jobs back up instead of rescanning
// upstream origins from scratch.
package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cyclonewatch/stormtrack/pkg/persist"
)

// metadataBasename names the metadata file within a checkpoint directory,
// via persist's Codec.Extension-derived filename (see persist.SaveState).
const metadataBasename = "checkpoint"

// MetadataVersion is the current checkpoint metadata format version.
const MetadataVersion = 1

// Sentinel errors for checkpoint validation.
var (
	ErrSourceMismatch = errors.New("source key mismatch")
	ErrJobMismatch    = errors.New("job set mismatch")
)

// DefaultDir returns the default checkpoint directory (~/.stormtrack/checkpoints).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return filepath.Join(home, ".stormtrack", "checkpoints")
}

// SourceHash computes a short hash of a source key (e.g. a basin name or
// upstream origin URL) for use as a directory name.
func SourceHash(sourceKey string) string {
	h := sha256.Sum256([]byte(sourceKey))

	return hex.EncodeToString(h[:8])
}

// Default retention values.
const (
	DefaultMaxAge  = 7 * 24 * time.Hour
	DefaultMaxSize = 1 << 30
)

const dirPerm = 0o750

// Manager coordinates checkpoints across scheduler jobs for one source key.
type Manager struct {
	BaseDir    string
	SourceHash string
	MaxAge     time.Duration
	MaxSize    int64
}

// NewManager creates a new checkpoint manager.
func NewManager(baseDir, sourceHash string) *Manager {
	return &Manager{
		BaseDir:    baseDir,
		SourceHash: sourceHash,
		MaxAge:     DefaultMaxAge,
		MaxSize:    DefaultMaxSize,
	}
}

// CheckpointDir returns the directory for this source's checkpoint.
func (m *Manager) CheckpointDir() string {
	return filepath.Join(m.BaseDir, m.SourceHash)
}

// MetadataPath returns the path to the metadata file.
func (m *Manager) MetadataPath() string {
	return filepath.Join(m.CheckpointDir(), metadataBasename+persist.NewJSONCodec().Extension())
}

// Exists returns true if a valid checkpoint exists.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.MetadataPath())

	return err == nil
}

// Clear removes the checkpoint for the current source.
func (m *Manager) Clear() error {
	cpDir := m.CheckpointDir()

	_, statErr := os.Stat(cpDir)
	if os.IsNotExist(statErr) {
		return nil
	}

	err := os.RemoveAll(cpDir)
	if err != nil {
		return fmt.Errorf("remove checkpoint dir: %w", err)
	}

	return nil
}

// Save writes checkpoint state for every job plus shared resume metadata.
func (m *Manager) Save(
	checkpointables []Checkpointable,
	state ResumeState,
	sourceKey string,
	jobNames []string,
) error {
	cpDir := m.CheckpointDir()

	err := os.MkdirAll(cpDir, dirPerm)
	if err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	for i, cp := range checkpointables {
		jobDir := filepath.Join(cpDir, fmt.Sprintf("job_%d", i))

		mkdirErr := os.MkdirAll(jobDir, dirPerm)
		if mkdirErr != nil {
			return fmt.Errorf("create job dir: %w", mkdirErr)
		}

		saveErr := cp.SaveCheckpoint(jobDir)
		if saveErr != nil {
			return fmt.Errorf("save checkpoint for job %d: %w", i, saveErr)
		}
	}

	meta := Metadata{
		Version:     MetadataVersion,
		SourceKey:   sourceKey,
		SourceHash:  m.SourceHash,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Jobs:        jobNames,
		ResumeState: state,
		Checksums:   map[string]string{},
	}

	saveErr := persist.SaveState(cpDir, metadataBasename, persist.NewJSONCodec(), &meta)
	if saveErr != nil {
		return fmt.Errorf("save checkpoint metadata: %w", saveErr)
	}

	return nil
}

// LoadMetadata loads the checkpoint metadata.
func (m *Manager) LoadMetadata() (*Metadata, error) {
	var meta Metadata

	err := persist.LoadState(m.CheckpointDir(), metadataBasename, persist.NewJSONCodec(), &meta)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint metadata: %w", err)
	}

	return &meta, nil
}

// Load restores state for all checkpointable jobs.
func (m *Manager) Load(checkpointables []Checkpointable) (*ResumeState, error) {
	meta, err := m.LoadMetadata()
	if err != nil {
		return nil, err
	}

	cpDir := m.CheckpointDir()

	for i, cp := range checkpointables {
		jobDir := filepath.Join(cpDir, fmt.Sprintf("job_%d", i))

		loadErr := cp.LoadCheckpoint(jobDir)
		if loadErr != nil {
			return nil, fmt.Errorf("load checkpoint for job %d: %w", i, loadErr)
		}
	}

	return &meta.ResumeState, nil
}

// Validate checks if the checkpoint is valid for the given parameters.
func (m *Manager) Validate(sourceKey string, jobNames []string) error {
	meta, err := m.LoadMetadata()
	if err != nil {
		return err
	}

	if meta.SourceKey != sourceKey {
		return fmt.Errorf("%w: checkpoint has %q, got %q", ErrSourceMismatch, meta.SourceKey, sourceKey)
	}

	if !stringSlicesEqual(meta.Jobs, jobNames) {
		return fmt.Errorf("%w: checkpoint has %v, got %v", ErrJobMismatch, meta.Jobs, jobNames)
	}

	return nil
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
