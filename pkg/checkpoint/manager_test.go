package checkpoint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/pkg/checkpoint"
)

type fakeJob struct {
	saved, loaded string
}

func (f *fakeJob) SaveCheckpoint(dir string) error { f.saved = dir; return nil }
func (f *fakeJob) LoadCheckpoint(dir string) error { f.loaded = dir; return nil }

func TestManager_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	mgr := checkpoint.NewManager(t.TempDir(), checkpoint.SourceHash("EP"))
	job := &fakeJob{}

	state := checkpoint.ResumeState{
		LastDiscoveryCursor: "2026-07-31T00:00:00Z",
		KnownStormKeys:      []string{"EP012026"},
	}

	require.NoError(t, mgr.Save([]checkpoint.Checkpointable{job}, state, "EP", []string{"discovery"}))
	assert.True(t, mgr.Exists())

	restored, err := mgr.Load([]checkpoint.Checkpointable{job})
	require.NoError(t, err)
	assert.Equal(t, state, *restored)
	assert.NotEmpty(t, job.loaded)
}

func TestManager_ValidateDetectsSourceMismatch(t *testing.T) {
	t.Parallel()

	mgr := checkpoint.NewManager(t.TempDir(), checkpoint.SourceHash("EP"))
	require.NoError(t, mgr.Save(nil, checkpoint.ResumeState{}, "EP", []string{"discovery"}))

	err := mgr.Validate("WP", []string{"discovery"})
	require.ErrorIs(t, err, checkpoint.ErrSourceMismatch)
}
