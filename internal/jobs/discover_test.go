package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverJob_KnownStormsEmptyByDefault(t *testing.T) {
	t.Parallel()

	j := NewDiscoverJob(&Deps{})
	assert.Empty(t, j.KnownStorms())
}

func TestDiscoverJob_CheckpointRoundTrip(t *testing.T) {
	t.Parallel()

	saver := NewDiscoverJob(&Deps{})
	saver.known = []string{"14L", "28W"}

	loader := NewDiscoverJob(&Deps{})

	dir := t.TempDir()

	require.NoError(t, saver.SaveCheckpoint(dir))
	require.NoError(t, loader.LoadCheckpoint(dir))

	assert.Equal(t, []string{"14L", "28W"}, loader.KnownStorms())
}
