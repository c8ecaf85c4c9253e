package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/pkg/cache"
)

func TestValidatorCache_GetPutRoundTrip(t *testing.T) {
	t.Parallel()

	c := cache.NewValidatorCache(1024)
	c.Put("https://example.test/adeck/aep012026.dat", &cache.Validator{
		ETag: `"abc123"`,
		Body: []byte("AP01, line"),
	})

	got := c.Get("https://example.test/adeck/aep012026.dat")
	require.NotNil(t, got)
	assert.Equal(t, `"abc123"`, got.ETag)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
}

func TestValidatorCache_MissRecordsMiss(t *testing.T) {
	t.Parallel()

	c := cache.NewValidatorCache(1024)
	got := c.Get("https://example.test/missing")
	assert.Nil(t, got)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestValidatorCache_EvictsUnderPressure(t *testing.T) {
	t.Parallel()

	c := cache.NewValidatorCache(10)
	c.Put("a", &cache.Validator{Body: make([]byte, 6)})
	c.Put("b", &cache.Validator{Body: make([]byte, 6)})

	stats := c.Stats()
	assert.LessOrEqual(t, stats.CurrentSize, int64(10))
}
