package discovery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/internal/discovery"
	"github.com/cyclonewatch/stormtrack/internal/model"
)

const sample = `
<li><a href="/storm/28W">Typhoon KROVANH</a></li>
<li><a href="/storm/09E">Tropical Storm ELIDA</a></li>
<li><a href="/storm/99X">Invest 99X</a></li>
<li><a href="/storm/14L">Hurricane INVEST</a></li>
`

func TestParse_ExtractsKnownBasinEntries(t *testing.T) {
	t.Parallel()

	entries, err := discovery.Parse(sample, "https://www.nhc.noaa.gov")
	require.NoError(t, err)

	byCode := make(map[string]discovery.Entry)
	for _, e := range entries {
		byCode[e.Code] = e
	}

	require.Contains(t, byCode, "28W")
	assert.Equal(t, model.BasinWP, byCode["28W"].Basin)
	assert.Equal(t, "KROVANH", byCode["28W"].Name)
	assert.Equal(t, "https://www.nhc.noaa.gov/28W-list.txt", byCode["28W"].HistoryURL)

	require.Contains(t, byCode, "09E")
	assert.Equal(t, "ELIDA", byCode["09E"].Name)

	require.Contains(t, byCode, "14L")
	assert.Empty(t, byCode["14L"].Name)

	assert.NotContains(t, byCode, "99X")
}

func TestParse_StripsRepeatedCodeFromName(t *testing.T) {
	t.Parallel()

	const withRepeatedCode = `<li><a href="/storm/28W">Typhoon 28W YINXING</a></li>`

	entries, err := discovery.Parse(withRepeatedCode, "https://www.nhc.noaa.gov")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "28W", entries[0].Code)
	assert.Equal(t, "YINXING", entries[0].Name)
}

func TestParse_NoEntries(t *testing.T) {
	t.Parallel()

	_, err := discovery.Parse("nothing interesting here", "https://www.nhc.noaa.gov")
	require.ErrorIs(t, err, discovery.ErrNoEntries)
}
