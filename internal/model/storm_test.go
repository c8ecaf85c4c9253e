package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyclonewatch/stormtrack/internal/model"
)

func TestBasinFromUpstreamCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code string
		want model.Basin
		ok   bool
	}{
		{"28W", model.BasinWP, true},
		{"09E", model.BasinEP, true},
		{"14L", model.BasinAL, true},
		{"02C", model.BasinCP, true},
		{"11S", model.BasinSH, true},
		{"05A", model.BasinIO, true},
		{"", "", false},
		{"99Z", "", false},
	}

	for _, tc := range cases {
		got, ok := model.BasinFromUpstreamCode(tc.code)
		assert.Equal(t, tc.ok, ok, tc.code)
		assert.Equal(t, tc.want, got, tc.code)
	}
}

func TestPlaceholderNames(t *testing.T) {
	t.Parallel()

	assert.True(t, model.PlaceholderNames["INVEST"])
	assert.False(t, model.PlaceholderNames["KATRINA"])
}
