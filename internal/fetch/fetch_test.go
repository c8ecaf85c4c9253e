package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/internal/fetch"
	"github.com/cyclonewatch/stormtrack/pkg/cache"
)

func TestFetcher_Get_FetchedThenNotModified(t *testing.T) {
	t.Parallel()

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)

			return
		}

		w.Header().Set("ETag", `"v1"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("AL, 14, 2026073100, ..."))
	}))
	defer srv.Close()

	validators := cache.NewValidatorCache(0)
	f := fetch.New(fetch.Config{RateLimitPerOrigin: 1, BackoffMaxRetries: 1}, validators)

	first := f.Get(context.Background(), srv.URL, fetch.Config{RateLimitPerOrigin: 1, BackoffMaxRetries: 1})
	require.Equal(t, fetch.OutcomeFetched, first.Outcome)

	second := f.Get(context.Background(), srv.URL, fetch.Config{RateLimitPerOrigin: 1, BackoffMaxRetries: 1})
	assert.Equal(t, fetch.OutcomeNotModified, second.Outcome)
	assert.Equal(t, 2, hits)
}

func TestFetcher_Get_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := fetch.New(fetch.Config{RateLimitPerOrigin: 1}, cache.NewValidatorCache(0))
	result := f.Get(context.Background(), srv.URL, fetch.Config{RateLimitPerOrigin: 1, BackoffMaxRetries: 1})

	assert.Equal(t, fetch.OutcomeNotFound, result.Outcome)
}
