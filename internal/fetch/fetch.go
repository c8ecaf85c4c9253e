// Package fetch retrieves upstream advisory, A-Deck, and history-deck
// resources with conditional GET, per-origin rate limiting, circuit
// breaking, and bounded retry, per the fetcher's contract.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/semaphore"

	"github.com/cyclonewatch/stormtrack/pkg/cache"
)

// Outcome classifies the result of a single fetch attempt.
type Outcome int

// Recognized outcomes.
const (
	OutcomeNotModified Outcome = iota
	OutcomeFetched
	OutcomeNotFound
	OutcomeTransient
	OutcomePermanent
)

// Result is the terminal outcome of Fetcher.Get for one URL.
type Result struct {
	Outcome Outcome
	Body    []byte
	Err     error
}

// UserAgent is the courtesy identification string sent with every request.
const UserAgent = "stormtrack/1.0 (+https://cyclonewatch.example/bot)"

var (
	// ErrPermanent wraps a non-retryable upstream response (4xx other than 404/429).
	ErrPermanent = errors.New("permanent fetch failure")
	// ErrRateLimited is returned when the per-origin semaphore could not be acquired.
	ErrRateLimited = errors.New("origin rate limit exceeded")
)

// Fetcher performs conditional-GET retrieval of upstream resources, one
// origin (scheme+host) rate-limited and circuit-broken independently of the
// others.
type Fetcher struct {
	client     *http.Client
	validators *cache.ValidatorCache

	origins map[string]*originState
}

type originState struct {
	sem     *semaphore.Weighted
	breaker *gobreaker.CircuitBreaker
}

// Config controls per-origin politeness and retry behavior.
type Config struct {
	RateLimitPerOrigin int
	BackoffBase        time.Duration
	BackoffMaxRetries  int
	RequestTimeout     time.Duration
}

// New constructs a Fetcher backed by validators for conditional-GET
// short-circuiting.
func New(cfg Config, validators *cache.ValidatorCache) *Fetcher {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	return &Fetcher{
		client:     &http.Client{Timeout: cfg.RequestTimeout},
		validators: validators,
		origins:    make(map[string]*originState),
	}
}

func (f *Fetcher) originFor(rawURL string, cfg Config) (*originState, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse fetch url: %w", err)
	}

	key := parsed.Scheme + "://" + parsed.Host

	state, ok := f.origins[key]
	if !ok {
		limit := int64(cfg.RateLimitPerOrigin)
		if limit < 1 {
			limit = 1
		}

		state = &originState{
			sem: semaphore.NewWeighted(limit),
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:        key,
				MaxRequests: 1,
				Interval:    60 * time.Second,
				Timeout:     30 * time.Second,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= 5
				},
			}),
		}
		f.origins[key] = state
	}

	return state, nil
}

// Get retrieves rawURL, sending conditional-GET headers from the validator
// cache when available, retrying transient failures with exponential
// backoff, and tripping a per-origin circuit breaker on sustained failure.
func (f *Fetcher) Get(ctx context.Context, rawURL string, cfg Config) Result {
	origin, err := f.originFor(rawURL, cfg)
	if err != nil {
		return Result{Outcome: OutcomePermanent, Err: err}
	}

	if !origin.sem.TryAcquire(1) {
		return Result{Outcome: OutcomeTransient, Err: ErrRateLimited}
	}
	defer origin.sem.Release(1)

	base := cfg.BackoffBase
	if base == 0 {
		base = time.Second
	}

	maxRetries := uint(cfg.BackoffMaxRetries)
	if maxRetries == 0 {
		maxRetries = 3
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = base
	policy.Multiplier = 2

	op := func() (Result, error) {
		raw, breakerErr := origin.breaker.Execute(func() (interface{}, error) {
			return f.doRequest(ctx, rawURL)
		})
		if breakerErr != nil {
			if errors.Is(breakerErr, gobreaker.ErrOpenState) || errors.Is(breakerErr, gobreaker.ErrTooManyRequests) {
				return Result{}, breakerErr
			}

			return Result{}, breakerErr
		}

		result, _ := raw.(Result)
		if result.Outcome == OutcomeTransient {
			return Result{}, fmt.Errorf("transient: %w", result.Err)
		}

		return result, nil
	}

	result, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(maxRetries+1))
	if err != nil {
		return Result{Outcome: OutcomeTransient, Err: err}
	}

	return result
}

func (f *Fetcher) doRequest(ctx context.Context, rawURL string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{Outcome: OutcomePermanent, Err: err}, nil
	}

	req.Header.Set("User-Agent", UserAgent)

	if cached := f.validators.Get(rawURL); cached != nil {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}

		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{Outcome: OutcomeTransient, Err: err}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return Result{Outcome: OutcomeNotModified}, nil

	case resp.StatusCode == http.StatusNotFound:
		return Result{Outcome: OutcomeNotFound, Err: fmt.Errorf("%s: not found", rawURL)}, nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return Result{Outcome: OutcomeTransient, Err: fmt.Errorf("%s: status %d", rawURL, resp.StatusCode)},
			fmt.Errorf("status %d", resp.StatusCode)

	case resp.StatusCode >= 400:
		return Result{Outcome: OutcomePermanent,
			Err: fmt.Errorf("%w: %s: status %d", ErrPermanent, rawURL, resp.StatusCode)}, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return Result{Outcome: OutcomeTransient, Err: readErr}, readErr
		}

		f.validators.Put(rawURL, &cache.Validator{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			Body:         body,
		})

		return Result{Outcome: OutcomeFetched, Body: body}, nil

	default:
		return Result{Outcome: OutcomeTransient, Err: fmt.Errorf("%s: unexpected status %d", rawURL, resp.StatusCode)},
			fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
