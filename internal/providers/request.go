// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/cinemind/cinemind/internal/logging"
	"github.com/cinemind/cinemind/internal/metrics"
)

// apiClient is the shared HTTP plumbing used by every provider client:
// rate limiting, circuit breaking, 429 retry with backoff, and metrics.
type apiClient struct {
	name       string
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[any]
}

// newAPIClient builds the plumbing for one provider. The breaker opens after
// a 60% failure rate over at least 10 requests and probes recovery after two
// minutes, mirroring the gauge states exported by the metrics package.
func newAPIClient(name string, limit rate.Limit, burst int, timeout time.Duration) *apiClient {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().
					Str("provider", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("circuit breaker opening")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("provider", name).
				Str("from", breakerStateString(from)).
				Str("to", breakerStateString(to)).
				Msg("circuit breaker state change")
			metrics.SetBreakerState(name, breakerStateFloat(to))
		},
	})

	return &apiClient{
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		cb:         cb,
	}
}

// requestConfig describes one upstream request.
type requestConfig struct {
	// operation labels the call in metrics, e.g. "details", "related".
	operation string
	method    string
	url       string
	query     url.Values
	headers   map[string]string
	body      any // marshaled to JSON when non-nil
}

// doJSON executes the request through the limiter and breaker, retries on
// HTTP 429, and decodes the JSON response into result. A 404 maps to
// ErrNotFound so callers can distinguish dead identifiers from outages.
func (c *apiClient) doJSON(ctx context.Context, cfg requestConfig, result any) error {
	start := time.Now()

	_, err := c.cb.Execute(func() (any, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return nil, c.doOnce(ctx, cfg, result)
	})

	status := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "rejected"
		metrics.CircuitBreakerRejections.WithLabelValues(c.name).Inc()
	case errors.Is(err, errRateLimited):
		status = "rate_limited"
	case err != nil:
		status = "error"
	}
	metrics.RecordProviderRequest(c.name, cfg.operation, status, time.Since(start))

	return err
}

var errRateLimited = errors.New("rate limit exceeded")

// doOnce performs the HTTP exchange, retrying up to maxRetries times on 429
// with exponential backoff, honoring Retry-After when present.
func (c *apiClient) doOnce(ctx context.Context, cfg requestConfig, result any) error {
	const maxRetries = 3
	baseDelay := time.Second

	var bodyBytes []byte
	if cfg.body != nil {
		var err error
		bodyBytes, err = json.Marshal(cfg.body)
		if err != nil {
			return fmt.Errorf("%s: marshal request body: %w", c.name, err)
		}
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, cfg.method, cfg.url, bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("%s: create request: %w", c.name, err)
		}
		if len(cfg.query) > 0 {
			req.URL.RawQuery = cfg.query.Encode()
		}
		req.Header.Set("Accept", "application/json")
		if cfg.body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range cfg.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s: execute request: %w", c.name, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("%s: %w after %d retries", c.name, errRateLimited, maxRetries)
			}

			retryDelay := baseDelay * (1 << attempt)
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if d, err := time.ParseDuration(retryAfter + "s"); err == nil {
					retryDelay = d
				}
			}
			logging.Warn().
				Str("provider", c.name).
				Str("operation", cfg.operation).
				Dur("retry_delay", retryDelay).
				Int("attempt", attempt+1).
				Msg("rate limited, retrying")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
			continue
		}

		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: unexpected status: %d %s", c.name, resp.StatusCode, resp.Status)
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("%s: decode response: %w", c.name, err)
			}
		}
		return nil
	}
}

func breakerStateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
