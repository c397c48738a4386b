// Package spotify implements the music catalog on top of the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"

	"github.com/justestif/go-release-radar/internal/metrics"
)

const breakerName = "spotify-api"

// Default outbound request budget.
const (
	DefaultRPS   = 10
	DefaultBurst = 10
)

// Client wraps the Spotify API client with rate limiting and a circuit breaker.
type Client struct {
	api     *spotify.Client
	cb      *gobreaker.CircuitBreaker[any]
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit sets the outbound request rate.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l.With().Str("component", "catalog").Logger()
	}
}

// New creates a catalog client. The underlying client must already carry
// authorization.
func New(api *spotify.Client, opts ...Option) *Client {
	c := &Client{
		api:     api,
		limiter: rate.NewLimiter(DefaultRPS, DefaultBurst),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cb = newBreaker(c.logger)
	return c
}

// NewWithHTTPClient creates a catalog client from an authorizing HTTP client.
// baseURL overrides the API root when non-empty and must end in "/".
func NewWithHTTPClient(httpClient *http.Client, baseURL string, opts ...Option) *Client {
	clientOpts := []spotify.ClientOption{spotify.WithRetry(true)}
	if baseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(baseURL))
	}
	return New(spotify.New(httpClient, clientOpts...), opts...)
}

// newBreaker opens after at least 10 requests in a minute with a 60%
// failure rate, and probes again after 30 seconds.
func newBreaker(logger zerolog.Logger) *gobreaker.CircuitBreaker[any] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// execute runs one API call behind the limiter and the breaker.
func execute[T any](ctx context.Context, c *Client, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.CatalogRequests.WithLabelValues(op, "throttled").Inc()
		return zero, fmt.Errorf("waiting for rate limit: %w", err)
	}

	start := time.Now()
	res, err := c.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	metrics.CatalogRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		status := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			status = "rejected"
		}
		metrics.CatalogRequests.WithLabelValues(op, status).Inc()
		return zero, err
	}

	metrics.CatalogRequests.WithLabelValues(op, "ok").Inc()
	return res.(T), nil
}
