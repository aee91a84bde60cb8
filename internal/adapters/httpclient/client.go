// Package httpclient is the outbound HTTP adapter used for service-to-service calls.
//
// Requests are traced with otelhttp and, when configured, pass through a gobreaker
// circuit breaker. Transport errors and 5xx responses count as failures; a 5xx
// response is still handed back to the caller.
package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/olivezebra/mensa-api/internal/platform/observability"
	"github.com/olivezebra/mensa-api/internal/ports/out/httpclient"
)

type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker; zero disables it.
	ConsecutiveFailures int
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
}

type Options struct {
	// Name labels logs, metrics and spans for this upstream.
	Name    string
	Breaker BreakerSettings
	Logger  *zap.Logger

	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper
}

// Client implements httpclient.Doer.
type Client struct {
	name   string
	http   *http.Client
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

var _ httpclient.Doer = (*Client)(nil)

// upstreamStatusError marks a 5xx response for the breaker without losing the response.
type upstreamStatusError struct {
	status int
}

func (e upstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.status)
}

func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	name := opts.Name
	if name == "" {
		name = "upstream"
	}

	c := &Client{
		name: name,
		http: &http.Client{
			Transport: otelhttp.NewTransport(base,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return name + " " + r.Method + " " + r.URL.Path
				}),
			),
		},
		logger: logger,
	}

	if opts.Breaker.ConsecutiveFailures > 0 {
		threshold := uint32(opts.Breaker.ConsecutiveFailures) //nolint:gosec // positive, from config
		c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     opts.Breaker.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Info("circuit breaker state change",
					zap.String("upstream", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
				observability.SetBreakerState(name, int(to))
			},
		})
		observability.SetBreakerState(name, int(gobreaker.StateClosed))
	}
	return c
}

// Do sends the request. When the breaker rejects the call the error wraps
// httpclient.ErrCircuitOpen and no request is sent.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.cb == nil {
		return c.http.Do(req)
	}

	var resp *http.Response
	_, err := c.cb.Execute(func() (interface{}, error) {
		r, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		resp = r
		if r.StatusCode >= http.StatusInternalServerError {
			return nil, upstreamStatusError{status: r.StatusCode}
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("circuit breaker rejected request",
				zap.String("upstream", c.name),
				zap.String("path", req.URL.Path),
			)
			return nil, fmt.Errorf("%s: %w", c.name, httpclient.ErrCircuitOpen)
		}
		var se upstreamStatusError
		if errors.As(err, &se) && resp != nil {
			return resp, nil
		}
		return nil, err
	}
	return resp, nil
}

// State reports the breaker state; a client without a breaker is always closed.
func (c *Client) State() gobreaker.State {
	if c.cb == nil {
		return gobreaker.StateClosed
	}
	return c.cb.State()
}
