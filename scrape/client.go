// Package scrape fetches provider pages and extracts the structured payload
// embedded in them.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/etnz/allocation"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second
	maxBodySize      = 16 << 20
	userAgent        = "pal/1 (+https://github.com/etnz/allocation)"
)

// Client fetches pages from a single provider.
//
// Every request has its own timeout, requests are rate limited, and a circuit
// breaker stops dialing a provider that cannot be reached. A page that fails
// (server error, timeout) only fails that page. A 404 is reported as
// allocation.ErrNotFound.
type Client struct {
	name       string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout of each request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRateLimit sets the maximum number of requests per second, 0 disables it.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithHTTPClient sets the underlying http client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a Client for the provider called name.
func New(name string, opts ...Option) *Client {
	c := &Client{
		name:       name,
		httpClient: new(http.Client),
		timeout:    DefaultTimeout,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: time.Minute,
		Timeout:  time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool { return !unreachable(err) },
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("source", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
		},
	})
	return c
}

// Get returns the body of the page at addr.
func (c *Client) Get(ctx context.Context, addr string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("cannot http GET %s: %w", addr, err)
	}
	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, addr)
	})
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

func (c *Client) get(ctx context.Context, addr string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot create http request %q: %w", addr, err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot http GET %s: %w", addr, err)
	}
	defer resp.Body.Close()
	c.logger.Debug().
		Str("source", c.name).
		Str("url", addr).
		Str("status", resp.Status).
		Dur("elapsed", time.Since(start)).
		Msg("GET")

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("GET %s: %w", addr, allocation.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	// pages are decoded to UTF-8 whatever their declared charset.
	r, err := charset.NewReader(io.LimitReader(resp.Body, maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", addr, err)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read http body of %s: %w", addr, err)
	}
	return body, nil
}

// unreachable reports errors that any page of the provider would get: the
// host cannot be resolved or connected to. Timeouts are not among them.
func unreachable(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) || opErr.Op != "dial" {
		return false
	}
	return !opErr.Timeout()
}
