// Package transport issues authenticated JSON POSTs to the lead capture
// server over a pooled HTTP/1.1 connection manager and classifies the
// responses.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/exo-addons/leadcapture/observability"
	"github.com/exo-addons/leadcapture/ratelimit"
)

// TokenHeader carries the static authentication token.
const TokenHeader = "token"

// Client performs single authenticated POSTs. It is created once and shared;
// all methods are safe for concurrent use.
type Client struct {
	http    *http.Client
	pool    *http.Transport
	limiter *ratelimit.Limiter
	metrics *observability.Metrics
	tracer  *observability.Tracer
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics records every POST in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracer wraps every POST in a client span.
func WithTracer(t *observability.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithHTTPClient replaces the pooled client, for callers that bring their own
// transport (proxies, custom TLS). Pool settings from Config are then ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
		c.pool = nil
	}
}

// New creates a Client whose pool keeps connections alive across requests and
// never opens more than cfg.MaxConnsPerRoute connections to one destination.
func New(cfg Config, opts ...Option) *Client {
	cfg = cfg.withDefaults()

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	pool := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerRoute,
		MaxConnsPerHost:       cfg.MaxConnsPerRoute,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c := &Client{
		http: &http.Client{
			Transport: pool,
			Timeout:   cfg.RequestTimeout,
		},
		pool:    pool,
		limiter: ratelimit.New(cfg.RateLimit),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post sends body as JSON to endpoint with the token header and classifies the
// response. A non-nil error is always a *ConnectionError, except for an
// unparsable endpoint.
func (c *Client) Post(ctx context.Context, endpoint string, body []byte, token string) (Outcome, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return Outcome{}, fmt.Errorf("transport: invalid endpoint %q: %w", endpoint, err)
	}

	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.StartPostSpan(ctx, endpoint)
	}

	var out Outcome
	if err = c.limiter.Wait(ctx, u.Host); err != nil {
		out, err = Outcome{Kind: Error}, &ConnectionError{Endpoint: endpoint, Err: err}
	} else {
		out, err = c.do(ctx, u.String(), body, token)
	}

	label := out.Kind.String()
	if err != nil {
		label = "connection_error"
	}
	if span != nil {
		c.tracer.EndPostSpan(span, out.StatusCode, label, err)
	}
	if c.metrics != nil {
		c.metrics.RecordPost(label, out.Latency.Seconds())
	}
	c.logger.DebugContext(ctx, "lead capture post",
		"status", out.StatusCode,
		"outcome", label,
		"latency_ms", out.Latency.Milliseconds(),
	)

	return out, err
}

func (c *Client) do(ctx context.Context, endpoint string, body []byte, token string) (Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Outcome{}, &ConnectionError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TokenHeader, token)

	start := time.Now()
	resp, err := c.http.Do(req) //nolint:gosec // endpoint comes from process configuration
	if err != nil {
		return Outcome{Kind: Error, Latency: time.Since(start)}, &ConnectionError{Endpoint: endpoint, Err: err}
	}
	defer drainAndClose(resp.Body)

	out, readErr := Classify(resp)
	out.Latency = time.Since(start)
	if readErr != nil {
		return out, &ConnectionError{Endpoint: endpoint, Err: readErr}
	}
	return out, nil
}

// CloseIdleConnections releases pooled connections that are not in use.
func (c *Client) CloseIdleConnections() {
	if c.pool != nil {
		c.pool.CloseIdleConnections()
		return
	}
	c.http.CloseIdleConnections()
}

// drainAndClose empties the body so the connection can go back to the pool.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseBody))
	_ = body.Close()
}
