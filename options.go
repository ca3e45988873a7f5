package leadcapture

import (
	"context"
	"log/slog"

	"github.com/exo-addons/leadcapture/lead"
	"github.com/exo-addons/leadcapture/observability"
	"github.com/exo-addons/leadcapture/transport"
)

// Poster issues one authenticated POST and classifies the response.
// *transport.Client is the production implementation.
type Poster interface {
	Post(ctx context.Context, endpoint string, body []byte, token string) (transport.Outcome, error)
}

// Relay sends leads to the lead capture server. It is safe for concurrent use.
type Relay struct {
	config    Config
	poster    Poster
	validator *lead.Validator
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	logger    *slog.Logger
}

// Option configures a Relay instance.
type Option func(*Relay) error

// New creates a new Relay with the given options. Unless WithPoster is given,
// the pooled transport client is built here and shared by every send.
// A Relay without a server URL or token is still created; SendLead reports
// the missing setting on each call.
func New(opts ...Option) (*Relay, error) {
	r := &Relay{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.validator == nil {
		v, err := lead.NewValidator()
		if err != nil {
			return nil, err
		}
		r.validator = v
	}
	if r.poster == nil {
		r.poster = transport.New(r.config.Transport,
			transport.WithLogger(r.logger),
			transport.WithMetrics(r.metrics),
			transport.WithTracer(r.tracer),
		)
	}
	if err := r.config.Validate(); err != nil {
		r.logger.Warn("lead capture relay is not configured, leads will not be sent", "error", err)
	}
	return r, nil
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(r *Relay) error {
		r.config = cfg
		return nil
	}
}

// WithServerURL sets the lead capture server base URL.
func WithServerURL(serverURL string) Option {
	return func(r *Relay) error {
		r.config.ServerURL = serverURL
		return nil
	}
}

// WithToken sets the static authentication token.
func WithToken(token string) Option {
	return func(r *Relay) error {
		r.config.Token = token
		return nil
	}
}

// WithTransportConfig sets the connection pool settings. It has no effect
// when WithPoster is also given.
func WithTransportConfig(cfg transport.Config) Option {
	return func(r *Relay) error {
		r.config.Transport = cfg
		return nil
	}
}

// WithPoster replaces the pooled transport client.
func WithPoster(p Poster) Option {
	return func(r *Relay) error {
		r.poster = p
		return nil
	}
}

// WithValidator replaces the default envelope validator.
func WithValidator(v *lead.Validator) Option {
	return func(r *Relay) error {
		r.validator = v
		return nil
	}
}

// WithLogger sets the structured logger for the Relay instance.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) error {
		r.logger = logger
		return nil
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Relay) error {
		r.metrics = m
		return nil
	}
}

// WithTracer enables OpenTelemetry spans.
func WithTracer(t *observability.Tracer) Option {
	return func(r *Relay) error {
		r.tracer = t
		return nil
	}
}
