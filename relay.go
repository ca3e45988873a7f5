package leadcapture

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/exo-addons/leadcapture/lead"
	"github.com/exo-addons/leadcapture/observability"
	"github.com/exo-addons/leadcapture/transport"
)

// Failure reasons recorded in leadcapture_leads_failed_total.
const (
	reasonConfiguration = "configuration"
	reasonInvalid       = "invalid_lead"
	reasonUnauthorized  = "unauthorized"
	reasonConnection    = "connection"
	reasonServer        = "server"
)

// Config returns the configuration the Relay was built with.
func (r *Relay) Config() Config {
	return r.config
}

// SendLead POSTs rec to the lead capture server as {"lead": {...}}.
//
// The critical path:
//  1. Reject the call if the server URL or token is missing (no request is made).
//  2. Encode the envelope and validate it against the envelope schema.
//  3. POST it once through the shared transport client.
//  4. Map the classified outcome to nil or a typed error.
//
// userID only labels logs and spans.
func (r *Relay) SendLead(ctx context.Context, userID string, rec *lead.Record) (err error) {
	if r.tracer != nil {
		var span trace.Span
		ctx, span = r.tracer.StartSendSpan(ctx, userID)
		defer func() { observability.EndSpan(span, err) }()
	}

	if err := r.config.Validate(); err != nil {
		r.recordFailure(reasonConfiguration)
		return err
	}

	body, err := lead.Envelope(rec)
	if err != nil {
		r.recordFailure(reasonInvalid)
		return fmt.Errorf("%w: %s", ErrInvalidLead, err.Error())
	}
	if err := r.validator.Validate(body); err != nil {
		r.recordFailure(reasonInvalid)
		return fmt.Errorf("%w: %s", ErrInvalidLead, err.Error())
	}

	out, err := r.poster.Post(ctx, r.config.Endpoint(), body, r.config.Token)
	if err != nil {
		r.recordFailure(reasonConnection)
		var connErr *transport.ConnectionError
		if errors.As(err, &connErr) {
			return &ConnectionError{Err: err}
		}
		return fmt.Errorf("leadcapture: post lead: %w", err)
	}

	switch out.Kind {
	case transport.Success:
		if r.metrics != nil {
			r.metrics.LeadsSentTotal.Inc()
		}
		r.logger.InfoContext(ctx, "lead has been sent to the lead capture server",
			"user_id", userID,
			"mail", rec.Mail(),
			"status", out.StatusCode,
		)
		return nil

	case transport.NotFound:
		r.recordFailure(reasonUnauthorized)
		return fmt.Errorf("%w: server answered %d", ErrUnauthorized, out.StatusCode)

	default:
		r.recordFailure(reasonServer)
		return &ServerError{StatusCode: out.StatusCode, Message: out.Message}
	}
}

func (r *Relay) recordFailure(reason string) {
	if r.metrics != nil {
		r.metrics.RecordFailure(reason)
	}
}

// Close releases idle pooled connections. In-flight sends are not affected.
func (r *Relay) Close() {
	if c, ok := r.poster.(*transport.Client); ok {
		c.CloseIdleConnections()
	}
}
