package lead

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EnvelopeKey wraps the record in the outbound payload.
const EnvelopeKey = "lead"

type envelope struct {
	Lead *Record `json:"lead"`
}

// Envelope encodes rec as {"lead": {...}}.
func Envelope(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("lead: nil record")
	}
	body, err := json.Marshal(envelope{Lead: rec})
	if err != nil {
		return nil, fmt.Errorf("lead: encode envelope: %w", err)
	}
	return body, nil
}

// OpenEnvelope decodes a payload produced by Envelope.
func OpenEnvelope(body []byte) (*Record, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("lead: decode envelope: %w", err)
	}
	if env.Lead == nil {
		return nil, errors.New("lead: envelope has no lead")
	}
	return env.Lead, nil
}
