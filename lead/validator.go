package lead

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "leadcapture://schema/envelope.json"

// EnvelopeSchema is the JSON Schema every outbound payload must satisfy. It
// checks the shape only: a lead object of string values. No field is required,
// a user without an email still produces a lead.
const EnvelopeSchema = `{
  "type": "object",
  "required": ["lead"],
  "properties": {
    "lead": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

// StrictEnvelopeSchema additionally requires a non-empty mail. Pass it to
// NewValidatorWithSchema for lead servers that reject leads without one.
const StrictEnvelopeSchema = `{
  "type": "object",
  "required": ["lead"],
  "properties": {
    "lead": {
      "type": "object",
      "required": ["mail"],
      "properties": {
        "mail": {"type": "string", "minLength": 1}
      },
      "additionalProperties": {"type": "string"}
    }
  }
}`

// Validator checks encoded envelopes against a compiled JSON Schema.
// It is safe for concurrent use.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles EnvelopeSchema.
func NewValidator() (*Validator, error) {
	return NewValidatorWithSchema([]byte(EnvelopeSchema))
}

// NewValidatorWithSchema compiles a caller-supplied schema, for lead servers
// that require specific fields.
func NewValidatorWithSchema(schema []byte) (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
	if err != nil {
		return nil, fmt.Errorf("lead: parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("lead: add schema resource: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("lead: compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate checks an encoded envelope.
func (v *Validator) Validate(body []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("lead: parse envelope: %w", err)
	}
	return v.schema.Validate(doc)
}
