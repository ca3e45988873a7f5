// Package lead models the lead record forwarded to the lead capture server.
//
// A Record is an ordered mapping of string keys to string values. It is built
// once per user event through a Builder and never changes afterwards.
package lead

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known record keys.
const (
	FieldMail              = "mail"
	FieldFirstName         = "firstName"
	FieldLastName          = "lastName"
	FieldCaptureMethod     = "captureMethod"
	FieldCaptureType       = "captureType"
	FieldPersonSource      = "personSource"
	FieldCaptureSourceInfo = "captureSourceInfo"
	FieldLanguage          = "language"
)

// Field is one key/value pair of a Record.
type Field struct {
	Key   string
	Value string
}

// Record is an immutable ordered set of lead fields.
// The zero value is an empty record.
type Record struct {
	fields []Field
	index  map[string]int
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	i, ok := r.index[key]
	if !ok {
		return "", false
	}
	return r.fields[i].Value, true
}

// Mail returns the mail field, or "" when absent.
func (r *Record) Mail() string {
	v, _ := r.Get(FieldMail)
	return v
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.Len())
	for _, f := range r.Fields() {
		keys = append(keys, f.Key)
	}
	return keys
}

// Fields returns a copy of the fields in insertion order.
func (r *Record) Fields() []Field {
	if r == nil {
		return nil
	}
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Map returns the fields as an unordered map.
func (r *Record) Map() map[string]string {
	m := make(map[string]string, r.Len())
	for _, f := range r.Fields() {
		m[f.Key] = f.Value
	}
	return m
}

// MarshalJSON encodes the record as a JSON object in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of string values, keeping document order.
// A repeated key keeps its first position and its last value.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("lead: decode record: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("lead: decode record: expected JSON object")
	}

	b := NewBuilder()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("lead: decode record: %w", err)
		}
		key, _ := keyTok.(string)

		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("lead: decode record: field %q: %w", key, err)
		}
		b.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("lead: decode record: %w", err)
	}

	*r = *b.Build()
	return nil
}
