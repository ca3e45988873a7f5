package lead_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/exo-addons/leadcapture/event"
	"github.com/exo-addons/leadcapture/lead"
)

func fakeUser() event.User {
	return event.User{
		UserName:  gofakeit.Username(),
		Email:     gofakeit.Email(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
	}
}

var testCapture = lead.Capture{
	Method:       "signup",
	Type:         "community",
	PersonSource: "website",
	SourceInfo:   "community.example.com",
}

func TestBuilderKeepsInsertionOrder(t *testing.T) {
	rec := lead.NewBuilder().
		Set("mail", "jane@example.com").
		Set("lastName", "Doe").
		Set("firstName", "Jane").
		Set("lastName", "Roe").
		Build()

	want := []string{"mail", "lastName", "firstName"}
	if got := rec.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("keys: got %v, want %v", got, want)
	}
	if v, _ := rec.Get("lastName"); v != "Roe" {
		t.Fatalf("replaced value: got %q", v)
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"mail":"jane@example.com","lastName":"Roe","firstName":"Jane"}` {
		t.Fatalf("unexpected encoding %s", raw)
	}
}

func TestRecordIsImmutable(t *testing.T) {
	b := lead.NewBuilder().Set("mail", "a@example.com")
	rec := b.Build()

	b.Set("mail", "b@example.com").Set("extra", "x")

	if rec.Mail() != "a@example.com" || rec.Len() != 1 {
		t.Fatalf("builder changes leaked into built record: %v", rec.Map())
	}

	fields := rec.Fields()
	fields[0].Value = "mutated"
	if rec.Mail() != "a@example.com" {
		t.Fatal("Fields must return a copy")
	}
}

func TestRecordUnmarshalPreservesOrder(t *testing.T) {
	var rec lead.Record
	if err := json.Unmarshal([]byte(`{"z":"1","a":"2","m":"3"}`), &rec); err != nil {
		t.Fatal(err)
	}
	if got := rec.Keys(); !reflect.DeepEqual(got, []string{"z", "a", "m"}) {
		t.Fatalf("keys: got %v", got)
	}

	if err := json.Unmarshal([]byte(`{"n":1}`), &rec); err == nil {
		t.Fatal("expected error for non-string value")
	}
	if err := json.Unmarshal([]byte(`["mail"]`), &rec); err == nil {
		t.Fatal("expected error for non-object document")
	}
}

func TestFromUser(t *testing.T) {
	user := fakeUser()
	profile := &event.Profile{
		UserName:   user.UserName,
		Attributes: map[string]string{event.LanguageAttribute: "fr"},
	}

	rec := lead.FromUser(user, testCapture, profile)

	want := map[string]string{
		"mail":              user.Email,
		"firstName":         user.FirstName,
		"lastName":          user.LastName,
		"captureMethod":     "signup",
		"captureType":       "community",
		"personSource":      "website",
		"captureSourceInfo": "community.example.com",
		"language":          "fr",
	}
	if got := rec.Map(); !reflect.DeepEqual(got, want) {
		t.Fatalf("record: got %v, want %v", got, want)
	}
	if rec.Keys()[0] != lead.FieldMail {
		t.Fatalf("mail should come first, got %v", rec.Keys())
	}
}

func TestFromUserOmitsUnsetOptionalFields(t *testing.T) {
	user := fakeUser()

	noProfile := lead.FromUser(user, lead.Capture{Method: "signup"}, nil)
	if _, ok := noProfile.Get(lead.FieldLanguage); ok {
		t.Fatal("language must be absent without a profile")
	}
	if _, ok := noProfile.Get(lead.FieldCaptureType); ok {
		t.Fatal("unset capture type must be absent")
	}
	if noProfile.Len() != 4 {
		t.Fatalf("expected 4 fields, got %v", noProfile.Keys())
	}

	emptyProfile := lead.FromUser(user, testCapture, &event.Profile{UserName: user.UserName})
	if _, ok := emptyProfile.Get(lead.FieldLanguage); ok {
		t.Fatal("language must be absent when the profile has none")
	}
}

func TestEnvelope(t *testing.T) {
	rec := lead.FromUser(fakeUser(), testCapture, nil)

	body, err := lead.Envelope(rec)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]map[string]string
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("envelope is not valid JSON: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("envelope must have exactly one key, got %v", decoded)
	}
	if !reflect.DeepEqual(decoded[lead.EnvelopeKey], rec.Map()) {
		t.Fatalf("lead: got %v, want %v", decoded[lead.EnvelopeKey], rec.Map())
	}

	opened, err := lead.OpenEnvelope(body)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(opened.Keys(), rec.Keys()) {
		t.Fatalf("opened keys: got %v, want %v", opened.Keys(), rec.Keys())
	}

	if _, err := lead.Envelope(nil); err == nil {
		t.Fatal("expected error for nil record")
	}
	if _, err := lead.OpenEnvelope([]byte(`{}`)); err == nil {
		t.Fatal("expected error for envelope without lead")
	}
}

func TestValidator(t *testing.T) {
	v, err := lead.NewValidator()
	if err != nil {
		t.Fatal(err)
	}

	valid, _ := lead.Envelope(lead.FromUser(fakeUser(), testCapture, nil))
	if err := v.Validate(valid); err != nil {
		t.Fatalf("valid envelope rejected: %v", err)
	}

	accepted := map[string]string{
		"missing mail": `{"lead":{"firstName":"Jane"}}`,
		"empty mail":   `{"lead":{"mail":""}}`,
		"empty lead":   `{"lead":{}}`,
	}
	for name, body := range accepted {
		if err := v.Validate([]byte(body)); err != nil {
			t.Errorf("%s: unexpected validation error: %v", name, err)
		}
	}

	rejected := map[string]string{
		"missing lead":   `{"other":{}}`,
		"lead not obj":   `{"lead":"jane@example.com"}`,
		"non-string":     `{"lead":{"mail":"a@example.com","age":3}}`,
		"not an object":  `[]`,
		"malformed json": `{"lead":`,
	}
	for name, body := range rejected {
		if err := v.Validate([]byte(body)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestValidatorWithStrictSchema(t *testing.T) {
	v, err := lead.NewValidatorWithSchema([]byte(lead.StrictEnvelopeSchema))
	if err != nil {
		t.Fatal(err)
	}

	for name, body := range map[string]string{
		"missing mail": `{"lead":{"firstName":"Jane"}}`,
		"empty mail":   `{"lead":{"mail":""}}`,
	} {
		if err := v.Validate([]byte(body)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	if err := v.Validate([]byte(`{"lead":{"mail":"a@example.com"}}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidatorWithCustomSchema(t *testing.T) {
	schema := strings.Replace(lead.StrictEnvelopeSchema, `"required": ["mail"]`, `"required": ["mail", "language"]`, 1)
	v, err := lead.NewValidatorWithSchema([]byte(schema))
	if err != nil {
		t.Fatal(err)
	}

	if err := v.Validate([]byte(`{"lead":{"mail":"a@example.com"}}`)); err == nil {
		t.Fatal("expected missing language to fail")
	}
	if err := v.Validate([]byte(`{"lead":{"mail":"a@example.com","language":"en"}}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := lead.NewValidatorWithSchema([]byte(`{`)); err == nil {
		t.Fatal("expected error for malformed schema")
	}
}
