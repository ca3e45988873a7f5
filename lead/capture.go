package lead

import "github.com/exo-addons/leadcapture/event"

// Capture is the static metadata describing how and where leads are acquired.
// It comes from process configuration, never from the user.
type Capture struct {
	Method       string `json:"method" mapstructure:"method"`
	Type         string `json:"type" mapstructure:"type"`
	PersonSource string `json:"person_source" mapstructure:"person_source"`
	SourceInfo   string `json:"source_info" mapstructure:"source_info"`
}

// FromUser builds the lead record for a newly created user.
//
// User fields are always present. Capture fields are omitted when not
// configured, and language is added only when a profile carries one.
func FromUser(user event.User, capture Capture, profile *event.Profile) *Record {
	b := NewBuilder().
		Set(FieldMail, user.Email).
		Set(FieldFirstName, user.FirstName).
		Set(FieldLastName, user.LastName).
		SetOptional(FieldCaptureMethod, capture.Method).
		SetOptional(FieldCaptureType, capture.Type).
		SetOptional(FieldPersonSource, capture.PersonSource).
		SetOptional(FieldCaptureSourceInfo, capture.SourceInfo)

	if profile != nil {
		b.SetOptional(FieldLanguage, profile.Language())
	}
	return b.Build()
}
