// Package event defines the host-platform user events that trigger lead capture.
package event

// LanguageAttribute is the profile attribute holding the user's language.
const LanguageAttribute = "user.language"

// User is the subset of a platform user account relevant to lead capture.
type User struct {
	// UserName is the platform login; it identifies the user in logs.
	UserName string `json:"user_name"`

	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Profile holds the free-form attributes of a user's profile.
type Profile struct {
	UserName   string            `json:"user_name"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Attribute returns the named attribute, or "" when absent.
func (p *Profile) Attribute(name string) string {
	if p == nil {
		return ""
	}
	return p.Attributes[name]
}

// Language returns the user.language attribute.
func (p *Profile) Language() string {
	return p.Attribute(LanguageAttribute)
}

// UserCreated is emitted after a user account is saved on the host platform.
type UserCreated struct {
	User User `json:"user"`

	// Profile is optional; when nil the listener looks it up itself.
	Profile *Profile `json:"profile,omitempty"`

	// IsNew is false for updates of an existing account.
	IsNew bool `json:"is_new"`
}
