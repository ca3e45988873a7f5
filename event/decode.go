package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMissingUserName is returned by DecodeUserCreated for an event without a
// user name.
var ErrMissingUserName = errors.New("event: user.user_name is required")

// DecodeUserCreated reads one JSON UserCreated from r. An absent "is_new"
// means the account was just created.
func DecodeUserCreated(r io.Reader) (UserCreated, error) {
	evt := UserCreated{IsNew: true}
	if err := json.NewDecoder(r).Decode(&evt); err != nil {
		return UserCreated{}, fmt.Errorf("event: decode user created: %w", err)
	}
	if err := evt.Validate(); err != nil {
		return UserCreated{}, err
	}
	return evt, nil
}

// Validate checks that the event names a user. An empty email is allowed:
// the lead is sent with an empty mail.
func (e UserCreated) Validate() error {
	if strings.TrimSpace(e.User.UserName) == "" {
		return ErrMissingUserName
	}
	return nil
}
