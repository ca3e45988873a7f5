package subscriber_test

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exo-addons/leadcapture/event"
	"github.com/exo-addons/leadcapture/subscriber"
)

type recordingListener struct {
	events []event.UserCreated
}

func (l *recordingListener) HandleUserCreated(_ context.Context, evt event.UserCreated) {
	l.events = append(l.events, evt)
}

func TestHandleForwardsValidEvents(t *testing.T) {
	l := &recordingListener{}
	s := subscriber.New(nil, subscriber.DefaultConfig(), l, nil)

	s.Handle(&nats.Msg{
		Subject: subscriber.DefaultSubject,
		Data:    []byte(`{"user":{"user_name":"jdoe","email":"jane@example.com","first_name":"Jane"}}`),
	})

	require.Len(t, l.events, 1)
	assert.Equal(t, "jdoe", l.events[0].User.UserName)
	assert.True(t, l.events[0].IsNew)
}

func TestHandleDropsMalformedEvents(t *testing.T) {
	l := &recordingListener{}
	s := subscriber.New(nil, subscriber.DefaultConfig(), l, nil)

	for _, data := range []string{`not json`, `{"user":{"email":"a@example.com"}}`, `{"user":{"user_name":" "}}`} {
		s.Handle(&nats.Msg{Subject: subscriber.DefaultSubject, Data: []byte(data)})
	}

	assert.Empty(t, l.events)
}

func TestStopWithoutStart(t *testing.T) {
	s := subscriber.New(nil, subscriber.Config{}, &recordingListener{}, nil)
	assert.NoError(t, s.Stop())
}

func TestDefaultConfig(t *testing.T) {
	cfg := subscriber.DefaultConfig()
	assert.Equal(t, "users.created", cfg.Subject)
	assert.Empty(t, cfg.URL, "subscriber is disabled unless a URL is configured")
	assert.Equal(t, -1, cfg.MaxReconnects)
}
