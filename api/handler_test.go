package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/exo-addons/leadcapture/api"
	"github.com/exo-addons/leadcapture/event"
)

// recordingListener stores every event it receives.
type recordingListener struct {
	mu     sync.Mutex
	events []event.UserCreated
	ctxErr error
}

func (l *recordingListener) HandleUserCreated(ctx context.Context, evt event.UserCreated) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
	l.ctxErr = ctx.Err()
}

type panickingListener struct{}

func (panickingListener) HandleUserCreated(context.Context, event.UserCreated) {
	panic("boom")
}

func testServer(t *testing.T, l api.UserCreatedHandler, checks ...api.HealthCheck) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(api.NewHandler(l, nil, checks...))
	t.Cleanup(srv.Close)
	return srv
}

func postRaw(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestUserCreatedAccepted(t *testing.T) {
	l := &recordingListener{}
	srv := testServer(t, l)

	resp := postRaw(t, srv.URL+"/events/user-created", `{
		"user": {"user_name": "jdoe", "email": "jane@example.com", "first_name": "Jane", "last_name": "Doe"},
		"profile": {"user_name": "jdoe", "attributes": {"user.language": "en"}}
	}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "accepted" || body["user_name"] != "jdoe" {
		t.Fatalf("unexpected body %v", body)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(l.events))
	}
	evt := l.events[0]
	if !evt.IsNew || evt.User.Email != "jane@example.com" || evt.Profile.Language() != "en" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if l.ctxErr != nil {
		t.Fatalf("listener context should not be cancelled: %v", l.ctxErr)
	}
}

func TestUserCreatedBadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"user":`},
		{name: "missing user name", body: `{"user":{"email":"jane@example.com"}}`},
		{name: "blank user name", body: `{"user":{"user_name":""}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &recordingListener{}
			srv := testServer(t, l)

			resp := postRaw(t, srv.URL+"/events/user-created", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var body map[string]string
			decodeBody(t, resp, &body)
			if body["error"] == "" {
				t.Fatal("expected an error message")
			}
			if len(l.events) != 0 {
				t.Fatal("invalid events must not reach the listener")
			}
		})
	}
}

func TestUserCreatedMethodNotAllowed(t *testing.T) {
	srv := testServer(t, &recordingListener{})

	resp, err := http.Get(srv.URL + "/events/user-created")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestPanicRecovery(t *testing.T) {
	srv := testServer(t, panickingListener{})

	resp := postRaw(t, srv.URL+"/events/user-created", `{"user":{"user_name":"jdoe","email":"j@example.com"}}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealthz(t *testing.T) {
	srv := testServer(t, &recordingListener{})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestHealthzFailingCheck(t *testing.T) {
	srv := testServer(t, &recordingListener{},
		api.HealthCheck{Name: "queue", Check: func(context.Context) error { return nil }},
		api.HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeBody(t, resp, &body)
	if body.Status != "unavailable" || body.Checks["redis"] != "connection refused" || body.Checks["queue"] != "ok" {
		t.Fatalf("unexpected body %+v", body)
	}
}
