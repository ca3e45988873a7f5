// Package subscriber receives user-created events from NATS and hands them to
// the lead listener.
package subscriber

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/exo-addons/leadcapture/api"
	"github.com/exo-addons/leadcapture/event"
)

// DefaultSubject is where the host platform publishes user-created events.
const DefaultSubject = "users.created"

// Config holds NATS connection and subscription settings.
type Config struct {
	// URL is the NATS server URL, e.g. "nats://localhost:4222". Empty
	// disables the subscriber.
	URL string `json:"url" mapstructure:"url"`

	Subject string `json:"subject" mapstructure:"subject"`

	// QueueGroup load-balances events across replicas when set.
	QueueGroup string `json:"queue_group" mapstructure:"queue_group"`

	Name          string        `json:"name" mapstructure:"name"`
	MaxReconnects int           `json:"max_reconnects" mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `json:"reconnect_wait" mapstructure:"reconnect_wait"`
	Timeout       time.Duration `json:"timeout" mapstructure:"timeout"`
}

// DefaultConfig returns a disabled subscriber with reconnect defaults.
func DefaultConfig() Config {
	return Config{
		Subject:       DefaultSubject,
		QueueGroup:    "leadcapture",
		Name:          "leadcapture",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Connect dials NATS, logging disconnects and reconnects through logger.
func Connect(cfg Config, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("subscriber: connect to nats: %w", err)
	}
	return conn, nil
}

// Subscriber decodes events from one subject and forwards valid ones.
type Subscriber struct {
	conn    *nats.Conn
	subject string
	group   string
	users   api.UserCreatedHandler
	logger  *slog.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// New creates a subscriber. Call Start to begin receiving.
func New(conn *nats.Conn, cfg Config, users api.UserCreatedHandler, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	subject := cfg.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	return &Subscriber{
		conn:    conn,
		subject: subject,
		group:   cfg.QueueGroup,
		users:   users,
		logger:  logger,
	}
}

// Start subscribes to the subject.
func (s *Subscriber) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub != nil {
		return nil
	}

	var (
		sub *nats.Subscription
		err error
	)
	if s.group != "" {
		sub, err = s.conn.QueueSubscribe(s.subject, s.group, s.Handle)
	} else {
		sub, err = s.conn.Subscribe(s.subject, s.Handle)
	}
	if err != nil {
		return fmt.Errorf("subscriber: subscribe %s: %w", s.subject, err)
	}

	s.sub = sub
	s.logger.Info("listening for user events", "subject", s.subject, "queue_group", s.group)
	return nil
}

// Stop drains the subscription so messages already received are handled.
func (s *Subscriber) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub == nil {
		return nil
	}
	err := s.sub.Drain()
	s.sub = nil
	if err != nil {
		return fmt.Errorf("subscriber: drain %s: %w", s.subject, err)
	}
	return nil
}

// Handle processes one message. Malformed events are logged and dropped.
func (s *Subscriber) Handle(msg *nats.Msg) {
	evt, err := event.DecodeUserCreated(bytes.NewReader(msg.Data))
	if err != nil {
		s.logger.Warn("dropping malformed user event",
			"subject", msg.Subject,
			"error", err,
		)
		return
	}
	s.users.HandleUserCreated(context.Background(), evt)
}
