// Package listener turns user-creation notifications from the host platform
// into queued leads.
//
// A UserListener never returns an error to the code that created the user:
// every failure is logged and dropped.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/exo-addons/leadcapture/event"
	"github.com/exo-addons/leadcapture/id"
	"github.com/exo-addons/leadcapture/lead"
)

// DefaultLookupTimeout bounds a profile lookup made on the caller's goroutine.
const DefaultLookupTimeout = 2 * time.Second

// ProfileFinder looks up a user's profile. It returns (nil, nil) when the user
// has none.
//
// FindProfile runs on the goroutine that reported the new user, before the
// lead is queued. It must return promptly and honor ctx: the listener cancels
// it after the lookup timeout and drops that lead.
type ProfileFinder interface {
	FindProfile(ctx context.Context, userName string) (*event.Profile, error)
}

// Submitter queues a lead for background delivery. *dispatch.Dispatcher
// implements it.
type Submitter interface {
	Submit(ctx context.Context, userID string, rec *lead.Record) (id.ID, error)
}

// Option configures a UserListener.
type Option func(*UserListener)

// WithProfileFinder sets where profiles are looked up when an event does not
// carry one.
func WithProfileFinder(f ProfileFinder) Option {
	return func(l *UserListener) { l.profiles = f }
}

// WithLookupTimeout bounds each ProfileFinder call. Zero or negative keeps
// DefaultLookupTimeout.
func WithLookupTimeout(d time.Duration) Option {
	return func(l *UserListener) {
		if d > 0 {
			l.lookupTimeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *UserListener) { l.logger = logger }
}

// UserListener reacts to user lifecycle callbacks.
type UserListener struct {
	capture       lead.Capture
	submitter     Submitter
	profiles      ProfileFinder
	lookupTimeout time.Duration
	logger        *slog.Logger
}

// NewUserListener creates a listener stamping every lead with capture.
func NewUserListener(capture lead.Capture, submitter Submitter, opts ...Option) *UserListener {
	l := &UserListener{
		capture:       capture,
		submitter:     submitter,
		lookupTimeout: DefaultLookupTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// PostSave is called after a user is saved. Only newly created users produce
// a lead; the profile comes from the ProfileFinder, if any.
func (l *UserListener) PostSave(ctx context.Context, user event.User, isNew bool) {
	l.handle(ctx, event.UserCreated{User: user, IsNew: isNew})
}

// HandleUserCreated is PostSave for events that may already carry the
// profile. An inline profile is used as is; the ProfileFinder is only asked
// when it is missing.
func (l *UserListener) HandleUserCreated(ctx context.Context, evt event.UserCreated) {
	l.handle(ctx, evt)
}

// PostDelete is called after a user is deleted. Deleted users are not
// reported.
func (l *UserListener) PostDelete(_ context.Context, _ event.User) {}

func (l *UserListener) handle(ctx context.Context, evt event.UserCreated) {
	if !evt.IsNew {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			l.logger.ErrorContext(ctx, "an error occurred while capturing lead",
				"user_id", evt.User.UserName,
				"error", fmt.Sprintf("panic: %v", rec),
			)
		}
	}()

	if err := l.captureLead(ctx, evt); err != nil {
		l.logger.ErrorContext(ctx, "an error occurred while capturing lead",
			"user_id", evt.User.UserName,
			"error", err,
		)
	}
}

func (l *UserListener) captureLead(ctx context.Context, evt event.UserCreated) error {
	profile := evt.Profile
	if profile == nil && l.profiles != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, l.lookupTimeout)
		found, err := l.profiles.FindProfile(lookupCtx, evt.User.UserName)
		cancel()
		if err != nil {
			return fmt.Errorf("listener: find profile %q: %w", evt.User.UserName, err)
		}
		profile = found
	}

	rec := lead.FromUser(evt.User, l.capture, profile)

	taskID, err := l.submitter.Submit(ctx, evt.User.UserName, rec)
	if err != nil {
		return fmt.Errorf("listener: submit lead: %w", err)
	}

	l.logger.DebugContext(ctx, "lead captured",
		"user_id", evt.User.UserName,
		"task_id", taskID,
	)
	return nil
}
