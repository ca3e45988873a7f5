// Package dispatch runs lead sends in the background so the code reporting a
// new user never waits on, or fails because of, the lead capture server.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/exo-addons/leadcapture/id"
	"github.com/exo-addons/leadcapture/lead"
	"github.com/exo-addons/leadcapture/observability"
)

// Defaults for Config.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 1000
)

// dequeueBackoff is the pause after an unexpected queue error.
const dequeueBackoff = time.Second

// Sender delivers one lead. *leadcapture.Relay implements it.
type Sender interface {
	SendLead(ctx context.Context, userID string, rec *lead.Record) error
}

// Config holds dispatcher configuration.
type Config struct {
	Workers   int `json:"workers" mapstructure:"workers"`
	QueueSize int `json:"queue_size" mapstructure:"queue_size"`
}

// DefaultConfig returns 4 workers over a queue of 1000 tasks.
func DefaultConfig() Config {
	return Config{
		Workers:   DefaultWorkers,
		QueueSize: DefaultQueueSize,
	}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithMetrics counts submitted and dropped tasks and tracks queue depth.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// Dispatcher is a fixed pool of workers pulling tasks from a Queue and
// handing them to a Sender. Send failures are logged and counted; nothing is
// retried.
type Dispatcher struct {
	queue   Queue
	sender  Sender
	workers int
	metrics *observability.Metrics
	logger  *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a dispatcher. Call Start to launch the workers.
func New(q Queue, sender Sender, cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:   q,
		sender:  sender,
		workers: cfg.Workers,
		logger:  slog.Default(),
	}
	if d.workers <= 0 {
		d.workers = DefaultWorkers
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit queues rec for userID and returns the task ID. It never blocks on
// the network; a full or closed queue is reported immediately.
func (d *Dispatcher) Submit(ctx context.Context, userID string, rec *lead.Record) (id.ID, error) {
	t := NewTask(userID, rec)

	if err := d.queue.Enqueue(ctx, t); err != nil {
		if d.metrics != nil {
			d.metrics.TasksDroppedTotal.WithLabelValues(dropReason(err)).Inc()
		}
		return id.Nil, err
	}

	if d.metrics != nil {
		d.metrics.TasksSubmittedTotal.Inc()
	}
	d.observeDepth(ctx)

	d.logger.DebugContext(ctx, "lead task queued", "task_id", t.ID, "user_id", userID)
	return t.ID, nil
}

// Start launches the workers. They run until Stop is called or ctx is done.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(worker int) {
			defer d.wg.Done()
			d.work(ctx, worker)
		}(i)
	}
	d.logger.Info("lead dispatcher started", "workers", d.workers)
}

// Stop stops dequeuing and waits for in-flight sends to finish, or for ctx to
// expire. Tasks still queued stay in the queue.
func (d *Dispatcher) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work(ctx context.Context, worker int) {
	for {
		t, err := d.queue.Dequeue(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil, errors.Is(err, ErrQueueClosed):
				return
			case errors.Is(err, ErrMalformedTask):
				if d.metrics != nil {
					d.metrics.TasksDroppedTotal.WithLabelValues("malformed").Inc()
				}
				d.logger.WarnContext(ctx, "dropping malformed lead task", "worker", worker, "error", err)
			default:
				d.logger.ErrorContext(ctx, "dequeue failed", "worker", worker, "error", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(dequeueBackoff):
				}
			}
			continue
		}

		d.observeDepth(ctx)
		// In-flight sends outlive Stop; the transport timeouts bound them.
		d.process(context.WithoutCancel(ctx), worker, t)
	}
}

func (d *Dispatcher) process(ctx context.Context, worker int, t *Task) {
	t.Touch()

	if err := d.sender.SendLead(ctx, t.UserID, t.Lead); err != nil {
		d.logger.ErrorContext(ctx, "error sending lead",
			"worker", worker,
			"task_id", t.ID,
			"user_id", t.UserID,
			"queued_for", t.UpdatedAt.Sub(t.CreatedAt),
			"error", err,
		)
		return
	}

	d.logger.DebugContext(ctx, "lead task done",
		"worker", worker,
		"task_id", t.ID,
		"user_id", t.UserID,
		"age", t.Age(),
	)
}

func (d *Dispatcher) observeDepth(ctx context.Context) {
	if d.metrics == nil {
		return
	}
	n, err := d.queue.Len(ctx)
	if err != nil {
		return
	}
	d.metrics.QueueDepth.Set(float64(n))
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, ErrQueueFull):
		return "queue_full"
	case errors.Is(err, ErrQueueClosed):
		return "closed"
	default:
		return "enqueue_error"
	}
}
