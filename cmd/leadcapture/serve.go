package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/exo-addons/leadcapture"
	"github.com/exo-addons/leadcapture/api"
	"github.com/exo-addons/leadcapture/dispatch"
	"github.com/exo-addons/leadcapture/internal/config"
	"github.com/exo-addons/leadcapture/listener"
	"github.com/exo-addons/leadcapture/observability"
	"github.com/exo-addons/leadcapture/subscriber"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept user-created events and relay leads",
	Long: `Starts the HTTP intake (POST /events/user-created, GET /healthz, GET /metrics),
the optional NATS subscriber and the background lead dispatcher.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	relay, err := leadcapture.New(
		leadcapture.WithConfig(cfg.Relay()),
		leadcapture.WithLogger(logger),
		leadcapture.WithMetrics(metrics),
		leadcapture.WithTracer(observability.NewTracer()),
	)
	if err != nil {
		return err
	}
	defer relay.Close()

	queue, checks := newQueue(ctx, cfg, logger)
	defer queue.Close()

	dispatcher := dispatch.New(queue, relay, cfg.Dispatch,
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(metrics),
	)
	dispatcher.Start(ctx)

	users := listener.NewUserListener(cfg.Capture, dispatcher, listener.WithLogger(logger))

	var natsConn *nats.Conn
	var sub *subscriber.Subscriber
	if cfg.NATS.URL != "" {
		natsConn, err = subscriber.Connect(cfg.NATS, logger)
		if err != nil {
			return err
		}
		defer natsConn.Close()

		sub = subscriber.New(natsConn, cfg.NATS, users, logger)
		if err := sub.Start(); err != nil {
			return err
		}
		checks = append(checks, api.HealthCheck{
			Name: "nats",
			Check: func(context.Context) error {
				if !natsConn.IsConnected() {
					return errors.New("not connected")
				}
				return nil
			},
		})
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", api.NewHandler(users, logger, checks...))

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http intake listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	if sub != nil {
		if err := sub.Stop(); err != nil {
			logger.Error("nats unsubscribe failed", "error", err)
		}
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		logger.Error("dispatcher did not drain in time", "error", err)
	}
	return nil
}

// newQueue builds the configured task queue and its health checks.
func newQueue(ctx context.Context, cfg *config.Config, logger *slog.Logger) (dispatch.Queue, []api.HealthCheck) {
	if cfg.Queue.Backend != config.BackendRedis {
		return dispatch.NewMemoryQueue(cfg.Dispatch.QueueSize), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	q := dispatch.NewRedisQueue(client, cfg.Redis.Key)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := q.Ping(pingCtx); err != nil {
		// Workers keep polling, so the queue recovers once Redis is up.
		logger.Warn("redis unreachable", "addr", cfg.Redis.Addr, "error", err)
	}

	return q, []api.HealthCheck{{Name: "redis", Check: q.Ping}}
}
