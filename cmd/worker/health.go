package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wordbridge/wordbridge-api/internal/config"
)

// jobCounter reports how many jobs the worker has handled so far.
type jobCounter interface {
	ProcessedCount() int64
	FailedCount() int64
}

// healthServer exposes liveness and status endpoints alongside the
// worker loop so orchestrators can probe it.
type healthServer struct {
	server    *http.Server
	db        *sql.DB
	cfg       *config.Config
	counter   jobCounter
	logger    *slog.Logger
	startedAt time.Time
}

func newHealthServer(cfg *config.Config, db *sql.DB, counter jobCounter, logger *slog.Logger) *healthServer {
	h := &healthServer{
		db:        db,
		cfg:       cfg,
		counter:   counter,
		logger:    logger.With(slog.String("component", "health_server")),
		startedAt: time.Now().UTC(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", h.handleHealthz)
	r.Get("/status", h.handleStatus)

	h.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HealthPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return h
}

// start runs the HTTP server in the background. Failures are logged, not
// fatal: the worker loop is the primary workload.
func (h *healthServer) start(ctx context.Context) {
	go func() {
		h.logger.InfoContext(ctx, "health server listening", "addr", h.server.Addr)
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.ErrorContext(ctx, "health server failed", "error", err)
		}
	}()
}

func (h *healthServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error("health server shutdown failed", "error", err)
	}
}

func (h *healthServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		h.logger.Error("failed to write health response", "error", err)
	}
}

func (h *healthServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	status := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "unreachable"
		status = http.StatusServiceUnavailable
	}

	payload := map[string]any{
		"database":               dbStatus,
		"broker_configured":      h.cfg.Queue.AMQPURL != "",
		"queue_name":             h.cfg.Queue.QueueName,
		"sweep_interval_seconds": h.cfg.Worker.SweepIntervalSeconds,
		"jobs_processed":         h.counter.ProcessedCount(),
		"jobs_failed":            h.counter.FailedCount(),
		"uptime_seconds":         int(time.Since(h.startedAt).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write status response", "error", err)
	}
}
