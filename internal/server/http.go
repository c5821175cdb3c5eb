package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examadapt/adaptive-engine/internal/auth"
	authjwt "github.com/examadapt/adaptive-engine/internal/auth/jwt"
	"github.com/examadapt/adaptive-engine/internal/config"
	"github.com/examadapt/adaptive-engine/internal/exam"
)

// NewHTTPServer wires base routes (health, metrics) plus the exam API.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redisClient *redis.Client, tokens *authjwt.Manager, examHandlers *exam.HTTPHandlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pingDependencies(r.Context(), pool, redisClient); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	// Exam endpoints: every operation acts for an authenticated student.
	authed := auth.Middleware(tokens, logger)
	mux.Handle("POST /v1/exam/sessions", authed(http.HandlerFunc(examHandlers.StartSession)))
	mux.Handle("POST /v1/exam/sessions/{id}/next", authed(http.HandlerFunc(examHandlers.NextQuestion)))
	mux.Handle("POST /v1/exam/sessions/{id}/responses", authed(http.HandlerFunc(examHandlers.SubmitResponse)))
	mux.Handle("GET /v1/exam/sessions/{id}/report", authed(http.HandlerFunc(examHandlers.SessionReport)))
	mux.Handle("GET /v1/exam/results", authed(http.HandlerFunc(examHandlers.History)))

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redisClient *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}
