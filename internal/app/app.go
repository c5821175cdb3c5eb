package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	authjwt "github.com/examadapt/adaptive-engine/internal/auth/jwt"
	"github.com/examadapt/adaptive-engine/internal/config"
	"github.com/examadapt/adaptive-engine/internal/db/repository"
	"github.com/examadapt/adaptive-engine/internal/exam"
	"github.com/examadapt/adaptive-engine/internal/exam/selector"
	"github.com/examadapt/adaptive-engine/internal/logging"
	"github.com/examadapt/adaptive-engine/internal/metrics"
	"github.com/examadapt/adaptive-engine/internal/question"
	"github.com/examadapt/adaptive-engine/internal/server"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
}

// New bootstraps config, logger, Postgres, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	itemRepo := repository.NewItemRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	calibrationRepo := repository.NewCalibrationRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)

	tokens := authjwt.NewManager(authjwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Name,
	})

	poolCache := question.NewCache(redisClient, cfg.Adaptive.PoolCacheTTL)
	itemSvc := question.NewService(itemRepo, poolCache)

	controller := exam.NewController(
		exam.Config{
			MaxQuestions:        cfg.Adaptive.MaxQuestions,
			MinQuestions:        cfg.Adaptive.MinQuestions,
			SEThreshold:         cfg.Adaptive.SEThreshold,
			UseEarlyTermination: cfg.Adaptive.UseEarlyTermination,
		},
		selector.Config{MaxPerTopic: cfg.Adaptive.MaxPerTopic},
		logger,
	)

	sessionStore := exam.NewRedisSessionStore(redisClient, logger)
	examMetrics := metrics.New()

	examSvc := exam.NewService(
		controller,
		sessionStore,
		itemSvc,
		&studentDirectory{repo: studentRepo},
		resultRepo,
		calibrationRepo,
		examMetrics,
		logger,
	)
	examHandlers := exam.NewHTTPHandlers(examSvc, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, tokens, examHandlers)

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

// studentDirectory adapts the student repository to the engine's identity
// collaborator contract.
type studentDirectory struct {
	repo *repository.StudentRepository
}

func (d *studentDirectory) Resolve(ctx context.Context, studentID uuid.UUID) error {
	ok, err := d.repo.Exists(ctx, studentID)
	if err != nil {
		return err
	}
	if !ok {
		return exam.ErrInvalidStudent
	}
	return nil
}
