package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"adaptive-engine"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres Postgres
	Redis    Redis
	Security Security
	Adaptive Adaptive
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds session-state and cache configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores token verification secrets.
type Security struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
}

// Adaptive groups the exam termination and selection knobs.
type Adaptive struct {
	MaxQuestions        int           `env:"ADAPTIVE_MAX_QUESTIONS" envDefault:"10"`
	MinQuestions        int           `env:"ADAPTIVE_MIN_QUESTIONS" envDefault:"5"`
	SEThreshold         float64       `env:"ADAPTIVE_SE_THRESHOLD" envDefault:"0.3"`
	UseEarlyTermination bool          `env:"ADAPTIVE_EARLY_TERMINATION" envDefault:"false"`
	MaxPerTopic         int           `env:"ADAPTIVE_MAX_PER_TOPIC" envDefault:"0"`
	PoolCacheTTL        time.Duration `env:"ADAPTIVE_POOL_CACHE_TTL" envDefault:"2m"`
}

// Load parses environment variables into App config.
func Load() (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
