package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		// Port the HTTP server listens on
		Port string `env:"SERVER_PORT" envDefault:"5250"`

		// Origins allowed by the CORS middleware
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	Database struct {
		// Either "sqlite" or "postgres"
		Driver string `env:"DB_DRIVER" envDefault:"sqlite"`

		// SQLite database file, relative to the working directory
		Path string `env:"DB_PATH" envDefault:"database/brickfund.db"`

		// Postgres connection string
		DSN string `env:"DB_DSN"`

		MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
		MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	}

	UnitOfWork struct {
		// Maximum number of retries when a unit of work hits a transient lock error
		MaxRetries int `env:"UOW_MAX_RETRIES" envDefault:"3"`

		// Delay between retries
		RetryDelay time.Duration `env:"UOW_RETRY_DELAY" envDefault:"50ms"`
	}

	Reconcile struct {
		Enabled  bool          `env:"RECONCILE_ENABLED" envDefault:"true"`
		Interval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1h"`
	}

	Events struct {
		// Number of committed events buffered for collaborators
		BufferSize int `env:"EVENTS_BUFFER_SIZE" envDefault:"256"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	CategoriesPath string `env:"CATEGORIES_PATH" envDefault:"config/categories.json"`
}

// LoadConfig reads the optional dotenv files and parses the environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
