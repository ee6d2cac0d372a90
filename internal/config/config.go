package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultEnvFile fills in variables the process environment leaves unset.
const DefaultEnvFile = ".env"

// Config holds all process configuration. It is populated once at startup
// and passed by pointer; nothing reads credentials from the environment later.
type Config struct {
	Database DatabaseConfig
	FPL      FPLConfig
	API      APIConfig
	Slack    SlackConfig

	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	// MetricsPushgatewayURL, when set, makes the importer push its run
	// metrics to a Prometheus Pushgateway before exiting.
	MetricsPushgatewayURL string `env:"METRICS_PUSHGATEWAY_URL" env-default:""`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Name     string `env:"DB_NAME"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	// An empty Host leaves the choice to pgx: the local Unix socket, then localhost.
	Host     string `env:"DB_HOST"`
	Port     int    `env:"DB_PORT" env-default:"5432"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
}

// FPLConfig holds settings for the upstream Fantasy Premier League API.
type FPLConfig struct {
	BaseURL   string `env:"FPL_BASE_URL" env-default:"https://fantasy.premierleague.com/api"`
	UserAgent string `env:"FPL_USER_AGENT" env-default:"fpl-stats-go/1.0"`
	// Timeout of zero leaves requests unbounded.
	Timeout time.Duration `env:"FPL_HTTP_TIMEOUT" env-default:"0s"`
}

// APIConfig holds settings for the read-only stats API.
type APIConfig struct {
	Port               string        `env:"PORT" env-default:"8080"`
	CORSOrigin         string        `env:"CORS_ORIGIN" env-default:"http://localhost:3000"`
	ImportInterval     time.Duration `env:"IMPORT_INTERVAL" env-default:"0s"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" env-default:"120"`
}

// SlackConfig enables run notifications when both fields are set.
type SlackConfig struct {
	BotToken string `env:"SLACK_BOT_TOKEN" env-default:""`
	Channel  string `env:"SLACK_CHANNEL" env-default:""`
}

// Load reads configuration from the environment. When DefaultEnvFile exists
// its variables are exported first, except those the environment already sets.
func Load() (*Config, error) {
	return LoadFile(DefaultEnvFile)
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT out of range: %d", c.Database.Port)
	}
	if c.FPL.BaseURL == "" {
		return errors.New("FPL_BASE_URL must not be empty")
	}
	if _, err := url.ParseRequestURI(c.FPL.BaseURL); err != nil {
		return fmt.Errorf("FPL_BASE_URL: %w", err)
	}
	if c.FPL.Timeout < 0 {
		return errors.New("FPL_HTTP_TIMEOUT must not be negative")
	}
	if c.API.ImportInterval < 0 {
		return errors.New("IMPORT_INTERVAL must not be negative")
	}
	if c.API.CORSOrigin == "" {
		return errors.New("CORS_ORIGIN must not be empty")
	}
	return nil
}

// ConnectionString returns a PostgreSQL keyword/value connection string.
// Values are quoted so passwords containing spaces or quotes survive. Empty
// settings are omitted so pgx applies its PG* and libpq defaults.
func (c *DatabaseConfig) ConnectionString() string {
	pairs := []struct{ key, value string }{
		{"host", c.Host},
		{"port", strconv.Itoa(c.Port)},
		{"user", c.User},
		{"password", c.Password},
		{"dbname", c.Name},
		{"sslmode", c.SSLMode},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		parts = append(parts, p.key+"="+quote(p.value))
	}
	return strings.Join(parts, " ")
}

func quote(v string) string {
	out := make([]byte, 0, len(v)+2)
	out = append(out, '\'')
	for i := 0; i < len(v); i++ {
		if v[i] == '\'' || v[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, v[i])
	}
	return string(append(out, '\''))
}
