package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all server configuration, read from the environment
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DB" envDefault:"poker24"`
	RedisAddr     string `env:"REDIS_URI" envDefault:"localhost:6379"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"poker24.db"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"super-secret-key-change-in-production"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// AdmissionDelay is how long a lobby waits before starting with fewer than 4 players
	AdmissionDelay time.Duration `env:"ADMISSION_DELAY" envDefault:"10s"`
	// StrictOperands requires answers to use each dealt number exactly once
	StrictOperands bool `env:"STRICT_OPERANDS" envDefault:"true"`

	CommandQueue string `env:"QUEUE_COMMANDS" envDefault:"poker24:commands"`
	ReplyQueue   string `env:"QUEUE_REPLIES" envDefault:"poker24:replies"`
	EventTopic   string `env:"EVENT_TOPIC" envDefault:"poker24:events"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
}

// Load parses the environment into a Config
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	// Remove redis:// prefix if present
	cfg.RedisAddr = strings.TrimPrefix(cfg.RedisAddr, "redis://")
	if cfg.AdmissionDelay <= 0 {
		return nil, fmt.Errorf("ADMISSION_DELAY must be positive, got %s", cfg.AdmissionDelay)
	}
	return cfg, nil
}
