package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr    string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath      string        `env:"DB_PATH" envDefault:"data/fishbowl.db"`
	RedisURL    string        `env:"REDIS_URL"`
	LogLevel    slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	PresenceTTL time.Duration `env:"PRESENCE_TTL" envDefault:"45s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
