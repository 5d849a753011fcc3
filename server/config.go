package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration, loaded from the environment (with .env
// support in dev via godotenv).
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	AutoMigrate bool   `env:"AUTO_MIGRATE"`
	Admin       string `env:"ADMIN_IDENTITY" envDefault:"admin"`
	AdminToken  string `env:"ADMIN_TOKEN"`
	DealSeed    int64  `env:"DEAL_SEED"`
	Debug       bool   `env:"DEBUG"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
