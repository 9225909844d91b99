package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by composite configs with cross-field rules.
type Validator interface {
	Validate() error
}

// New reads T from environment variables. A .env file in the working
// directory is loaded first without overriding variables already set.
// Each binary declares its own composite struct; when it implements
// Validator the result is checked too.
func New[T any]() (T, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[T]()
	if err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if v, ok := any(cfg).(Validator); ok {
		if err := v.Validate(); err != nil {
			return cfg, fmt.Errorf("invalid config: %w", err)
		}
	}

	return cfg, nil
}
