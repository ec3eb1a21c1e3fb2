// Package config loads engine configuration from the environment and
// the judge panel roster from YAML.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config is the full runtime configuration, parsed from environment
// variables. Durations use Go syntax ("5m", "90s").
type Config struct {
	// HTTPAddr is the listen address of the API server.
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// LLMProvider selects the judge backend: openai, anthropic, or
	// google.
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"openai" validate:"oneof=openai anthropic google"`

	// LLMAPIKey authenticates against the selected provider.
	LLMAPIKey string `env:"LLM_API_KEY" validate:"required"`

	// LLMModel overrides the provider's default model when set.
	LLMModel string `env:"LLM_MODEL"`

	// LLMTimeout bounds a single completion request.
	LLMTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"45s"`

	// LLMMaxRetries bounds retry attempts for transient provider errors.
	LLMMaxRetries int `env:"LLM_MAX_RETRIES" envDefault:"2" validate:"min=0,max=10"`

	// LLMRateLimit caps outgoing completion requests per second.
	LLMRateLimit float64 `env:"LLM_RATE_LIMIT" envDefault:"5" validate:"gt=0"`

	// TotalRounds is the number of rounds pre-allocated per game.
	TotalRounds int `env:"TOTAL_ROUNDS" envDefault:"8" validate:"min=1,max=50"`

	// RoundDuration is the nominal per-round countdown.
	RoundDuration time.Duration `env:"ROUND_DURATION" envDefault:"5m"`

	// GracePeriod extends the countdown past the nominal deadline.
	GracePeriod time.Duration `env:"GRACE_PERIOD" envDefault:"2m"`

	// PanelPath points at a YAML judge roster. Empty means the built-in
	// roster.
	PanelPath string `env:"PANEL_CONFIG"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses and validates configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validating configuration: %w", err)
	}
	if cfg.RoundDuration <= 0 || cfg.GracePeriod < 0 {
		return Config{}, fmt.Errorf("round duration must be positive and grace period non-negative")
	}
	return cfg, nil
}
