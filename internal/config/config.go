// Package config loads the service configuration from the environment, with
// an optional .env file for development.
package config

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the service.
type Config struct {
	// Addr is the listen address.
	Addr string `env:"ENCOUNTER_ADDR" envDefault:":3000"`

	// GMSecret is the one shared secret that grants write privilege. The
	// service refuses to start without it; an empty secret would leave the
	// roster writable by nobody or, worse, by anybody who sends "".
	GMSecret string `env:"ENCOUNTER_GM_SECRET,notEmpty"`

	// StateFile is where the roster document is persisted.
	StateFile string `env:"ENCOUNTER_STATE_FILE" envDefault:"state.json"`

	// AllowedOrigins restricts browser origins for CORS and the WebSocket
	// upgrade. Empty means any origin is accepted (development).
	AllowedOrigins []string `env:"ENCOUNTER_ALLOWED_ORIGINS" envSeparator:","`

	// LogFormat selects the slog handler: "text" (default) or "json".
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}
