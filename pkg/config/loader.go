// Package config loads environment-based configuration structs.
//
// Each component declares its own Config struct with `env` tags; required
// secrets are marked `,required` so a missing one fails startup instead of
// surfacing as undefined behavior mid-request.
package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrParsingConfig is returned when environment variables cannot be parsed
// into the config struct.
var ErrParsingConfig = errors.New("failed to parse environment variables into config")

var defaultEnvLoaded sync.Once

// Load parses environment variables into the provided configuration struct.
// A .env file is loaded once per process if present; its absence is fine.
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		_ = godotenv.Load()
	})

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Used in main for
// configuration the application cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
