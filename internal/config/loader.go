package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigErrorType classifies configuration failures.
type ConfigErrorType string

const (
	ErrParsing    ConfigErrorType = "PARSING"
	ErrValidation ConfigErrorType = "VALIDATION"
)

// ConfigError is returned by Load when the environment cannot be turned into a
// valid Config.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load reads .env (if present), processes the environment and validates the
// result.
func Load() (*Config, error) {
	return load(".env")
}

func load(dotenvFiles ...string) (*Config, error) {
	// A missing .env is not an error and existing variables are never overridden.
	_ = godotenv.Load(dotenvFiles...)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}
	return &cfg, nil
}
