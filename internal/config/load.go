package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a
// config.yaml in the working directory. Environment variables take
// precedence over values from the config file.
//
// Nested keys map to environment variables with the BULKGPT_ prefix and
// underscores (e.g. server.port -> BULKGPT_SERVER_PORT). The two
// externally provisioned secrets are also read from their conventional
// unprefixed names: GEMINI_API_KEY and DATABASE_URL.
//
// Returns a populated Config struct or an error if loading or
// validation fails. A missing generation-service key or store DSN is a
// fatal configuration error: no rows can be processed without them.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("processing.max_concurrent_rows", 4)
	v.SetDefault("processing.dispatch_delay_ms", 0)
	v.SetDefault("processing.row_timeout_seconds", 3600)
	v.SetDefault("processing.batch_timeout_seconds", 86400)
	v.SetDefault("processing.worker_count", 2)
	v.SetDefault("processing.queue_size", 100)

	// Optional config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables with BULKGPT_ prefix override file values
	v.SetEnvPrefix("BULKGPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional unprefixed secret names used by the hosting platform
	if err := v.BindEnv("llm.gemini_api_key", "BULKGPT_LLM_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind gemini API key: %w", err)
	}
	if err := v.BindEnv("database.url", "BULKGPT_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind database URL: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
