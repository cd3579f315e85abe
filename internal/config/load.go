package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a config
// file. Environment variables take precedence over values from config
// files. Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables with the SUBTEXT_ prefix, e.g.
	// SUBTEXT_PROVIDER_API_KEY overrides provider.api_key.
	v.SetEnvPrefix("SUBTEXT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for everything that has a sensible one.
// Keys without defaults (provider credentials) must come from the
// environment or a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("engine.worker_count", 2)
	v.SetDefault("engine.queue_size", 100)

	// Registered empty so AutomaticEnv can populate them during Unmarshal;
	// validation rejects the empty key.
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", "gpt-4o-mini")

	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.backoff_time", 2.0)
	v.SetDefault("provider.max_instruct_tokens", 2048)
	v.SetDefault("provider.supports_conversation", true)
	v.SetDefault("provider.supports_system_messages", true)
	v.SetDefault("provider.temperature", 0.0)

	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.exchange", "subtext.commands")
}
