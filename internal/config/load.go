package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config.yaml and from
// environment variables with the WORDBRIDGE_ prefix. Environment
// variables take precedence over values from the config file, which in
// turn override the built-in defaults. Returns a populated Config struct
// or an error if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults carry it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("WORDBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.health_port", 8081)

	// Keys without meaningful defaults still need to be registered so
	// AutomaticEnv-sourced values survive Unmarshal.
	v.SetDefault("database.url", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("queue.amqp_url", "")

	v.SetDefault("queue.queue_name", "upload-jobs")
	v.SetDefault("queue.poll_timeout_seconds", 3)
	v.SetDefault("queue.fallback_buffer_size", 256)

	v.SetDefault("worker.sweep_interval_seconds", 300)
	v.SetDefault("worker.stale_processing_age_minutes", 10)
	v.SetDefault("worker.pending_grace_seconds", 120)
	v.SetDefault("worker.sweep_batch_size", 10)
	v.SetDefault("worker.max_sweep_retries", 5)
	v.SetDefault("worker.stop_after", 0)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_seconds", 1.5)
	v.SetDefault("retry.cap_seconds", 30.0)
	v.SetDefault("retry.jitter", true)

	v.SetDefault("analysis.min_initial_words", 200)
	v.SetDefault("analysis.min_update_words", 100)
	v.SetDefault("analysis.baseline_word_limit", 60)
	v.SetDefault("analysis.target_batch_size", 5)
	v.SetDefault("analysis.min_safe_recommendations", 5)
	v.SetDefault("analysis.filter_enabled", true)
	v.SetDefault("analysis.blocked_words_file", "")

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
}
