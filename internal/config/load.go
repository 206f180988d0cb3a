package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from the environment and an optional config file.
// A .env file in the working directory is loaded first (missing is fine),
// then environment variables with the TODO_ prefix take precedence over
// values from config.yaml. Returns a populated Config or an error if
// loading or validation fails.
func Load() (*Config, error) {
	// Bootstrap process env from .env when present. Errors other than
	// "file not found" are ignored deliberately; viper validation below
	// catches anything that matters.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TODO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// The config file is optional; only fail on parse errors.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults so that only secrets and the database URL
// are mandatory in the environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age_minutes", 30)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("upload.dir", "uploads")

	// Make sure env-only keys are visible to Unmarshal even without a file.
	for _, key := range []string{
		"database.url",
		"auth.jwt_secret",
		"mail.host",
		"mail.from",
		"mail.username",
		"mail.password",
	} {
		v.SetDefault(key, "")
	}
}
