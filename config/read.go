package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/constants"
)

// ReadConfig loads config.yaml from configPath, then applies TIMESHEET_*
// environment overrides and validates the result.
func ReadConfig(configPath string) (*Config, error) {
	// A local .env is optional; real environment variables still win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	// Allow env vars to override config values.
	// e.g. TIMESHEET_MONGO_URI overrides mongo.uri
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// The config file is optional in container deployments.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// Default returns a configuration populated only with defaults. Used by tests
// and by commands that run without a config file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 15)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.rate_limit.max", 60)
	v.SetDefault("server.rate_limit.expiration_seconds", 60)

	v.SetDefault("store.driver", constants.StoreDriverMemory)
	v.SetDefault("mongo.database", "timesheet")
	v.SetDefault("mongo.connect_timeout_seconds", 10)

	v.SetDefault("review.max_rework_attempts", 3)
	v.SetDefault("review.next_task_deadline_days", 7)
	v.SetDefault("review.lenient_notes", false)
	v.SetDefault("review.allowed_code_hosts", []string{"github.com", "www.github.com"})
	v.SetDefault("review.allowed_video_hosts", []string{
		"youtube.com", "www.youtube.com", "youtu.be",
		"vimeo.com", "www.vimeo.com",
		"loom.com", "www.loom.com",
		"drive.google.com",
	})
	v.SetDefault("review.analytics_cache_seconds", 60)

	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.issuer", constants.AppName)
	v.SetDefault("authentication.paseto.audience", constants.AppName+"-api")
	v.SetDefault("authentication.paseto.access_ttl_minutes", 60)

	v.SetDefault("authorization.enable_audit", true)

	v.SetDefault("email.app_name", "Timesheet")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.timeout_seconds", 30)

	v.SetDefault("observability.service_name", constants.AppName)
	v.SetDefault("observability.service_version", "dev")
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)
}
