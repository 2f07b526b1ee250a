// Package config manages configuration for the pillarscan service.
// It uses Viper for unified configuration management from environment
// variables with sensible defaults for local development.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pillarscan/internal/constants"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the service configuration. All values can be supplied through
// environment variables with the PILLARSCAN_ prefix, e.g. PILLARSCAN_TABLE_NAME.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	Port        int    `mapstructure:"port" validate:"gt=0,lte=65535"`

	// Storage
	TableName string `mapstructure:"table_name" validate:"required"`
	AWSRegion string `mapstructure:"aws_region" validate:"required"`

	// Scanning
	HomeRegion     string        `mapstructure:"home_region" validate:"required"`
	ScanWorkers    int           `mapstructure:"scan_workers" validate:"gt=0"`
	ScanQueueDepth int           `mapstructure:"scan_queue_depth" validate:"gt=0"`
	PhaseTimeout   time.Duration `mapstructure:"phase_timeout"`

	// Bedrock
	BedrockModelID string `mapstructure:"bedrock_model_id" validate:"required"`
	ModelMaxTokens int32  `mapstructure:"model_max_tokens" validate:"gt=0"`

	// Security
	EncryptionKey string `mapstructure:"encryption_key" validate:"required,len=64"`

	// HTTP
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

var validate = validator.New()

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PILLARSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", string(constants.Development))
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 8080)
	v.SetDefault("table_name", "WellArchitectedApp")
	v.SetDefault("aws_region", "ap-southeast-1")
	v.SetDefault("home_region", "us-east-1")
	v.SetDefault("scan_workers", 2)
	v.SetDefault("scan_queue_depth", 16)
	v.SetDefault("phase_timeout", 5*time.Minute)
	v.SetDefault("bedrock_model_id", "anthropic.claude-sonnet-4-20250514-v1:0")
	v.SetDefault("model_max_tokens", 4096)
	v.SetDefault("request_timeout", 30*time.Second)
}

// bindEnvVars binds every config key explicitly. AutomaticEnv alone does not
// surface keys that were never set through another source.
func bindEnvVars(v *viper.Viper) {
	keys := []string{
		"environment",
		"log_level",
		"port",
		"table_name",
		"aws_region",
		"home_region",
		"scan_workers",
		"scan_queue_depth",
		"phase_timeout",
		"bedrock_model_id",
		"model_max_tokens",
		"encryption_key",
		"request_timeout",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// Env returns the typed runtime environment.
func (c *Config) Env() constants.Environment {
	if strings.EqualFold(c.Environment, string(constants.Production)) {
		return constants.Production
	}
	return constants.Development
}

// SlogLevel converts the configured log level string into a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
