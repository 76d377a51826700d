// Package config provides process-wide configuration loading and validation.
// It uses koanf to merge environment variables with optional file overrides;
// environment variables take precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the monitor and analyzer
// binaries. The core components treat it as read-only.
type Config struct {
	// Working directory. Session output lands under <work_dir>/live_output.
	WorkDir string `koanf:"work_dir"`
	Env     string `koanf:"env"`

	// Language for operator-facing log messages ("en" or "zh").
	Language string `koanf:"language"`

	// Chat mark configuration
	MarkFile string `koanf:"mark_file"`

	// Live feed transport
	FeedURL      string        `koanf:"feed_url"`
	StatusAPIURL string        `koanf:"status_api_url"`
	MaxRetry     int           `koanf:"max_retry"`
	RetryAfter   time.Duration `koanf:"retry_after"`

	// Gift ID excluded from revenue analytics (free promotional gift).
	FreeGiftID int64 `koanf:"free_gift_id"`

	// Metrics endpoint listen address; empty disables the endpoint.
	MetricsAddr string `koanf:"metrics_addr"`

	// Optional Redis live-status publisher; empty disables it.
	RedisAddr string `koanf:"redis_addr"`

	// Optional S3-compatible artifact archive; empty bucket disables it.
	ArchiveBucket    string `koanf:"archive_bucket"`
	ArchiveEndpoint  string `koanf:"archive_endpoint"`
	ArchiveAccessKey string `koanf:"archive_access_key"`
	ArchiveSecretKey string `koanf:"archive_secret_key"`
}

// Configuration validation errors.
var (
	ErrMissingFeedURL      = errors.New("LIVESIGHT_FEED_URL is required")
	ErrMissingStatusAPIURL = errors.New("LIVESIGHT_STATUS_API_URL is required")
	ErrInvalidMaxRetry     = errors.New("LIVESIGHT_MAX_RETRY must not be negative")
	ErrInvalidRetryAfter   = errors.New("LIVESIGHT_RETRY_AFTER must be positive")
	ErrInvalidLanguage     = errors.New("LIVESIGHT_LANGUAGE must be \"en\" or \"zh\"")
	ErrIncompleteArchive   = errors.New("archive bucket requires endpoint, access key and secret key")
)

// Default values for non-secret configuration.
const (
	DefaultEnv        = "development"
	DefaultLanguage   = "en"
	DefaultMarkFile   = ".danmu_mark"
	DefaultMaxRetry   = 10
	DefaultRetryAfter = time.Second
	DefaultFreeGiftID = 31531
)

// Load reads configuration from environment variables and an optional YAML
// file. Environment variables take precedence over file values. Returns the
// loaded config and a slice of validation errors (empty if valid).
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// File values load first so env vars override them.
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	maxRetry, retryErr := getEnvIntOrDefault("LIVESIGHT_MAX_RETRY", k.Int("max_retry"), DefaultMaxRetry)
	if retryErr != nil {
		loadErrs = append(loadErrs, retryErr)
	}

	retryAfter := DefaultRetryAfter
	if k.Exists("retry_after") {
		retryAfter = k.Duration("retry_after")
	}
	if val := os.Getenv("LIVESIGHT_RETRY_AFTER"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			loadErrs = append(loadErrs, fmt.Errorf("LIVESIGHT_RETRY_AFTER: %w", err))
		} else {
			retryAfter = d
		}
	}

	freeGiftID, giftErr := getEnvInt64OrDefault("LIVESIGHT_FREE_GIFT_ID", k.Int64("free_gift_id"), DefaultFreeGiftID)
	if giftErr != nil {
		loadErrs = append(loadErrs, giftErr)
	}

	cfg := &Config{
		WorkDir:          getEnvOrKoanf("LIVESIGHT_WORK_DIR", k, "work_dir"),
		Env:              getEnvOrDefault("LIVESIGHT_ENV", k.String("env"), DefaultEnv),
		Language:         getEnvOrDefault("LIVESIGHT_LANGUAGE", k.String("language"), DefaultLanguage),
		MarkFile:         getEnvOrDefault("LIVESIGHT_MARK_FILE", k.String("mark_file"), DefaultMarkFile),
		FeedURL:          getEnvOrKoanf("LIVESIGHT_FEED_URL", k, "feed_url"),
		StatusAPIURL:     getEnvOrKoanf("LIVESIGHT_STATUS_API_URL", k, "status_api_url"),
		MaxRetry:         maxRetry,
		RetryAfter:       retryAfter,
		FreeGiftID:       freeGiftID,
		MetricsAddr:      getEnvOrKoanf("LIVESIGHT_METRICS_ADDR", k, "metrics_addr"),
		RedisAddr:        getEnvOrKoanf("LIVESIGHT_REDIS_ADDR", k, "redis_addr"),
		ArchiveBucket:    getEnvOrKoanf("LIVESIGHT_ARCHIVE_BUCKET", k, "archive_bucket"),
		ArchiveEndpoint:  getEnvOrKoanf("LIVESIGHT_ARCHIVE_ENDPOINT", k, "archive_endpoint"),
		ArchiveAccessKey: getEnvOrKoanf("LIVESIGHT_ARCHIVE_ACCESS_KEY", k, "archive_access_key"),
		ArchiveSecretKey: getEnvOrKoanf("LIVESIGHT_ARCHIVE_SECRET_KEY", k, "archive_secret_key"),
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)
	return cfg, errs
}

// Validate checks the configuration and returns all violations. A missing
// working directory is not an error: callers fall back to the current
// directory with a warning.
func (c *Config) Validate() []error {
	var errs []error
	if c.FeedURL == "" {
		errs = append(errs, ErrMissingFeedURL)
	}
	if c.StatusAPIURL == "" {
		errs = append(errs, ErrMissingStatusAPIURL)
	}
	if c.MaxRetry < 0 {
		errs = append(errs, ErrInvalidMaxRetry)
	}
	if c.RetryAfter <= 0 {
		errs = append(errs, ErrInvalidRetryAfter)
	}
	if c.Language != "en" && c.Language != "zh" {
		errs = append(errs, ErrInvalidLanguage)
	}
	if c.ArchiveBucket != "" {
		if c.ArchiveEndpoint == "" || c.ArchiveAccessKey == "" || c.ArchiveSecretKey == "" {
			errs = append(errs, ErrIncompleteArchive)
		}
	}
	return errs
}

// EffectiveWorkDir returns the configured working directory, or "." when it
// is unset.
func (c *Config) EffectiveWorkDir() string {
	if c.WorkDir == "" {
		return "."
	}
	return c.WorkDir
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the
// koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise
// the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault parses an integer environment variable, falling back to
// the koanf value when the variable is unset, then to the default.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return defaultVal, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return parsed, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvInt64OrDefault is getEnvIntOrDefault for 64-bit values.
func getEnvInt64OrDefault(envKey string, koanfVal int64, defaultVal int64) (int64, error) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return defaultVal, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return parsed, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}
