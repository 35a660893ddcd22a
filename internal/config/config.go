// Package config loads runtime settings from the environment (populated by
// the .env file in main.go) and the optional endpoint catalog file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SinkS3    = "s3"
	SinkLocal = "local"
)

// Config holds all configuration for a run.
type Config struct {
	APIBaseURL  string
	APIKey      string
	HTTPTimeout time.Duration
	RatePerSec  float64

	MaxAttempts  int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	Concurrency  int
	RunTimeout   time.Duration
	Pages        int
	MatchIDs     []string
	RunTimezone  string
	ScheduleSpec string

	S3Bucket           string
	S3Prefix           string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	AWSEndpointURL     string

	MongoConnString string
	MongoDatabase   string
	SQLConnString   string

	LogFile  string
	LogLevel string
}

// LoadConfig reads settings from environment variables, applying defaults.
// Credentials are checked later by Validate, once the sink is known.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIBaseURL:   strings.TrimRight(getEnv("OPENDOTA_BASE_URL", "https://api.opendota.com/api"), "/"),
		APIKey:       os.Getenv("OPENDOTA_API_KEY"),
		RunTimezone:  getEnv("RUN_TIMEZONE", "UTC"),
		ScheduleSpec: getEnv("EXTRACT_SCHEDULE", "0 3 1 * *"),

		S3Bucket:           getEnv("S3_BUCKET", "scarstimeslake"),
		S3Prefix:           strings.Trim(getEnv("S3_PREFIX", "dota/stage/api/full-load"), "/"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:     os.Getenv("AWS_ENDPOINT_URL"),

		MongoConnString: os.Getenv("MONGO_CONNECTION_STRING"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "dota"),
		SQLConnString:   os.Getenv("SQL_CONNECTION_STRING"),

		LogFile:  os.Getenv("EXTRACT_LOG_FILE"),
		LogLevel: getEnv("EXTRACT_LOG_LEVEL", "info"),
	}

	var err error
	if cfg.HTTPTimeout, err = getDuration("OPENDOTA_HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RatePerSec, err = getFloat("OPENDOTA_RATE_PER_SEC", 1); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = getInt("EXTRACT_MAX_ATTEMPTS", 4); err != nil {
		return nil, err
	}
	if cfg.BackoffBase, err = getDuration("EXTRACT_BACKOFF_BASE", time.Second); err != nil {
		return nil, err
	}
	if cfg.BackoffMax, err = getDuration("EXTRACT_BACKOFF_MAX", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = getInt("EXTRACT_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.RunTimeout, err = getDuration("EXTRACT_RUN_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Pages, err = getInt("OPENDOTA_PAGES", 1); err != nil {
		return nil, err
	}
	cfg.MatchIDs = splitList(os.Getenv("OPENDOTA_MATCH_IDS"))

	if cfg.MaxAttempts < 1 {
		return nil, errors.New("EXTRACT_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.Concurrency < 1 {
		return nil, errors.New("EXTRACT_CONCURRENCY must be at least 1")
	}
	if cfg.Pages < 1 {
		return nil, errors.New("OPENDOTA_PAGES must be at least 1")
	}
	if cfg.RatePerSec <= 0 {
		return nil, errors.New("OPENDOTA_RATE_PER_SEC must be positive")
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings needed by the chosen sink.
func (c *Config) Validate(sink string) error {
	switch sink {
	case SinkS3:
		if c.AWSAccessKeyID == "" || c.AWSSecretAccessKey == "" {
			return errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY environment variables must be set for the s3 sink")
		}
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET environment variable not set")
		}
	case SinkLocal:
	default:
		return fmt.Errorf("unknown sink %q", sink)
	}
	return nil
}

// Location resolves RunTimezone, which decides the calendar date of a run.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.RunTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid RUN_TIMEZONE %q: %w", c.RunTimezone, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
