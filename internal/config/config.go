// Package config loads process configuration from the environment, after
// an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Auth    AuthConfig
	Blob    BlobConfig
	Notify  NotifyConfig
	Metrics MetricsConfig
	// Seed loads the demo records at startup.
	Seed    bool
}

type ServerConfig struct {
	Addr string
	Env  string
}

// Production reports whether APP_ENV selects production behaviour.
func (s ServerConfig) Production() bool { return s.Env == "production" }

type LogConfig struct {
	Level string
}

type AuthConfig struct {
	Secret string
	TTL    time.Duration
}

type BlobConfig struct {
	Driver    string
	FSRoot    string
	PublicURL string
	S3        S3Config
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

type NotifyConfig struct {
	RemoveDelay time.Duration
}

type MetricsConfig struct {
	Prefix string
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr: getEnv("EVICTIONCRM_HTTP_ADDR", ":8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			Secret: getEnv("EVICTIONCRM_AUTH_SECRET", ""),
			TTL:    getEnvAsDuration("EVICTIONCRM_AUTH_TTL", 24*time.Hour),
		},
		Blob: BlobConfig{
			Driver:    getEnv("EVICTIONCRM_BLOB_DRIVER", "fs"),
			FSRoot:    getEnv("EVICTIONCRM_BLOB_FS_ROOT", "./blobdata"),
			PublicURL: getEnv("EVICTIONCRM_BLOB_PUBLIC_URL", ""),
			S3: S3Config{
				Bucket:    getEnv("EVICTIONCRM_BLOB_S3_BUCKET", ""),
				Region:    getEnv("EVICTIONCRM_BLOB_S3_REGION", "us-east-1"),
				Endpoint:  getEnv("EVICTIONCRM_BLOB_S3_ENDPOINT", ""),
				PathStyle: getEnvAsBool("EVICTIONCRM_BLOB_S3_PATH_STYLE", false),
			},
		},
		Notify: NotifyConfig{
			RemoveDelay: getEnvAsDuration("EVICTIONCRM_NOTIFY_REMOVE_DELAY", 5*time.Second),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("EVICTIONCRM_METRICS_PREFIX", "evictioncrm"),
		},
		Seed: getEnvAsBool("EVICTIONCRM_SEED", true),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Blob.Driver {
	case "fs", "memory":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("EVICTIONCRM_BLOB_S3_BUCKET is required for the s3 blob driver")
		}
	default:
		return fmt.Errorf("unknown EVICTIONCRM_BLOB_DRIVER %q", c.Blob.Driver)
	}
	if c.Server.Production() && c.Auth.Secret == "" {
		return fmt.Errorf("EVICTIONCRM_AUTH_SECRET is required in production")
	}
	if c.Auth.TTL <= 0 {
		return fmt.Errorf("EVICTIONCRM_AUTH_TTL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
