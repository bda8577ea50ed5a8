// Package config loads zoocore settings from an optional YAML file and
// ZOOCORE_* environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// PathEnv names the variable consulted for a config file when none is passed explicitly.
const PathEnv = "ZOOCORE_CONFIG"

// Config is the root configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Blob    BlobConfig    `yaml:"blob"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// StorageConfig selects the persistent store.
type StorageConfig struct {
	Driver      string `yaml:"driver" env:"ZOOCORE_STORAGE_DRIVER"`
	SQLitePath  string `yaml:"sqlite_path" env:"ZOOCORE_SQLITE_PATH"`
	PostgresDSN string `yaml:"postgres_dsn" env:"ZOOCORE_POSTGRES_DSN"`
}

// BlobConfig selects where roster exports are written. An empty driver
// disables exports.
type BlobConfig struct {
	Driver string   `yaml:"driver" env:"ZOOCORE_BLOB_DRIVER"`
	FSRoot string   `yaml:"fs_root" env:"ZOOCORE_BLOB_FS_ROOT"`
	S3     S3Config `yaml:"s3"`
}

// S3Config holds S3 / MinIO settings. Empty keys fall back to the AWS
// default credential chain.
type S3Config struct {
	Bucket          string `yaml:"bucket" env:"ZOOCORE_BLOB_S3_BUCKET"`
	Region          string `yaml:"region" env:"ZOOCORE_BLOB_S3_REGION"`
	Endpoint        string `yaml:"endpoint" env:"ZOOCORE_BLOB_S3_ENDPOINT"`
	PathStyle       bool   `yaml:"path_style" env:"ZOOCORE_BLOB_S3_PATH_STYLE"`
	AccessKeyID     string `yaml:"access_key_id" env:"ZOOCORE_BLOB_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"ZOOCORE_BLOB_S3_SECRET_ACCESS_KEY"`
	SessionToken    string `yaml:"session_token" env:"ZOOCORE_BLOB_S3_SESSION_TOKEN"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr" env:"ZOOCORE_HTTP_ADDR"`
}

// LogConfig configures the zap logger. File enables rotating file output.
type LogConfig struct {
	Level      string `yaml:"level" env:"ZOOCORE_LOG_LEVEL"`
	Format     string `yaml:"format" env:"ZOOCORE_LOG_FORMAT"`
	File       string `yaml:"file" env:"ZOOCORE_LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"ZOOCORE_LOG_MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"ZOOCORE_LOG_MAX_BACKUPS"`
}

// MetricsConfig toggles the Prometheus recorder and /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"ZOOCORE_METRICS_ENABLED"`
}

// TracingConfig toggles OpenTelemetry spans around service operations and
// HTTP requests. Endpoint is an OTLP/HTTP collector URL; without it spans are
// recorded but not exported.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ZOOCORE_TRACING_ENABLED"`
	ServiceName string `yaml:"service_name" env:"ZOOCORE_TRACING_SERVICE_NAME"`
	Endpoint    string `yaml:"endpoint" env:"ZOOCORE_TRACING_ENDPOINT"`
}

var (
	storageDrivers = []string{"", "memory", "sqlite", "postgres"}
	blobDrivers    = []string{"", "fs", "s3", "memory"}
	logLevels      = []string{"debug", "info", "warn", "error"}
	logFormats     = []string{"console", "json"}
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: StorageConfig{Driver: "sqlite", SQLitePath: "zoocore.db"},
		Blob:    BlobConfig{FSRoot: "./blobdata", S3: S3Config{Region: "us-east-1"}},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Log:     LogConfig{Level: "info", Format: "json", MaxSizeMB: 100, MaxBackups: 3},
		Metrics: MetricsConfig{Enabled: true},
		Tracing: TracingConfig{ServiceName: "zoocore"},
	}
}

// Load builds a Config from defaults, then the YAML file at path (if any),
// then the environment. When path is empty, $ZOOCORE_CONFIG is used.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var result *multierror.Error
	check := func(field, value string, allowed []string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		result = multierror.Append(result, fmt.Errorf("%s: unsupported value %q", field, value))
	}
	check("storage.driver", c.Storage.Driver, storageDrivers)
	check("blob.driver", c.Blob.Driver, blobDrivers)
	check("log.level", c.Log.Level, logLevels)
	check("log.format", c.Log.Format, logFormats)
	if c.Blob.Driver == "s3" && c.Blob.S3.Bucket == "" {
		result = multierror.Append(result, errors.New("blob.s3.bucket: required for the s3 driver"))
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		result = multierror.Append(result, errors.New("log: rotation limits must be non-negative"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
