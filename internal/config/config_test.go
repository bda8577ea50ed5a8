package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zoocore.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(PathEnv, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
storage:
  driver: postgres
  postgres_dsn: postgres://file/zoo
blob:
  driver: s3
  s3:
    bucket: from-file
    path_style: true
log:
  level: debug
  format: console
metrics:
  enabled: false
`)
	t.Setenv("ZOOCORE_POSTGRES_DSN", "postgres://env/zoo")
	t.Setenv("ZOOCORE_HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("ZOOCORE_TRACING_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.PostgresDSN != "postgres://env/zoo" {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
	if cfg.Storage.SQLitePath != "zoocore.db" {
		t.Fatalf("file must not clear unset defaults, got %q", cfg.Storage.SQLitePath)
	}
	if cfg.Blob.Driver != "s3" || cfg.Blob.S3.Bucket != "from-file" || !cfg.Blob.S3.PathStyle || cfg.Blob.S3.Region != "us-east-1" {
		t.Fatalf("unexpected blob %+v", cfg.Blob)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9000" || cfg.Metrics.Enabled || !cfg.Tracing.Enabled {
		t.Fatalf("unexpected http/metrics/tracing %+v %+v %+v", cfg.HTTP, cfg.Metrics, cfg.Tracing)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "console" {
		t.Fatalf("unexpected log %+v", cfg.Log)
	}
}

func TestLoadUsesPathEnv(t *testing.T) {
	path := writeFile(t, "storage:\n  driver: memory\n")
	t.Setenv(PathEnv, path)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("expected memory driver from %s, got %q", PathEnv, cfg.Storage.Driver)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(PathEnv, "")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("expected read error, got %v", err)
	}
	if _, err := Load(writeFile(t, "storage: [not, a, map]")); err == nil || !strings.Contains(err.Error(), "decode config") {
		t.Fatalf("expected decode error, got %v", err)
	}
	t.Setenv("ZOOCORE_METRICS_ENABLED", "maybe")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Fatalf("expected env error, got %v", err)
	}
}

func TestValidateAggregatesProblems(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "mongo"
	cfg.Blob.Driver = "s3"
	cfg.Log.Level = "loud"
	cfg.Log.MaxBackups = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"storage.driver", "blob.s3.bucket", "log.level", "rotation limits"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
	if strings.Contains(err.Error(), "log.format") {
		t.Fatalf("valid fields must not be reported: %v", err)
	}
}

func TestValidateAcceptsEmptyDrivers(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = ""
	cfg.Blob.Driver = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected empty drivers to be accepted, got %v", err)
	}
}
