package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.KeyPrefix != "policy-pdfs" {
		t.Errorf("Storage.KeyPrefix = %q, want policy-pdfs", cfg.Storage.KeyPrefix)
	}
	if cfg.Harvest.FetchTimeout != 30*time.Second {
		t.Errorf("Harvest.FetchTimeout = %s, want 30s", cfg.Harvest.FetchTimeout)
	}
	if cfg.Harvest.MaxPayloadSize != 50<<20 {
		t.Errorf("Harvest.MaxPayloadSize = %d, want %d", cfg.Harvest.MaxPayloadSize, 50<<20)
	}
	if cfg.Kafka.Enabled {
		t.Error("Kafka.Enabled defaults to true, want false")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9999
storage:
  backend: memory
  keyPrefix: test-pdfs
harvest:
  fetchTimeout: 5s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "memory" || cfg.Storage.KeyPrefix != "test-pdfs" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Harvest.FetchTimeout != 5*time.Second {
		t.Errorf("Harvest.FetchTimeout = %s, want 5s", cfg.Harvest.FetchTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	// Values the file does not mention keep their defaults.
	if cfg.Harvest.UserAgent == "" {
		t.Error("Harvest.UserAgent lost its default")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load(missing) error = nil, want read error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PH_SERVER_PORT", "7070")
	t.Setenv("PH_STORAGE_BACKEND", "memory")
	t.Setenv("PH_HARVEST_FETCH_TIMEOUT", "90s")
	t.Setenv("PH_KAFKA_ENABLED", "true")
	t.Setenv("PH_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Harvest.FetchTimeout != 90*time.Second {
		t.Errorf("Harvest.FetchTimeout = %s, want 90s", cfg.Harvest.FetchTimeout)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("Kafka = %+v", cfg.Kafka)
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: 5432, Database: "harvester",
		User: "u", Password: "p", SSLMode: "disable",
	}
	want := "host=db port=5432 user=u password=p dbname=harvester sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
