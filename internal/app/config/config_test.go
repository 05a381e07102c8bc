package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker_url: tcp://localhost:1883
  topics:
    - factory/+/telemetry
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Queue.Capacity != 10_000 {
		t.Fatalf("expected queue capacity default 10000, got %d", cfg.Queue.Capacity)
	}
	if cfg.Queue.IdleSleep != 5*time.Millisecond {
		t.Fatalf("expected idle sleep default 5ms, got %s", cfg.Queue.IdleSleep)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Fatalf("expected default store driver sqlite, got %s", cfg.Store.Driver)
	}
	if cfg.Archive.Table != "samples_archive" {
		t.Fatalf("expected default archive table, got %s", cfg.Archive.Table)
	}
	if got := len(cfg.MQTT.Topics); got != 2 {
		t.Fatalf("expected configured topic plus default wildcard, got %d topics", got)
	}
	if cfg.Decision.ConfirmCount != 3 {
		t.Fatalf("expected confirm count default 3, got %d", cfg.Decision.ConfirmCount)
	}
	if cfg.Inference.ScoreThreshold != 0.7 {
		t.Fatalf("expected score threshold default 0.7, got %v", cfg.Inference.ScoreThreshold)
	}
}

func TestLoadRejectsMissingBroker(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: sqlite
  dsn: "file::memory:"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing broker url")
	}
}

func TestLoadRejectsArchiveWithoutConnString(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker_url: tcp://localhost:1883
archive:
  enabled: true
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for enabled archive without conn string")
	}
}

func TestLoadRejectsInvalidDecisionBands(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker_url: tcp://localhost:1883
decision:
  bands:
    temperature:
      warning_enter: 70
      warning_exit: 75
      critical_enter: 90
      critical_exit: 85
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for inverted hysteresis thresholds")
	}
}
