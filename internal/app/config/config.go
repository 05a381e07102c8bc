package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/inference"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/mqtt"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/notify"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/store"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/decision"
)

type Config struct {
	MQTT      mqtt.Config      `yaml:"mqtt"`
	Queue     QueueConfig      `yaml:"queue"`
	Store     store.Config     `yaml:"store"`
	Archive   ArchiveConfig    `yaml:"archive"`
	Inference inference.Config `yaml:"inference"`
	Decision  decision.Config  `yaml:"decision"`
	Broadcast BroadcastConfig  `yaml:"broadcast"`
	Notify    notify.Config    `yaml:"notify"`
	Metrics   MetricsConfig    `yaml:"metrics"`
}

type QueueConfig struct {
	Capacity  int           `yaml:"capacity"`
	IdleSleep time.Duration `yaml:"idle_sleep"`
}

// ArchiveConfig drives the optional TimescaleDB cold path. Disabled by
// default; the primary store holds all samples either way.
type ArchiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	ConnString    string        `yaml:"conn_string"`
	Table         string        `yaml:"table"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// BroadcastConfig toggles the websocket event hub, served on the metrics
// listener under /ws.
type BroadcastConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Queue.Capacity == 0 {
		c.Queue.Capacity = 10_000
	}
	if c.Queue.IdleSleep == 0 {
		c.Queue.IdleSleep = 5 * time.Millisecond
	}
	if c.Archive.Table == "" {
		c.Archive.Table = "samples_archive"
	}
	if c.Archive.BatchSize == 0 {
		c.Archive.BatchSize = 500
	}
	if c.Archive.FlushInterval == 0 {
		c.Archive.FlushInterval = 5 * time.Second
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}

	c.MQTT.ApplyDefaults()
	c.Store.ApplyDefaults()
	c.Inference.ApplyDefaults()
	c.Decision.ApplyDefaults()
	c.Notify.ApplyDefaults()
}

func (c *Config) Validate() error {
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt config: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}
	// Inference is optional; an empty url disables the bridge.
	if c.Inference.URL != "" {
		if err := c.Inference.Validate(); err != nil {
			return fmt.Errorf("inference config: %w", err)
		}
	}
	if err := c.Decision.Validate(); err != nil {
		return fmt.Errorf("decision config: %w", err)
	}
	if c.Archive.Enabled && c.Archive.ConnString == "" {
		return fmt.Errorf("archive.conn_string is required when the archive is enabled")
	}
	if c.Queue.Capacity < 0 {
		return fmt.Errorf("queue.capacity must be positive")
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	return nil
}
