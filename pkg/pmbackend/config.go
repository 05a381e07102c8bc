package pmbackend

import (
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/inference"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/mqtt"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/notify"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/store"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/app/config"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/decision"
)

// Config re-exports the root configuration struct so embedding projects
// can construct or modify it programmatically.
type Config = config.Config

type (
	// MQTTConfig holds broker connection and subscription details.
	MQTTConfig = mqtt.Config
	// QueueConfig bounds the in-memory reading queue.
	QueueConfig = config.QueueConfig
	// StoreConfig selects the backing database.
	StoreConfig = store.Config
	// ArchiveConfig drives the optional TimescaleDB cold path.
	ArchiveConfig = config.ArchiveConfig
	// InferenceConfig points at the external model endpoint.
	InferenceConfig = inference.Config
	// DecisionConfig tunes the trend engine's bands and windows.
	DecisionConfig = decision.Config
	// DecisionBand is one variable's hysteresis thresholds.
	DecisionBand = decision.Band
	// BroadcastConfig toggles the websocket event hub.
	BroadcastConfig = config.BroadcastConfig
	// NotifyConfig configures the SMTP alert channel.
	NotifyConfig = notify.Config
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
