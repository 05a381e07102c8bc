package pmbackend

import (
	base "github.com/Raufnarejo505/AI-Predictive-Maintaince/pkg/pmbackend"
)

// Re-exported errors for convenience.
var ErrChannelArchiveClosed = base.ErrChannelArchiveClosed

// Type aliases so consumers can import the module root directly.
type (
	Config            = base.Config
	MQTTConfig        = base.MQTTConfig
	QueueConfig       = base.QueueConfig
	StoreConfig       = base.StoreConfig
	ArchiveConfig     = base.ArchiveConfig
	InferenceConfig   = base.InferenceConfig
	DecisionConfig    = base.DecisionConfig
	DecisionBand      = base.DecisionBand
	BroadcastConfig   = base.BroadcastConfig
	NotifyConfig      = base.NotifyConfig
	MetricsConfig     = base.MetricsConfig
	Runtime           = base.Runtime
	Option            = base.Option
	Reading           = base.Reading
	Machine           = base.Machine
	Sensor            = base.Sensor
	TelemetrySample   = base.TelemetrySample
	Prediction        = base.Prediction
	Incident          = base.Incident
	Collector         = base.Collector
	ReadingQueue      = base.ReadingQueue
	Store             = base.Store
	Predictor         = base.Predictor
	PredictionRequest = base.PredictionRequest
	PredictionResult  = base.PredictionResult
	Broadcaster       = base.Broadcaster
	Notifier          = base.Notifier
	Alert             = base.Alert
	SampleArchive     = base.SampleArchive
	SampleBatchFunc   = base.SampleBatchFunc
	Observability     = base.Observability
	Field             = base.Field
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...Option) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithCollector(col Collector) Option {
	return base.WithCollector(col)
}

func WithQueue(q ReadingQueue) Option {
	return base.WithQueue(q)
}

func WithStore(s Store) Option {
	return base.WithStore(s)
}

func WithPredictor(p Predictor) Option {
	return base.WithPredictor(p)
}

func WithBroadcaster(b Broadcaster) Option {
	return base.WithBroadcaster(b)
}

func WithNotifier(n Notifier) Option {
	return base.WithNotifier(n)
}

func WithArchive(a SampleArchive) Option {
	return base.WithArchive(a)
}

func WithObservability(obs Observability) Option {
	return base.WithObservability(obs)
}

// Archive adapters.
func NewCallbackArchive(name string, fn SampleBatchFunc) SampleArchive {
	return base.NewCallbackArchive(name, fn)
}

func NewChannelArchive(name string, buffer int) (SampleArchive, <-chan []*TelemetrySample, func()) {
	return base.NewChannelArchive(name, buffer)
}
