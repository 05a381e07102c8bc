package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

// Obs backs the observability port with zap structured logs and Prometheus
// metrics registered on the default registry.
type Obs struct {
	log      *zap.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func New(log *zap.Logger) *Obs {
	ingested := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pm_samples_ingested_total",
		Help: "Total telemetry samples persisted to the store.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pm_messages_dropped_total",
		Help: "Messages rejected before or during processing.",
	})
	incidents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pm_incidents_total",
		Help: "Confirmed condition-profile transitions raised as incidents.",
	})
	predictions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pm_predictions_total",
		Help: "Predictions persisted from the inference service.",
	})
	archived := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pm_samples_archived_total",
		Help: "Samples flushed to the cold-path archive.",
	})
	reconnects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pm_broker_reconnects_total",
		Help: "Broker session drops that triggered a reconnect.",
	})
	broadcastDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pm_broadcast_dropped_total",
		Help: "Events dropped by the fire-and-forget broadcast hub.",
	})
	queueGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pm_queue_length",
		Help: "Current number of readings buffered in the ingestion queue.",
	})
	inferLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pm_inference_latency_seconds",
		Help:    "Round-trip latency of the external inference call.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})
	archiveLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pm_archive_flush_seconds",
		Help:    "Latency of archive batch flushes.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	prometheus.MustRegister(ingested, dropped, incidents, predictions, archived,
		reconnects, broadcastDrops, queueGauge, inferLatency, archiveLatency)

	return &Obs{
		log: log,
		counters: map[string]prometheus.Counter{
			"pm_samples_ingested_total":  ingested,
			"pm_messages_dropped_total":  dropped,
			"pm_incidents_total":         incidents,
			"pm_predictions_total":       predictions,
			"pm_samples_archived_total":  archived,
			"pm_broker_reconnects_total": reconnects,
			"pm_broadcast_dropped_total": broadcastDrops,
		},
		gauges: map[string]prometheus.Gauge{
			"pm_queue_length": queueGauge,
		},
		histos: map[string]prometheus.Observer{
			"pm_inference_latency_seconds": inferLatency,
			"pm_archive_flush_seconds":     archiveLatency,
		},
	}
}

func (o *Obs) LogInfo(msg string, fields ...ports.Field) {
	o.log.Info(msg, zapFields(fields)...)
}

func (o *Obs) LogError(msg string, err error, fields ...ports.Field) {
	o.log.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

func (o *Obs) LogCritical(msg string, err error, fields ...ports.Field) {
	o.log.Error(msg, append(zapFields(fields), zap.Error(err), zap.Bool("critical", true))...)
}

func (o *Obs) IncCounter(name string, v float64) {
	if c, ok := o.counters[name]; ok {
		c.Add(v)
	}
}

func (o *Obs) ObserveLatency(name string, seconds float64) {
	if h, ok := o.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (o *Obs) SetGauge(name string, v float64) {
	if g, ok := o.gauges[name]; ok {
		g.Set(v)
	}
}

func (o *Obs) RecordDrop(topic string, err error) {
	o.IncCounter("pm_messages_dropped_total", 1)
	o.log.Warn("message_dropped", zap.String("topic", topic), zap.Error(err))
}

func zapFields(fields []ports.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*Obs)(nil)
