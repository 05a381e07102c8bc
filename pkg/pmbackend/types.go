package pmbackend

import (
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

// Reading is the canonical normalized telemetry record flowing from the
// collector through the queue into the worker. It is exported so custom
// collectors and queues can reference it.
type Reading = domain.Reading

// Persisted entities, exported for custom Store implementations.
type (
	Machine         = domain.Machine
	Sensor          = domain.Sensor
	TelemetrySample = domain.TelemetrySample
	Prediction      = domain.Prediction
	Incident        = domain.Incident
)

// Collector streams normalized readings from any source into the queue.
type Collector = ports.Collector

// ReadingQueue is the bounded buffer decoupling the collector callback
// from the worker.
type ReadingQueue = ports.ReadingQueue

// Store is the abstract persistent store consumed by the worker.
type Store = ports.Store

// Predictor is the outbound inference bridge.
type Predictor = ports.Predictor

// PredictionRequest and PredictionResult are the inference wire contract.
type (
	PredictionRequest = ports.PredictionRequest
	PredictionResult  = ports.PredictionResult
)

// Broadcaster publishes named events to real-time subscribers.
type Broadcaster = ports.Broadcaster

// Notifier delivers alerts for predictions that crossed the alert bar.
type Notifier = ports.Notifier

// Alert carries the fields given to a Notifier.
type Alert = ports.Alert

// SampleArchive consumes batches of persisted samples on the cold path.
type SampleArchive = ports.SampleArchive

// Observability emits logs and metrics about the pipeline.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field
