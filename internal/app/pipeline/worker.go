package pipeline

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/adapters/inference"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/decision"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/resolve"
)

// SampleBuffer receives every persisted sample for the cold-path archive.
// Add must not block.
type SampleBuffer interface {
	Add(s *domain.TelemetrySample)
}

// Policy holds the worker's tunables.
type Policy struct {
	// IdleSleep is how long the worker sleeps when the queue is empty.
	IdleSleep time.Duration

	// ScoreThreshold is the prediction score above which an alert is sent
	// even when the returned status and label look benign.
	ScoreThreshold float64
}

func (p *Policy) applyDefaults() {
	if p.IdleSleep <= 0 {
		p.IdleSleep = 5 * time.Millisecond
	}
	if p.ScoreThreshold <= 0 {
		p.ScoreThreshold = 0.7
	}
}

// Worker is the single consumer of the reading queue. All sequential
// effects happen here, one message at a time: entity resolution, sample
// persistence, the decision step, and the inference bridge. The broker
// callback's only job is enqueue; everything that can suspend lives in
// this loop.
type Worker struct {
	queue       ports.ReadingQueue
	resolver    *resolve.Resolver
	store       ports.Store
	engine      *decision.Engine
	predictor   ports.Predictor
	broadcaster ports.Broadcaster
	notifier    ports.Notifier
	archive     SampleBuffer
	obs         ports.Observability
	pol         Policy
}

// Deps bundles the worker's collaborators. Predictor, Broadcaster,
// Notifier and Archive are optional; the corresponding step is skipped
// when nil.
type Deps struct {
	Queue       ports.ReadingQueue
	Resolver    *resolve.Resolver
	Store       ports.Store
	Engine      *decision.Engine
	Predictor   ports.Predictor
	Broadcaster ports.Broadcaster
	Notifier    ports.Notifier
	Archive     SampleBuffer
	Obs         ports.Observability
}

func NewWorker(d Deps, pol Policy) *Worker {
	pol.applyDefaults()
	return &Worker{
		queue:       d.Queue,
		resolver:    d.Resolver,
		store:       d.Store,
		engine:      d.Engine,
		predictor:   d.Predictor,
		broadcaster: d.Broadcaster,
		notifier:    d.Notifier,
		archive:     d.Archive,
		obs:         d.Obs,
		pol:         pol,
	}
}

// Run drains the queue until ctx is cancelled. The message being handled
// when cancellation arrives is finished first, so a persisted sample is
// never half-written; later steps for messages still queued are skipped.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r, ok := w.queue.Dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.pol.IdleSleep):
			}
			continue
		}
		w.process(ctx, r)
	}
}

// process runs the full per-message sequence. Resolution or persistence
// failure drops the message; decision and inference failures do not.
func (w *Worker) process(ctx context.Context, r *domain.Reading) {
	machine, err := w.resolver.Machine(ctx, r)
	if err != nil {
		w.obs.RecordDrop(r.Topic, err)
		return
	}
	sensor, err := w.resolver.Sensor(ctx, machine, r)
	if err != nil {
		w.obs.RecordDrop(r.Topic, err)
		return
	}

	sample := &domain.TelemetrySample{
		MachineID: machine.ID,
		SensorID:  sensor.ID,
		Timestamp: r.Timestamp,
		Value:     r.Value(),
		Status:    r.Status,
		Metadata:  sampleMetadata(r),
	}
	if err := w.store.InsertSample(ctx, sample); err != nil {
		w.obs.RecordDrop(r.Topic, fmt.Errorf("insert sample: %w", err))
		return
	}
	w.obs.IncCounter("pm_samples_ingested_total", 1)
	if w.archive != nil {
		w.archive.Add(sample)
	}

	w.decisionStep(ctx, machine, sensor, r)
	w.inferenceStep(ctx, machine, sensor, r)
}

// decisionStep feeds the trend engine and applies any confirmed
// transition. It is best-effort: a panic or store error here is logged
// and swallowed so it can never take down sample persistence or stall
// the queue.
func (w *Worker) decisionStep(ctx context.Context, machine *domain.Machine, sensor *domain.Sensor, r *domain.Reading) {
	if w.engine == nil || !w.engine.Eligible(machine) {
		return
	}
	variable := decision.CanonicalVariable(sensor.Name)
	if variable == "" {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			w.obs.LogError("decision step panicked", fmt.Errorf("%v", rec),
				ports.Field{Key: "machine", Value: machine.Name},
				ports.Field{Key: "variable", Value: variable})
		}
	}()

	tr := w.engine.Observe(machine.ID, variable, r.Value(), r.Timestamp)
	if tr == nil {
		return
	}

	inc := &domain.Incident{
		MachineID:   tr.MachineID,
		Variable:    tr.Variable,
		FromProfile: string(tr.From),
		ToProfile:   string(tr.To),
		Severity:    tr.Severity(),
		Message:     tr.Message(),
		ObservedAt:  tr.ObservedAt,
	}
	if err := w.store.InsertIncident(ctx, inc); err != nil {
		w.obs.LogError("incident insert failed", err,
			ports.Field{Key: "machine", Value: machine.Name},
			ports.Field{Key: "variable", Value: variable})
		return
	}
	w.obs.IncCounter("pm_incidents_total", 1)
	w.obs.LogInfo("profile transition",
		ports.Field{Key: "machine", Value: machine.Name},
		ports.Field{Key: "variable", Value: variable},
		ports.Field{Key: "from", Value: string(tr.From)},
		ports.Field{Key: "to", Value: string(tr.To)})
	if w.broadcaster != nil {
		w.broadcaster.Publish("incident.created", inc)
	}
}

// inferenceStep calls the external model and persists its answer. Any
// failure is logged and skipped: the sample is already durable and the
// worker moves on to the next message.
func (w *Worker) inferenceStep(ctx context.Context, machine *domain.Machine, sensor *domain.Sensor, r *domain.Reading) {
	if w.predictor == nil {
		return
	}

	req := &ports.PredictionRequest{
		MachineID: machine.Name,
		SensorID:  sensor.Name,
		Timestamp: r.Timestamp,
		Readings:  readingsFor(sensor, r),
	}

	start := time.Now()
	res, err := w.predictor.Predict(ctx, req)
	elapsed := time.Since(start)
	w.obs.ObserveLatency("pm_inference_latency_seconds", elapsed.Seconds())
	if err != nil {
		w.obs.LogError("inference call failed", err,
			ports.Field{Key: "machine", Value: machine.Name},
			ports.Field{Key: "sensor", Value: sensor.Name})
		return
	}

	responseMs := res.ResponseTimeMs
	if responseMs == 0 {
		responseMs = float64(elapsed.Milliseconds())
	}
	meta := make(datatypes.JSONMap, len(res.Raw)+1)
	for k, v := range res.Raw {
		meta[k] = v
	}
	meta["inference_latency_ms"] = float64(elapsed.Milliseconds())
	pred := &domain.Prediction{
		MachineID:            machine.ID,
		SensorID:             sensor.ID,
		Timestamp:            r.Timestamp,
		Label:                res.Label,
		Status:               res.Status,
		Score:                res.Score,
		Confidence:           res.Confidence,
		AnomalyType:          res.AnomalyType,
		ModelVersion:         res.ModelVersion,
		RemainingUsefulLife:  res.RemainingUsefulLife,
		ResponseTimeMs:       responseMs,
		ContributingFeatures: toJSONMap(res.ContributingFeatures),
		Metadata:             meta,
	}
	if err := w.store.InsertPrediction(ctx, pred); err != nil {
		w.obs.LogError("prediction insert failed", err,
			ports.Field{Key: "machine", Value: machine.Name})
		return
	}
	w.obs.IncCounter("pm_predictions_total", 1)
	if w.broadcaster != nil {
		w.broadcaster.Publish("prediction.created", pred)
	}

	if w.shouldAlert(res) && w.notifier != nil {
		alert := ports.Alert{
			MachineID:  machine.Name,
			SensorID:   sensor.Name,
			Status:     res.Status,
			Score:      res.Score,
			Confidence: res.Confidence,
		}
		if err := w.notifier.SendAlert(ctx, alert); err != nil {
			w.obs.LogError("alert delivery failed", err,
				ports.Field{Key: "machine", Value: machine.Name})
		}
	}
}

func (w *Worker) shouldAlert(res *ports.PredictionResult) bool {
	switch res.Status {
	case "warning", "critical":
		return true
	}
	return res.Label == "anomaly" || res.Score > w.pol.ScoreThreshold
}

// readingsFor picks the metric map sent to the model: multi-metric records
// keep their full map, single-value ones get one canonical key derived
// from the sensor name.
func readingsFor(sensor *domain.Sensor, r *domain.Reading) map[string]float64 {
	if len(r.Values) > 1 {
		out := make(map[string]float64, len(r.Values))
		for k, v := range r.Values {
			out[k] = v
		}
		return out
	}
	return map[string]float64{inference.MetricKey(sensor.Name): r.Value()}
}

func sampleMetadata(r *domain.Reading) datatypes.JSONMap {
	meta := datatypes.JSONMap{
		"envelope": r.Kind,
		"topic":    r.Topic,
		"primary":  r.Primary,
	}
	if len(r.Values) > 1 {
		values := make(map[string]any, len(r.Values))
		for k, v := range r.Values {
			values[k] = v
		}
		meta["values"] = values
	}
	if r.Unit != "" {
		meta["unit"] = r.Unit
	}
	return meta
}

func toJSONMap(m map[string]float64) datatypes.JSONMap {
	if len(m) == 0 {
		return nil
	}
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
