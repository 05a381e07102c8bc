package domain

import "time"

// Envelope kinds recognized by the schema normalizer. Each inbound wire
// shape is parsed by its own adapter; anything else falls through to the
// generic single-value form.
const (
	EnvelopeFactory = "factory"
	EnvelopeLegacy  = "sensors"
	EnvelopeGeneric = "generic"
)

// Reading is the canonical normalized telemetry record that flows from the
// broker callback through the queue into the worker. Machine and sensor ids
// are the opaque logical ids emitted by field devices; entity resolution
// maps them to persisted rows later, inside the worker.
type Reading struct {
	MachineID  string
	SensorID   string
	Values     map[string]float64
	Primary    string
	Unit       string
	SensorType string
	Status     string
	Timestamp  time.Time
	Topic      string
	Location   string
	Kind       string
	Meta       map[string]any
}

// Value collapses the values map into the scalar persisted on the sample
// row: the mean of all numeric readings. Single-metric records (the common
// case after fan-out) return their one value unchanged.
func (r *Reading) Value() float64 {
	if len(r.Values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range r.Values {
		sum += v
	}
	return sum / float64(len(r.Values))
}
