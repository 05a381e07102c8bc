package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
)

// Rejection reasons. A rejected payload is logged and dropped, never
// enqueued and never retried.
var (
	ErrMalformedPayload = errors.New("normalize: payload is not valid JSON")
	ErrMissingMachineID = errors.New("normalize: no resolvable machine id")
	ErrMissingSensorID  = errors.New("normalize: no resolvable sensor id")
)

// factoryMetrics maps envelope field names to canonical sensor names, in
// deterministic fan-out order.
var factoryMetrics = []struct {
	field  string
	sensor string
}{
	{"temperature", "temperature"},
	{"vibration", "vibration"},
	{"pressure", "pressure"},
	{"motorCurrent", "motor_current"},
	{"wearIndex", "wear_index"},
}

// legacyMetrics is the fixed coercion order for the per-sensor envelope.
// The first key present becomes the primary metric.
var legacyMetrics = []string{
	"vibration", "temperature", "rpm", "pressure", "flow_rate", "motor_current",
}

var sensorUnits = map[string]string{
	"temperature":   "°C",
	"vibration":     "mm/s",
	"pressure":      "bar",
	"motor_current": "A",
	"wear_index":    "%",
}

// UnitFor returns the display unit for a canonical sensor name, or "".
func UnitFor(sensor string) string {
	return sensorUnits[sensor]
}

// Normalizer converts supported wire envelopes into canonical readings.
// The zero clock is receipt time; tests inject a fixed one.
type Normalizer struct {
	now func() time.Time
}

func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewWithClock is used by tests that need deterministic receipt times.
func NewWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize parses one broker message into zero or more readings. The
// multi-metric factory envelope fans out into one reading per present
// metric; other shapes produce exactly one.
func (n *Normalizer) Normalize(topic string, payload []byte) ([]*domain.Reading, error) {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	ts := n.timestampFrom(body)

	switch {
	case strings.Contains(topic, "factory/") && strings.Contains(topic, "telemetry"):
		return n.factoryEnvelope(topic, body, ts)
	case strings.Contains(topic, "sensors/") && strings.Contains(topic, "telemetry"):
		return n.legacyEnvelope(topic, body, ts)
	default:
		return n.genericEnvelope(topic, body, ts)
	}
}

// factoryEnvelope handles factory/<machine>/telemetry messages from the
// OPC UA edge gateway: one envelope carrying several named metrics. Each
// present metric becomes its own reading with a derived opcua_<metric>
// sensor id.
func (n *Normalizer) factoryEnvelope(topic string, body map[string]any, ts time.Time) ([]*domain.Reading, error) {
	machineID := machineIDFrom(body, topic)
	if machineID == "" {
		return nil, ErrMissingMachineID
	}

	profile, _ := body["profile"]

	var out []*domain.Reading
	for _, m := range factoryMetrics {
		raw, ok := body[m.field]
		if !ok {
			continue
		}
		v, ok := toFloat(raw)
		if !ok {
			continue
		}
		out = append(out, &domain.Reading{
			MachineID:  machineID,
			SensorID:   "opcua_" + m.sensor,
			Values:     map[string]float64{m.sensor: v},
			Primary:    m.sensor,
			Unit:       sensorUnits[m.sensor],
			SensorType: "opcua",
			Status:     stringFrom(body, "status", "normal"),
			Timestamp:  ts,
			Topic:      topic,
			Location:   stringFrom(body, "location", ""),
			Kind:       domain.EnvelopeFactory,
			Meta: map[string]any{
				"source":         "opcua_edge_gateway",
				"profile":        profile,
				"original_topic": topic,
			},
		})
	}
	if len(out) == 0 {
		return nil, ErrMissingSensorID
	}
	return out, nil
}

// legacyEnvelope handles sensors/<id>/telemetry messages: known metric keys
// are coerced into a values map, and the first key present (in fixed order)
// is the primary metric and the fallback sensor id.
func (n *Normalizer) legacyEnvelope(topic string, body map[string]any, ts time.Time) ([]*domain.Reading, error) {
	machineID := machineIDFrom(body, topic)
	if machineID == "" {
		return nil, ErrMissingMachineID
	}

	values := make(map[string]float64)
	primary := ""
	for _, key := range legacyMetrics {
		raw, ok := body[key]
		if !ok {
			continue
		}
		v, ok := toFloat(raw)
		if !ok {
			continue
		}
		values[key] = v
		if primary == "" {
			primary = key
		}
	}

	sensorID := stringFrom(body, "sensor_id", primary)
	if sensorID == "" {
		return nil, ErrMissingSensorID
	}
	if len(values) == 0 {
		// No known metric keys; fall back to a bare value field if present.
		if v, ok := toFloat(body["value"]); ok {
			values["value"] = v
			primary = "value"
		} else {
			return nil, ErrMissingSensorID
		}
	}

	return []*domain.Reading{{
		MachineID:  machineID,
		SensorID:   sensorID,
		Values:     values,
		Primary:    primary,
		Unit:       sensorUnits[primary],
		SensorType: stringFrom(body, "sensor_type", "telemetry"),
		Status:     stringFrom(body, "status", "normal"),
		Timestamp:  ts,
		Topic:      topic,
		Location:   stringFrom(body, "location", ""),
		Kind:       domain.EnvelopeLegacy,
		Meta:       map[string]any{"original_topic": topic},
	}}, nil
}

// genericEnvelope accepts any payload that already carries machine_id,
// sensor_id and a scalar value.
func (n *Normalizer) genericEnvelope(topic string, body map[string]any, ts time.Time) ([]*domain.Reading, error) {
	machineID := machineIDFrom(body, "")
	if machineID == "" {
		return nil, ErrMissingMachineID
	}
	sensorID := stringFrom(body, "sensor_id", "")
	if sensorID == "" {
		return nil, ErrMissingSensorID
	}
	v, ok := toFloat(body["value"])
	if !ok {
		return nil, ErrMissingSensorID
	}

	return []*domain.Reading{{
		MachineID:  machineID,
		SensorID:   sensorID,
		Values:     map[string]float64{"value": v},
		Primary:    "value",
		Unit:       stringFrom(body, "unit", ""),
		SensorType: stringFrom(body, "sensor_type", "telemetry"),
		Status:     stringFrom(body, "status", "normal"),
		Timestamp:  ts,
		Topic:      topic,
		Location:   stringFrom(body, "location", ""),
		Kind:       domain.EnvelopeGeneric,
		Meta:       map[string]any{"original_topic": topic},
	}}, nil
}

func (n *Normalizer) timestampFrom(body map[string]any) time.Time {
	if raw, ok := body["timestamp"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return ts
		}
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts
		}
	}
	return n.now().UTC()
}

// machineIDFrom prefers the payload's machineId/machine_id fields, then the
// second topic segment (factory/extruder-01/telemetry → extruder-01).
func machineIDFrom(body map[string]any, topic string) string {
	if v := stringFrom(body, "machineId", ""); v != "" {
		return v
	}
	if v := stringFrom(body, "machine_id", ""); v != "" {
		return v
	}
	if topic != "" {
		parts := strings.Split(topic, "/")
		if len(parts) >= 2 && parts[1] != "" && parts[1] != "+" {
			return parts[1]
		}
	}
	return ""
}

func stringFrom(body map[string]any, key, def string) string {
	if v, ok := body[key].(string); ok && v != "" {
		return v
	}
	return def
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
