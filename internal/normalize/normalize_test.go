package normalize

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}
}

func TestFactoryEnvelopeFansOutPerMetric(t *testing.T) {
	n := NewWithClock(fixedClock())

	payload := []byte(`{
		"machineId": "extruder-01",
		"temperature": 71.4,
		"vibration": 3.2,
		"pressure": 6.8,
		"motorCurrent": 10.1,
		"wearIndex": 42,
		"status": "running",
		"location": "hall-2",
		"profile": "degrading"
	}`)

	readings, err := n.Normalize("factory/extruder-01/telemetry", payload)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(readings) != 5 {
		t.Fatalf("expected 5 readings, got %d", len(readings))
	}

	wantSensors := []string{
		"opcua_temperature", "opcua_vibration", "opcua_pressure",
		"opcua_motor_current", "opcua_wear_index",
	}
	for i, r := range readings {
		if r.SensorID != wantSensors[i] {
			t.Fatalf("reading %d: sensor %q, want %q", i, r.SensorID, wantSensors[i])
		}
		if r.MachineID != "extruder-01" {
			t.Fatalf("reading %d: machine %q", i, r.MachineID)
		}
		if !r.Timestamp.Equal(readings[0].Timestamp) {
			t.Fatalf("reading %d: timestamp differs from siblings", i)
		}
		if r.Kind != domain.EnvelopeFactory {
			t.Fatalf("reading %d: kind %q", i, r.Kind)
		}
		if len(r.Values) != 1 {
			t.Fatalf("reading %d: expected single metric, got %v", i, r.Values)
		}
	}

	if v := readings[3].Value(); v != 10.1 {
		t.Fatalf("motor_current value = %v, want 10.1", v)
	}
	if readings[0].Unit != "°C" {
		t.Fatalf("temperature unit = %q", readings[0].Unit)
	}
	if readings[0].Status != "running" {
		t.Fatalf("status = %q", readings[0].Status)
	}
}

func TestFactoryEnvelopeSkipsAbsentMetrics(t *testing.T) {
	n := New()

	readings, err := n.Normalize("factory/press-07/telemetry",
		[]byte(`{"temperature": 55.0, "pressure": 4.4}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(readings))
	}
	if readings[0].MachineID != "press-07" {
		t.Fatalf("machine id from topic = %q", readings[0].MachineID)
	}
}

func TestLegacyEnvelopeCoercesKnownMetrics(t *testing.T) {
	n := NewWithClock(fixedClock())

	payload := []byte(`{
		"sensor_id": "vib-sensor-3",
		"machine_id": "extruder-01",
		"vibration": 2.1,
		"temperature": 68.0,
		"rpm": 1480
	}`)

	readings, err := n.Normalize("sensors/vib-sensor-3/telemetry", payload)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(readings))
	}

	r := readings[0]
	if r.Primary != "vibration" {
		t.Fatalf("primary = %q, want vibration (fixed coercion order)", r.Primary)
	}
	if len(r.Values) != 3 {
		t.Fatalf("values = %v", r.Values)
	}
	want := (2.1 + 68.0 + 1480) / 3
	if got := r.Value(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("mean value = %v, want %v", got, want)
	}
	if r.SensorID != "vib-sensor-3" {
		t.Fatalf("sensor id = %q", r.SensorID)
	}
	if r.Kind != domain.EnvelopeLegacy {
		t.Fatalf("kind = %q", r.Kind)
	}
}

func TestLegacyEnvelopeFallsBackToBareValue(t *testing.T) {
	n := New()

	readings, err := n.Normalize("sensors/temp-1/telemetry",
		[]byte(`{"sensor_id": "temp-1", "machine_id": "m-9", "value": "12.5"}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	r := readings[0]
	if r.Primary != "value" || r.Values["value"] != 12.5 {
		t.Fatalf("primary=%q values=%v", r.Primary, r.Values)
	}
}

func TestGenericEnvelope(t *testing.T) {
	n := New()

	readings, err := n.Normalize("custom/ingest",
		[]byte(`{"machine_id": "m-1", "sensor_id": "s-1", "value": 7, "unit": "kW"}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	r := readings[0]
	if r.Kind != domain.EnvelopeGeneric {
		t.Fatalf("kind = %q", r.Kind)
	}
	if r.Value() != 7 || r.Unit != "kW" {
		t.Fatalf("value=%v unit=%q", r.Value(), r.Unit)
	}
}

func TestNormalizeRejections(t *testing.T) {
	n := New()

	cases := []struct {
		name    string
		topic   string
		payload string
		wantErr error
	}{
		{"not json", "factory/m/telemetry", `{"machineId":`, ErrMalformedPayload},
		{"array body", "factory/m/telemetry", `[1, 2, 3]`, ErrMalformedPayload},
		{"no machine id", "custom/ingest", `{"sensor_id": "s", "value": 1}`, ErrMissingMachineID},
		{"no sensor id", "custom/ingest", `{"machine_id": "m", "value": 1}`, ErrMissingSensorID},
		{"factory without metrics", "factory/m/telemetry", `{"machineId": "m"}`, ErrMissingSensorID},
		{"legacy without metrics", "sensors/x/telemetry", `{"machine_id": "m", "sensor_id": "s"}`, ErrMissingSensorID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := n.Normalize(tc.topic, []byte(tc.payload)); !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestTimestampParsingAndDefault(t *testing.T) {
	n := NewWithClock(fixedClock())

	readings, err := n.Normalize("custom/ingest",
		[]byte(`{"machine_id": "m", "sensor_id": "s", "value": 1, "timestamp": "2026-02-01T10:00:00Z"}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	if !readings[0].Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", readings[0].Timestamp, want)
	}

	readings, err = n.Normalize("custom/ingest",
		[]byte(`{"machine_id": "m", "sensor_id": "s", "value": 1, "timestamp": "yesterday"}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !readings[0].Timestamp.Equal(fixedClock()()) {
		t.Fatalf("unparseable timestamp should fall back to receipt time, got %v", readings[0].Timestamp)
	}
}
