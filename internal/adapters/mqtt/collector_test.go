package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/normalize"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

type fakeBroker struct {
	mu           sync.Mutex
	connectErrs  int
	connects     int
	subscribed   []string
	handlers     map[string]pahomqtt.MessageHandler
	connected    bool
	disconnected bool
}

func (f *fakeBroker) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErrs > 0 {
		f.connectErrs--
		return errors.New("connection refused")
	}
	f.connected = true
	return nil
}

func (f *fakeBroker) Subscribe(topic string, qos byte, handler pahomqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, topic)
	if f.handlers == nil {
		f.handlers = map[string]pahomqtt.MessageHandler{}
	}
	f.handlers[topic] = handler
	return nil
}

func (f *fakeBroker) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnected = true
}

func (f *fakeBroker) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeBroker) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.subscribed))
	copy(out, f.subscribed)
	return out
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)         {}
func (nopObs) LogError(string, error, ...ports.Field) {}
func (nopObs) LogCritical(string, error, ...ports.Field) {
}
func (nopObs) IncCounter(string, float64)     {}
func (nopObs) ObserveLatency(string, float64) {}
func (nopObs) SetGauge(string, float64)       {}
func (nopObs) RecordDrop(string, error)       {}

type captureQueue struct {
	mu   sync.Mutex
	got  []*domain.Reading
	full bool
}

func (q *captureQueue) Enqueue(r *domain.Reading) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.got = append(q.got, r)
	return true
}

func (q *captureQueue) Dequeue() (*domain.Reading, bool) { return nil, false }
func (q *captureQueue) Len() int                         { return 0 }

func newTestCollector(t *testing.T, broker *fakeBroker, topics []string) *Collector {
	t.Helper()
	col, err := NewCollector(Config{
		BrokerURL:      "tcp://broker:1883",
		ClientID:       "test",
		Topics:         topics,
		ReconnectDelay: time.Millisecond,
	}, normalize.New(), nopObs{})
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}
	col.newClient = func() brokerClient { return broker }
	return col
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition never met")
}

func TestCollectorReconnectLiveness(t *testing.T) {
	broker := &fakeBroker{connectErrs: 3}
	col := newTestCollector(t, broker, []string{"factory/+/telemetry"})

	if err := col.Start(&captureQueue{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer col.Stop()

	waitFor(t, func() bool { return col.State() == Connected })

	broker.mu.Lock()
	connects := broker.connects
	broker.mu.Unlock()
	if connects != 4 {
		t.Fatalf("expected 4 connect attempts (3 failures + 1 success), got %d", connects)
	}

	// Configured topic plus the default wildcard pattern, each exactly once.
	topics := broker.topics()
	if len(topics) != 2 {
		t.Fatalf("expected 2 subscriptions, got %v", topics)
	}
	if topics[0] != "factory/+/telemetry" || topics[1] != DefaultTelemetryTopic {
		t.Fatalf("unexpected subscriptions: %v", topics)
	}
}

func TestCollectorResubscribesAfterDrop(t *testing.T) {
	broker := &fakeBroker{}
	col := newTestCollector(t, broker, []string{"factory/+/telemetry"})

	if err := col.Start(&captureQueue{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer col.Stop()

	waitFor(t, func() bool { return col.State() == Connected })

	col.connectionLost(errors.New("broker went away"))
	waitFor(t, func() bool { return len(broker.topics()) == 4 })
	waitFor(t, func() bool { return col.State() == Connected })
}

func TestHandleMessageEnqueuesNormalizedReadings(t *testing.T) {
	broker := &fakeBroker{}
	col := newTestCollector(t, broker, nil)
	q := &captureQueue{}
	if err := col.Start(q); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer col.Stop()

	payload := []byte(`{"machineId":"extruder-01","temperature":81.5,"pressure":6.1}`)
	col.handleMessage(nil, &fakeMessage{topic: "factory/extruder-01/telemetry", payload: payload})

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.got) != 2 {
		t.Fatalf("expected 2 fanned-out readings, got %d", len(q.got))
	}
	for _, r := range q.got {
		if r.MachineID != "extruder-01" {
			t.Fatalf("unexpected machine id %q", r.MachineID)
		}
	}
}

func TestHandleMessageDropsMalformedPayload(t *testing.T) {
	broker := &fakeBroker{}
	col := newTestCollector(t, broker, nil)
	q := &captureQueue{}
	if err := col.Start(q); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer col.Stop()

	col.handleMessage(nil, &fakeMessage{topic: "sensors/p1/telemetry", payload: []byte("{not json")})

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.got) != 0 {
		t.Fatalf("malformed payload must never be enqueued, got %d readings", len(q.got))
	}
}
