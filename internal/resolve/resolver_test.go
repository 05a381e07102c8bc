package resolve

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)            {}
func (nopObs) LogError(string, error, ...ports.Field)    {}
func (nopObs) LogCritical(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)                {}
func (nopObs) ObserveLatency(string, float64)            {}
func (nopObs) SetGauge(string, float64)                  {}
func (nopObs) RecordDrop(string, error)                  {}

// memStore implements the entity half of ports.Store in memory, with an
// optional delay on create to widen race windows in concurrency tests.
type memStore struct {
	mu          sync.Mutex
	machines    []*domain.Machine
	sensors     []*domain.Sensor
	createDelay time.Duration
	machineErr  error

	// hideMachineLookups makes the first N machine lookups miss, simulating
	// a row that appears only after our own create has already failed.
	hideMachineLookups int

	machineCreates int
	sensorCreates  int
}

func (s *memStore) MachineByKey(_ context.Context, key string) (*domain.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hideMachineLookups > 0 {
		s.hideMachineLookups--
		return nil, nil
	}
	for i := len(s.machines) - 1; i >= 0; i-- {
		if s.machines[i].Name == key || s.machines[i].ID.String() == key {
			return s.machines[i], nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateMachine(_ context.Context, m *domain.Machine) error {
	if s.createDelay > 0 {
		time.Sleep(s.createDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machineErr != nil {
		return s.machineErr
	}
	s.machineCreates++
	s.machines = append(s.machines, m)
	return nil
}

func (s *memStore) SensorByKey(_ context.Context, machineID uuid.UUID, key string) (*domain.Sensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.sensors) - 1; i >= 0; i-- {
		sn := s.sensors[i]
		if sn.MachineID == machineID && (sn.Name == key || sn.ID.String() == key) {
			return sn, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateSensor(_ context.Context, sn *domain.Sensor) error {
	if s.createDelay > 0 {
		time.Sleep(s.createDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensorCreates++
	s.sensors = append(s.sensors, sn)
	return nil
}

func (s *memStore) InsertSample(context.Context, *domain.TelemetrySample) error { return nil }
func (s *memStore) InsertPrediction(context.Context, *domain.Prediction) error  { return nil }
func (s *memStore) InsertIncident(context.Context, *domain.Incident) error      { return nil }

func reading(machineID, sensorID string) *domain.Reading {
	return &domain.Reading{
		MachineID:  machineID,
		SensorID:   sensorID,
		Values:     map[string]float64{"temperature": 70},
		Primary:    "temperature",
		Unit:       "°C",
		SensorType: "opcua",
		Location:   "hall-2",
		Timestamp:  time.Now().UTC(),
	}
}

func TestMachineCreatedOnFirstSight(t *testing.T) {
	store := &memStore{}
	r := New(store, nopObs{})

	m, err := r.Machine(context.Background(), reading("extruder-01", "opcua_temperature"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if m.Name != "extruder-01" {
		t.Fatalf("name = %q, want the logical id", m.Name)
	}
	if m.Status != DefaultMachineStatus {
		t.Fatalf("status = %q", m.Status)
	}
	if m.ID == uuid.Nil {
		t.Fatal("expected assigned uuid")
	}
	if got := m.Metadata["type"]; got != "extruder" {
		t.Fatalf("metadata type = %v", got)
	}
}

func TestMachineResolutionIsIdempotent(t *testing.T) {
	store := &memStore{}
	r := New(store, nopObs{})
	ctx := context.Background()

	first, err := r.Machine(ctx, reading("extruder-01", "s"))
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := r.Machine(ctx, reading("extruder-01", "s"))
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("got two identities: %s vs %s", first.ID, second.ID)
	}
	if store.machineCreates != 1 {
		t.Fatalf("creates = %d, want 1", store.machineCreates)
	}
}

func TestConcurrentFirstArrivalCreatesOneMachine(t *testing.T) {
	store := &memStore{createDelay: 5 * time.Millisecond}
	r := New(store, nopObs{})

	const n = 16
	ids := make(chan uuid.UUID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := r.Machine(context.Background(), reading("press-07", "s"))
			if err != nil {
				t.Errorf("resolve: %v", err)
				return
			}
			ids <- m.ID
		}()
	}
	wg.Wait()
	close(ids)

	if store.machineCreates != 1 {
		t.Fatalf("creates = %d, want 1", store.machineCreates)
	}
	var first uuid.UUID
	for id := range ids {
		if first == uuid.Nil {
			first = id
		} else if id != first {
			t.Fatalf("divergent identities: %s vs %s", first, id)
		}
	}
}

func TestMachineCreateErrorFallsBackToLookup(t *testing.T) {
	store := &memStore{
		machineErr:         errors.New("unique constraint"),
		hideMachineLookups: 2,
	}
	// The row exists (an external writer inserted it) but the first two
	// lookups miss, so the resolver attempts the create, fails, and must
	// recover via the retry lookup.
	store.machines = append(store.machines, &domain.Machine{
		ID: uuid.New(), Name: "extruder-01", Status: "online",
	})
	r := New(store, nopObs{})

	m, err := r.Machine(context.Background(), reading("extruder-01", "s"))
	if err != nil {
		t.Fatalf("expected fallback to existing row, got %v", err)
	}
	if m.Name != "extruder-01" {
		t.Fatalf("name = %q", m.Name)
	}
}

func TestSensorScopedToMachine(t *testing.T) {
	store := &memStore{}
	r := New(store, nopObs{})
	ctx := context.Background()

	m1, _ := r.Machine(ctx, reading("extruder-01", "opcua_temperature"))
	m2, _ := r.Machine(ctx, reading("extruder-02", "opcua_temperature"))

	s1, err := r.Sensor(ctx, m1, reading("extruder-01", "opcua_temperature"))
	if err != nil {
		t.Fatalf("sensor on m1: %v", err)
	}
	s2, err := r.Sensor(ctx, m2, reading("extruder-02", "opcua_temperature"))
	if err != nil {
		t.Fatalf("sensor on m2: %v", err)
	}
	if s1.ID == s2.ID {
		t.Fatal("same sensor name on two machines must be two rows")
	}
	if s1.MachineID != m1.ID || s2.MachineID != m2.ID {
		t.Fatal("sensor rows bound to wrong machines")
	}

	again, err := r.Sensor(ctx, m1, reading("extruder-01", "opcua_temperature"))
	if err != nil {
		t.Fatalf("repeat resolve: %v", err)
	}
	if again.ID != s1.ID {
		t.Fatalf("repeat resolve created new row: %s vs %s", again.ID, s1.ID)
	}
	if store.sensorCreates != 2 {
		t.Fatalf("sensor creates = %d, want 2", store.sensorCreates)
	}
}
