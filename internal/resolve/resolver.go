package resolve

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

// DefaultMachineStatus is assigned to machines created lazily from
// telemetry. The value is optimistic: a machine can be created "online"
// from a message that itself reports a fault. Callers that need ground
// truth should read the latest samples, not this column.
const DefaultMachineStatus = "online"

// Resolver maps logical wire ids onto persisted entities, creating them
// on first sight. Creation per logical id is serialized so that a burst
// of messages for an unseen machine yields one row, not one per message.
type Resolver struct {
	store ports.Store
	obs   ports.Observability

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store ports.Store, obs ports.Observability) *Resolver {
	return &Resolver{
		store: store,
		obs:   obs,
		locks: make(map[string]*sync.Mutex),
	}
}

// Machine resolves the reading's logical machine id to a persisted row,
// creating one when no row exists. The logical id becomes Machine.Name,
// which is what later lookups match on.
func (r *Resolver) Machine(ctx context.Context, rd *domain.Reading) (*domain.Machine, error) {
	if m, err := r.store.MachineByKey(ctx, rd.MachineID); err != nil {
		return nil, fmt.Errorf("resolve machine %q: %w", rd.MachineID, err)
	} else if m != nil {
		return m, nil
	}

	lock := r.lockFor("machine:" + rd.MachineID)
	lock.Lock()
	defer lock.Unlock()

	// Another goroutine may have created it while we waited.
	if m, err := r.store.MachineByKey(ctx, rd.MachineID); err != nil {
		return nil, fmt.Errorf("resolve machine %q: %w", rd.MachineID, err)
	} else if m != nil {
		return m, nil
	}

	m := &domain.Machine{
		ID:       uuid.New(),
		Name:     rd.MachineID,
		Status:   DefaultMachineStatus,
		Location: rd.Location,
		Metadata: datatypes.JSONMap{
			"type":         machineTypeFrom(rd),
			"original_id":  rd.MachineID,
			"display_name": displayName(rd.MachineID),
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := r.store.CreateMachine(ctx, m); err != nil {
		// A concurrent writer outside this process can still win the race;
		// tolerate it by re-reading once before giving up.
		if existing, lookupErr := r.store.MachineByKey(ctx, rd.MachineID); lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create machine %q: %w", rd.MachineID, err)
	}
	r.obs.LogInfo("machine registered",
		ports.Field{Key: "machine", Value: m.Name},
		ports.Field{Key: "id", Value: m.ID.String()})
	return m, nil
}

// Sensor resolves the reading's sensor id within the machine, creating
// it on first sight.
func (r *Resolver) Sensor(ctx context.Context, machine *domain.Machine, rd *domain.Reading) (*domain.Sensor, error) {
	if s, err := r.store.SensorByKey(ctx, machine.ID, rd.SensorID); err != nil {
		return nil, fmt.Errorf("resolve sensor %q: %w", rd.SensorID, err)
	} else if s != nil {
		return s, nil
	}

	lock := r.lockFor("sensor:" + machine.ID.String() + ":" + rd.SensorID)
	lock.Lock()
	defer lock.Unlock()

	if s, err := r.store.SensorByKey(ctx, machine.ID, rd.SensorID); err != nil {
		return nil, fmt.Errorf("resolve sensor %q: %w", rd.SensorID, err)
	} else if s != nil {
		return s, nil
	}

	s := &domain.Sensor{
		ID:         uuid.New(),
		MachineID:  machine.ID,
		Name:       rd.SensorID,
		SensorType: rd.SensorType,
		Unit:       rd.Unit,
		Metadata: datatypes.JSONMap{
			"original_id": rd.SensorID,
			"primary":     rd.Primary,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.CreateSensor(ctx, s); err != nil {
		if existing, lookupErr := r.store.SensorByKey(ctx, machine.ID, rd.SensorID); lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create sensor %q: %w", rd.SensorID, err)
	}
	r.obs.LogInfo("sensor registered",
		ports.Field{Key: "machine", Value: machine.Name},
		ports.Field{Key: "sensor", Value: s.Name})
	return s, nil
}

func (r *Resolver) lockFor(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	return l
}

// machineTypeFrom guesses an equipment class from the logical id prefix
// (extruder-01 → extruder). Unknown shapes fall back to "machine".
func machineTypeFrom(rd *domain.Reading) string {
	id := rd.MachineID
	for i := 0; i < len(id); i++ {
		if id[i] == '-' || id[i] == '_' {
			return id[:i]
		}
	}
	if id != "" {
		return id
	}
	return "machine"
}

func displayName(logicalID string) string {
	out := []byte(logicalID)
	for i := range out {
		if out[i] == '-' || out[i] == '_' {
			out[i] = ' '
		}
	}
	return string(out)
}
