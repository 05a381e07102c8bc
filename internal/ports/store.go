package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
)

// Store is the abstract persistent store consumed by the pipeline. Each
// call commits independently so partial pipeline progress survives a later
// step's failure. Lookup methods return (nil, nil) when no row matches.
type Store interface {
	// MachineByKey resolves by persisted UUID when key parses as one,
	// otherwise by name. Duplicate names resolve most-recent-first.
	MachineByKey(ctx context.Context, key string) (*domain.Machine, error)
	CreateMachine(ctx context.Context, m *domain.Machine) error

	// SensorByKey resolves by UUID or by name scoped to the owning machine,
	// most-recent-first on duplicates.
	SensorByKey(ctx context.Context, machineID uuid.UUID, key string) (*domain.Sensor, error)
	CreateSensor(ctx context.Context, s *domain.Sensor) error

	InsertSample(ctx context.Context, s *domain.TelemetrySample) error
	InsertPrediction(ctx context.Context, p *domain.Prediction) error
	InsertIncident(ctx context.Context, inc *domain.Incident) error
}
