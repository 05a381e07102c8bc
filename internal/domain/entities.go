package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Machine is a persisted machine identity, created lazily on first
// telemetry from an unseen logical id. Name carries the logical id so
// name-based lookup finds the row on every later message.
type Machine struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string            `gorm:"not null;index" json:"name"`
	Status    string            `gorm:"not null" json:"status"`
	Location  string            `json:"location,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`
}

// Sensor belongs to exactly one machine. Name carries the logical sensor id
// for the same lookup reason as Machine.Name.
type Sensor struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	MachineID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"machine_id"`
	Name       string            `gorm:"not null;index" json:"name"`
	SensorType string            `gorm:"not null" json:"sensor_type"`
	Unit       string            `json:"unit,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

// TelemetrySample is immutable once written. Metadata keeps the raw
// normalized envelope for provenance.
type TelemetrySample struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	MachineID uuid.UUID         `gorm:"type:uuid;not null;index" json:"machine_id"`
	SensorID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"sensor_id"`
	Timestamp time.Time         `gorm:"not null;index" json:"timestamp"`
	Value     float64           `gorm:"not null" json:"value"`
	Status    string            `gorm:"not null" json:"status"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
}

// Prediction is the persisted response of the external inference service,
// linked to the machine and sensor that triggered it.
type Prediction struct {
	ID                   snowflake.ID      `gorm:"primaryKey" json:"id"`
	MachineID            uuid.UUID         `gorm:"type:uuid;not null;index" json:"machine_id"`
	SensorID             uuid.UUID         `gorm:"type:uuid;not null;index" json:"sensor_id"`
	Timestamp            time.Time         `gorm:"not null" json:"timestamp"`
	Label                string            `gorm:"not null" json:"prediction"`
	Status               string            `gorm:"not null" json:"status"`
	Score                float64           `gorm:"not null" json:"score"`
	Confidence           float64           `gorm:"not null" json:"confidence"`
	AnomalyType          string            `json:"anomaly_type,omitempty"`
	ModelVersion         string            `json:"model_version"`
	RemainingUsefulLife  *float64          `json:"remaining_useful_life,omitempty"`
	ResponseTimeMs       float64           `json:"response_time_ms"`
	ContributingFeatures datatypes.JSONMap `gorm:"type:jsonb" json:"contributing_features,omitempty"`
	Metadata             datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt            time.Time         `gorm:"not null" json:"created_at"`
}

// Incident records a confirmed condition-profile transition. The decision
// engine's apply step is the only code path that creates these rows.
type Incident struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MachineID   uuid.UUID `gorm:"type:uuid;not null;index" json:"machine_id"`
	Variable    string    `gorm:"not null" json:"variable"`
	FromProfile string    `gorm:"not null" json:"from_profile"`
	ToProfile   string    `gorm:"not null" json:"to_profile"`
	Severity    string    `gorm:"not null" json:"severity"`
	Message     string    `json:"message"`
	ObservedAt  time.Time `gorm:"not null" json:"observed_at"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}
