package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

// Config selects the backing database. The sqlite driver is pure Go and
// serves development and tests; postgres serves production.
type Config struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.DSN == "" && c.Driver == "sqlite" {
		c.DSN = "file:pm-backend.db?_pragma=busy_timeout(5000)"
	}
}

func (c *Config) Validate() error {
	switch c.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported store driver %q", c.Driver)
	}
	if c.DSN == "" {
		return errors.New("dsn is required")
	}
	return nil
}

// Open dials the configured database.
func Open(cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	switch cfg.Driver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	default:
		return gorm.Open(sqlite.Open(cfg.DSN), gormCfg)
	}
}

// GormStore implements ports.Store over gorm. Every method is its own
// session; nothing is held across messages.
type GormStore struct {
	db  *gorm.DB
	ids *snowflake.Node
}

func New(db *gorm.DB) (*GormStore, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}
	if err := db.AutoMigrate(
		&domain.Machine{},
		&domain.Sensor{},
		&domain.TelemetrySample{},
		&domain.Prediction{},
		&domain.Incident{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db, ids: node}, nil
}

func (s *GormStore) MachineByKey(ctx context.Context, key string) (*domain.Machine, error) {
	var m domain.Machine
	q := s.db.WithContext(ctx)
	if id, err := uuid.Parse(key); err == nil {
		q = q.Where("id = ?", id)
	} else {
		// Duplicate names resolve to the most recently created row.
		q = q.Where("name = ?", key).Order("created_at DESC")
	}
	if err := q.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) CreateMachine(ctx context.Context, m *domain.Machine) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *GormStore) SensorByKey(ctx context.Context, machineID uuid.UUID, key string) (*domain.Sensor, error) {
	var sensor domain.Sensor
	q := s.db.WithContext(ctx)
	if id, err := uuid.Parse(key); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("name = ? AND machine_id = ?", key, machineID).
			Order("created_at DESC")
	}
	if err := q.First(&sensor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sensor, nil
}

func (s *GormStore) CreateSensor(ctx context.Context, sensor *domain.Sensor) error {
	if sensor.ID == uuid.Nil {
		sensor.ID = uuid.New()
	}
	if sensor.CreatedAt.IsZero() {
		sensor.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(sensor).Error
}

func (s *GormStore) InsertSample(ctx context.Context, sample *domain.TelemetrySample) error {
	if sample.ID == 0 {
		sample.ID = s.ids.Generate()
	}
	if sample.CreatedAt.IsZero() {
		sample.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(sample).Error
}

func (s *GormStore) InsertPrediction(ctx context.Context, p *domain.Prediction) error {
	if p.ID == 0 {
		p.ID = s.ids.Generate()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) InsertIncident(ctx context.Context, inc *domain.Incident) error {
	if inc.ID == uuid.Nil {
		inc.ID = uuid.New()
	}
	if inc.CreatedAt.IsZero() {
		inc.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(inc).Error
}

var _ ports.Store = (*GormStore)(nil)
