package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

// TimescaleArchive writes persisted samples into a TimescaleDB hypertable
// as a cold-path copy of the primary store. The id conflict clause makes
// redelivered batches idempotent.
type TimescaleArchive struct {
	db        *sql.DB
	tableName string
}

func NewTimescaleArchive(db *sql.DB, table string) *TimescaleArchive {
	return &TimescaleArchive{db: db, tableName: table}
}

func (t *TimescaleArchive) Name() string { return "timescaledb" }

func (t *TimescaleArchive) WriteBatch(samples []*domain.TelemetrySample) error {
	if len(samples) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(t.tableName)
	b.WriteString(" (id, machine_id, sensor_id, ts, value, status, metadata) VALUES ")

	args := make([]any, 0, len(samples)*7)
	for i, s := range samples {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5, len(args)+6, len(args)+7))
		meta, err := json.Marshal(s.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}

		args = append(args,
			int64(s.ID),
			s.MachineID,
			s.SensorID,
			s.Timestamp,
			s.Value,
			s.Status,
			meta,
		)
	}

	b.WriteString(" ON CONFLICT (id) DO NOTHING")

	_, err := t.db.Exec(b.String(), args...)
	return err
}

var _ ports.SampleArchive = (*TimescaleArchive)(nil)
