package ports

import "github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"

// SampleArchive consumes ordered batches of persisted samples for the
// cold-path timeseries archive. It runs beside the primary store; archive
// failures never block ingestion.
type SampleArchive interface {
	WriteBatch(samples []*domain.TelemetrySample) error
	Name() string
}
