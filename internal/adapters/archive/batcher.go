package archive

import (
	"context"
	"sync"
	"time"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

// Batcher buffers samples and flushes them to the archive sink on size or
// interval, whichever comes first. Add never blocks the worker; a failed
// flush is logged and the batch dropped — the primary store already holds
// the samples.
type Batcher struct {
	sink     ports.SampleArchive
	obs      ports.Observability
	size     int
	interval time.Duration

	mu  sync.Mutex
	buf []*domain.TelemetrySample

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

func NewBatcher(sink ports.SampleArchive, obs ports.Observability, size int, interval time.Duration) *Batcher {
	if size <= 0 {
		size = 500
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	b := &Batcher{
		sink:     sink,
		obs:      obs,
		size:     size,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Batcher) Add(s *domain.TelemetrySample) {
	b.mu.Lock()
	b.buf = append(b.buf, s)
	flush := len(b.buf) >= b.size
	b.mu.Unlock()
	if flush {
		b.flush()
	}
}

// Close flushes the remaining buffer, honoring the context deadline.
func (b *Batcher) Close(ctx context.Context) error {
	b.stopOnce.Do(func() { close(b.stopCh) })
	select {
	case <-b.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Batcher) run() {
	defer close(b.doneCh)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			b.flush()
			return
		case <-ticker.C:
			b.flush()
		}
	}
}

func (b *Batcher) flush() {
	b.mu.Lock()
	if len(b.buf) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.buf
	b.buf = nil
	b.mu.Unlock()

	start := time.Now()
	if err := b.sink.WriteBatch(batch); err != nil {
		b.obs.LogError("archive_write_failed", err,
			ports.Field{Key: "sink", Value: b.sink.Name()},
			ports.Field{Key: "batch", Value: len(batch)})
		return
	}
	b.obs.ObserveLatency("pm_archive_flush_seconds", time.Since(start).Seconds())
	b.obs.IncCounter("pm_samples_archived_total", float64(len(batch)))
}
