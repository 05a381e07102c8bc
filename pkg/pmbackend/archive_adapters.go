package pmbackend

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
)

// ErrChannelArchiveClosed is returned when a channel archive is written to
// after being closed.
var ErrChannelArchiveClosed = errors.New("pmbackend: channel archive closed")

// SampleBatchFunc consumes one flushed batch of persisted samples.
type SampleBatchFunc func([]*TelemetrySample) error

// NewCallbackArchive adapts a SampleBatchFunc into a full SampleArchive so
// callers can route the cold path to arbitrary functions without defining
// structs.
func NewCallbackArchive(name string, fn SampleBatchFunc) SampleArchive {
	if name == "" {
		name = "callback"
	}
	return &callbackArchive{name: name, fn: fn}
}

// NewChannelArchive exposes flushed batches via a channel; it returns the
// archive, the read-only channel, and a close function the caller should
// invoke during shutdown.
func NewChannelArchive(name string, buffer int) (SampleArchive, <-chan []*TelemetrySample, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []*TelemetrySample, buffer)
	a := &channelArchive{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return a, ch, func() { a.close() }
}

type callbackArchive struct {
	name string
	fn   SampleBatchFunc
}

func (a *callbackArchive) WriteBatch(samples []*domain.TelemetrySample) error {
	if a.fn == nil {
		return fmt.Errorf("callback archive %q: nil handler", a.name)
	}
	if len(samples) == 0 {
		return nil
	}
	return a.fn(copyBatch(samples))
}

func (a *callbackArchive) Name() string { return a.name }

type channelArchive struct {
	name   string
	ch     chan []*TelemetrySample
	closed chan struct{}
	once   sync.Once
}

func (a *channelArchive) WriteBatch(samples []*domain.TelemetrySample) error {
	select {
	case <-a.closed:
		return ErrChannelArchiveClosed
	default:
	}

	if len(samples) == 0 {
		return nil
	}

	batch := copyBatch(samples)

	select {
	case <-a.closed:
		return ErrChannelArchiveClosed
	case a.ch <- batch:
		return nil
	}
}

func (a *channelArchive) Name() string { return a.name }

func (a *channelArchive) close() {
	a.once.Do(func() {
		close(a.closed)
		close(a.ch)
	})
}

// copyBatch shallow-copies the slice so consumers can hold the batch past
// the batcher's next reuse of its buffer.
func copyBatch(samples []*domain.TelemetrySample) []*TelemetrySample {
	out := make([]*TelemetrySample, len(samples))
	copy(out, samples)
	return out
}
