package ports

import "github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"

// ReadingQueue is the bounded FIFO buffer between the broker callback and
// the worker. Enqueue must never block: a full queue returns false and the
// caller drops the reading.
type ReadingQueue interface {
	Enqueue(r *domain.Reading) bool
	Dequeue() (*domain.Reading, bool)
	Len() int
}
