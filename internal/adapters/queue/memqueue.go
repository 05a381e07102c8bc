package queue

import (
	"sync"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

// MemQueue is a bounded in-memory queue that preserves FIFO ordering.
// Broker callbacks enqueue without blocking; the single worker dequeues
// one reading at a time.
type MemQueue struct {
	mu   sync.Mutex
	data []*domain.Reading
	cap  int
}

func NewMemQueue(capacity int) *MemQueue {
	return &MemQueue{
		data: make([]*domain.Reading, 0, capacity),
		cap:  capacity,
	}
}

func (q *MemQueue) Enqueue(r *domain.Reading) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		return false
	}
	q.data = append(q.data, r)
	return true
}

func (q *MemQueue) Dequeue() (*domain.Reading, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil, false
	}
	r := q.data[0]
	q.data = append(q.data[:0], q.data[1:]...)
	return r, true
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

var _ ports.ReadingQueue = (*MemQueue)(nil)
