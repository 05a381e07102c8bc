package queue

import (
	"testing"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/domain"
)

func TestMemQueueEnqueueDequeueOrder(t *testing.T) {
	q := NewMemQueue(4)

	r1 := &domain.Reading{SensorID: "s1"}
	r2 := &domain.Reading{SensorID: "s2"}

	if !q.Enqueue(r1) || !q.Enqueue(r2) {
		t.Fatalf("expected successful enqueue")
	}

	first, ok := q.Dequeue()
	if !ok || first.SensorID != "s1" {
		t.Fatalf("unexpected first dequeue: %+v", first)
	}

	second, ok := q.Dequeue()
	if !ok || second.SensorID != "s2" {
		t.Fatalf("unexpected second dequeue: %+v", second)
	}

	if _, ok := q.Dequeue(); ok {
		t.Fatalf("queue should be empty")
	}
	if q.Len() != 0 {
		t.Fatalf("queue should be empty, got %d", q.Len())
	}
}

func TestMemQueueCapacity(t *testing.T) {
	q := NewMemQueue(2)

	r := &domain.Reading{SensorID: "cap"}

	if !q.Enqueue(r) || !q.Enqueue(r) {
		t.Fatalf("expected enqueue within capacity")
	}
	if q.Enqueue(r) {
		t.Fatalf("enqueue should fail when capacity exceeded")
	}

	q.Dequeue()
	if !q.Enqueue(r) {
		t.Fatalf("expected enqueue to succeed after dequeue")
	}
}
