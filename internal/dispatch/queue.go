package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

var ErrQueueFull = errors.New("dispatch queue full")

// Queue is the single logical hand-off point between the request path
// and the delivery workers. Dequeued tasks carry a lease; a task whose
// lease expires without reaching a terminal status is re-queued, so a
// crashed worker cannot lose it (at-least-once).
type Queue struct {
	mu       sync.Mutex
	tasks    chan *Task
	inFlight map[uuid.UUID]*leasedTask
	leaseTTL time.Duration
}

type leasedTask struct {
	task     *Task
	deadline time.Time
}

func NewQueue(capacity int, leaseTTL time.Duration) *Queue {
	return &Queue{
		tasks:    make(chan *Task, capacity),
		inFlight: make(map[uuid.UUID]*leasedTask),
		leaseTTL: leaseTTL,
	}
}

// Enqueue hands a pending task to the workers without blocking the
// request path.
func (q *Queue) Enqueue(t *Task) error {
	t.Status = StatusPending
	select {
	case q.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue blocks until a task is available or the context is done.
func (q *Queue) Dequeue(ctx context.Context) (*Task, error) {
	select {
	case t := <-q.tasks:
		q.mu.Lock()
		t.Status = StatusInFlight
		q.inFlight[t.ID] = &leasedTask{task: t, deadline: time.Now().Add(q.leaseTTL)}
		q.mu.Unlock()
		return t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Complete moves a task to a terminal status and releases its lease.
func (q *Queue) Complete(t *Task, status Status) {
	q.mu.Lock()
	delete(q.inFlight, t.ID)
	q.mu.Unlock()
	t.Status = status
}

// ReclaimExpired re-queues every in-flight task whose lease has run
// out and returns how many were reclaimed. A task that cannot be
// re-queued (channel full) keeps its lease with a fresh deadline so a
// later sweep picks it up; it is never dropped.
func (q *Queue) ReclaimExpired() int {
	now := time.Now()

	q.mu.Lock()
	var expired []*Task
	for id, lt := range q.inFlight {
		if now.After(lt.deadline) {
			expired = append(expired, lt.task)
			delete(q.inFlight, id)
		}
	}
	q.mu.Unlock()

	reclaimed := 0
	for _, t := range expired {
		if err := q.Enqueue(t); err != nil {
			utils.Logger.WithError(err).Errorf("Failed to re-queue expired delivery task %s; will retry next sweep", t.ID)
			q.mu.Lock()
			t.Status = StatusInFlight
			q.inFlight[t.ID] = &leasedTask{task: t, deadline: time.Now().Add(q.leaseTTL)}
			q.mu.Unlock()
			continue
		}
		reclaimed++
	}
	return reclaimed
}

// Depth returns the number of tasks waiting for a worker.
func (q *Queue) Depth() int {
	return len(q.tasks)
}
