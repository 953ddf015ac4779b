package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

// Sender is the outbound capability for one channel: a single
// best-effort call per attempt.
type Sender interface {
	Send(ctx context.Context, task *Task) error
}

// Auditor receives terminal delivery failures. The end user never sees
// these; they go to the operations side.
type Auditor interface {
	DeliveryFailed(task *Task, err error)
}

// RetryPolicy bounds delivery attempts with exponential backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Delay returns the backoff before the given (1-based) attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Dispatcher runs delivery workers over the shared queue.
type Dispatcher struct {
	queue   *Queue
	senders map[Channel]Sender
	policy  RetryPolicy
	auditor Auditor

	wg sync.WaitGroup
}

func NewDispatcher(queue *Queue, senders map[Channel]Sender, policy RetryPolicy, auditor Auditor) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		senders: senders,
		policy:  policy,
		auditor: auditor,
	}
}

// Start launches n workers plus the lease janitor. Cancel the context
// to stop; Wait blocks until all workers have drained.
func (d *Dispatcher) Start(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.run(ctx)
		}()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.queue.leaseTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := d.queue.ReclaimExpired(); n > 0 {
					utils.Logger.Warnf("Re-queued %d expired delivery task(s)", n)
				}
			}
		}
	}()
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		task, err := d.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		d.Process(ctx, task)
	}
}

// Process drives one task to a terminal status: delivered on the first
// successful send, failed after the attempt budget is spent or a
// permanent error is seen.
func (d *Dispatcher) Process(ctx context.Context, task *Task) {
	sender, ok := d.senders[task.Channel]
	if !ok {
		err := errors.New("no sender configured for channel " + string(task.Channel))
		d.queue.Complete(task, StatusFailed)
		d.auditor.DeliveryFailed(task, err)
		return
	}

	var lastErr error
	for task.Attempts < d.policy.MaxAttempts {
		task.Attempts++

		lastErr = sender.Send(ctx, task)
		if lastErr == nil {
			d.queue.Complete(task, StatusDelivered)
			utils.Logger.Debugf("Delivered task %s via %s on attempt %d", task.ID, task.Channel, task.Attempts)
			return
		}

		if errors.Is(lastErr, utils.ErrPermanentDeliveryFailure) {
			break
		}

		utils.Logger.WithError(lastErr).Warnf(
			"Delivery attempt %d/%d failed for task %s via %s",
			task.Attempts, d.policy.MaxAttempts, task.ID, task.Channel,
		)

		if task.Attempts >= d.policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			// Leave the task in flight; the lease janitor re-queues it.
			return
		case <-time.After(d.policy.Delay(task.Attempts)):
		}
	}

	d.queue.Complete(task, StatusFailed)
	d.auditor.DeliveryFailed(task, lastErr)
}
