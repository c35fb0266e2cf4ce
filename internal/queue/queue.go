package queue

import (
	"context"
	"sync"
	"time"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

// Queue is a bounded in-process work queue with deferred redelivery.
//
// Enqueue never blocks the caller (the HTTP handler): a full buffer is
// reported as ErrQueueFull. EnqueueAfter parks the item on a timer; when it
// fires the item waits for buffer space, so redeliveries are not dropped
// while the queue is open.
type Queue struct {
	items chan Item
	done  chan struct{}

	mu     sync.Mutex
	closed bool
	parked map[*time.Timer]struct{}
	fired  sync.WaitGroup
}

func New(size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		items:  make(chan Item, size),
		done:   make(chan struct{}),
		parked: make(map[*time.Timer]struct{}),
	}
}

// Enqueue places item on the queue without blocking.
func (q *Queue) Enqueue(item Item) error {
	select {
	case <-q.done:
		return domain.ErrQueueClosed
	default:
	}

	select {
	case q.items <- item:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// EnqueueAfter re-queues item once delay has passed.
func (q *Queue) EnqueueAfter(delay time.Duration, item Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return domain.ErrQueueClosed
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		q.mu.Lock()
		if _, ok := q.parked[t]; !ok {
			// Close already stopped and accounted for this timer.
			q.mu.Unlock()
			return
		}
		delete(q.parked, t)
		q.fired.Add(1)
		q.mu.Unlock()

		defer q.fired.Done()
		select {
		case q.items <- item:
		case <-q.done:
		}
	})
	q.parked[t] = struct{}{}
	return nil
}

// Dequeue blocks until an item is available or ctx is cancelled.
// Returns (Item{}, false) when ctx is cancelled (graceful shutdown signal).
func (q *Queue) Dequeue(ctx context.Context) (Item, bool) {
	select {
	case item := <-q.items:
		return item, true
	case <-ctx.Done():
		return Item{}, false
	}
}

// Depths returns the number of items ready for a worker and the number
// parked for deferred redelivery.
func (q *Queue) Depths() (ready, deferred int) {
	q.mu.Lock()
	deferred = len(q.parked)
	q.mu.Unlock()
	return len(q.items), deferred
}

// Close rejects further enqueues and discards parked redeliveries.
// It returns the number of parked items discarded.
func (q *Queue) Close() int {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0
	}
	q.closed = true
	close(q.done)

	discarded := len(q.parked)
	for t := range q.parked {
		t.Stop()
		delete(q.parked, t)
	}
	q.mu.Unlock()

	q.fired.Wait()
	return discarded
}
