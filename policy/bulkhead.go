package policy

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/faultops/clock"
	"github.com/jonwraymond/faultops/outcome"
)

// BulkheadConfig configures the bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the maximum number of operations running at once.
	// Must be at least 1; anything less panics.
	MaxConcurrent int

	// MaxQueue is the number of calls that may wait for a slot. Zero
	// (the default) disables queueing: calls at capacity are rejected
	// immediately. Negative values panic.
	MaxQueue int

	// QueueTimeout is how long a queued call waits for a slot before
	// resolving with a QueueTimeoutError.
	// Default: 60s
	QueueTimeout time.Duration

	// Clock overrides the time source.
	// Default: real time.
	Clock clock.Clock
}

// queueEntry is owned by the bulkhead while queued. It is resolved
// exactly once: granted a slot (nil on ready), evicted (rejection error
// on ready), or timed out (the waiter removes it itself).
type queueEntry struct {
	ready      chan error
	enqueuedAt time.Time
	timer      clock.Timer
}

// Bulkhead bounds concurrent executions, optionally queueing the
// overflow. The queue drains strictly FIFO as slots free up; shrinking
// the queue at runtime evicts the most recently queued entries first.
type Bulkhead[T any] struct {
	clock clock.Clock

	mu            sync.Mutex
	maxConcurrent int
	maxQueue      int
	queueTimeout  time.Duration
	active        int
	queue         []*queueEntry

	executed      int64
	rejected      int64
	totalQueued   int64
	queueTimeouts int64
}

// NewBulkhead creates a new bulkhead. It panics if MaxConcurrent < 1 or
// MaxQueue < 0.
func NewBulkhead[T any](config BulkheadConfig) *Bulkhead[T] {
	if config.MaxConcurrent < 1 {
		panic("policy: MaxConcurrent must be at least 1")
	}
	if config.MaxQueue < 0 {
		panic("policy: MaxQueue must not be negative")
	}
	if config.QueueTimeout <= 0 {
		config.QueueTimeout = 60 * time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}

	return &Bulkhead[T]{
		clock:         config.Clock,
		maxConcurrent: config.MaxConcurrent,
		maxQueue:      config.MaxQueue,
		queueTimeout:  config.QueueTimeout,
	}
}

// Execute runs op within the bulkhead, waiting in the queue if capacity
// allows.
func (b *Bulkhead[T]) Execute(ctx context.Context, op Operation[T]) outcome.Outcome[T] {
	if err := b.acquire(ctx); err != nil {
		return outcome.Err[T](err)
	}

	v, err := runOperation(ctx, op)
	b.release()

	if err != nil {
		return outcome.Err[T](err)
	}
	return outcome.Ok(v)
}

func (b *Bulkhead[T]) acquire(ctx context.Context) error {
	b.mu.Lock()

	if b.active < b.maxConcurrent {
		b.active++
		b.executed++
		b.mu.Unlock()
		return nil
	}

	if len(b.queue) >= b.maxQueue {
		b.rejected++
		err := b.rejectionLocked()
		b.mu.Unlock()
		return err
	}

	entry := &queueEntry{
		ready:      make(chan error, 1),
		enqueuedAt: b.clock.Now(),
		timer:      b.clock.NewTimer(b.queueTimeout),
	}
	b.queue = append(b.queue, entry)
	b.totalQueued++
	timeout := b.queueTimeout
	b.mu.Unlock()

	select {
	case err := <-entry.ready:
		entry.timer.Stop()
		return err

	case <-entry.timer.C():
		b.mu.Lock()
		if b.removeLocked(entry) {
			b.queueTimeouts++
			waited := b.clock.Since(entry.enqueuedAt)
			b.mu.Unlock()
			return &QueueTimeoutError{Timeout: timeout, Waited: waited}
		}
		b.mu.Unlock()
		// Lost the race: the entry was granted or evicted between the
		// timer firing and us taking the lock.
		return <-entry.ready

	case <-ctx.Done():
		b.mu.Lock()
		if b.removeLocked(entry) {
			b.mu.Unlock()
			entry.timer.Stop()
			return ctx.Err()
		}
		b.mu.Unlock()
		err := <-entry.ready
		entry.timer.Stop()
		if err != nil {
			return err
		}
		// A slot was granted concurrently with cancellation; give it back.
		b.release()
		return ctx.Err()
	}
}

func (b *Bulkhead[T]) release() {
	b.mu.Lock()
	b.active--
	b.drainLocked()
	b.mu.Unlock()
}

// drainLocked grants freed capacity to queued entries in FIFO order.
func (b *Bulkhead[T]) drainLocked() {
	for b.active < b.maxConcurrent && len(b.queue) > 0 {
		entry := b.queue[0]
		b.queue = b.queue[1:]
		b.active++
		b.executed++
		entry.ready <- nil
	}
}

// removeLocked removes entry from the queue, reporting whether it was
// still queued.
func (b *Bulkhead[T]) removeLocked(entry *queueEntry) bool {
	for i, e := range b.queue {
		if e == entry {
			b.queue = append(b.queue[:i], b.queue[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Bulkhead[T]) rejectionLocked() *BulkheadRejectedError {
	return &BulkheadRejectedError{
		MaxConcurrent: b.maxConcurrent,
		MaxQueue:      b.maxQueue,
		Active:        b.active,
		Queued:        len(b.queue),
	}
}

// SetMaxConcurrent adjusts the concurrency limit at runtime. Raising it
// immediately drains queued entries into the freed capacity. It panics
// if n < 1.
func (b *Bulkhead[T]) SetMaxConcurrent(n int) {
	if n < 1 {
		panic("policy: MaxConcurrent must be at least 1")
	}
	b.mu.Lock()
	b.maxConcurrent = n
	b.drainLocked()
	b.mu.Unlock()
}

// SetMaxQueue adjusts the queue capacity at runtime. Shrinking below the
// current queue length evicts the most recently queued entries with
// rejection failures. It panics if n < 0.
func (b *Bulkhead[T]) SetMaxQueue(n int) {
	if n < 0 {
		panic("policy: MaxQueue must not be negative")
	}
	b.mu.Lock()
	b.maxQueue = n
	for len(b.queue) > b.maxQueue {
		last := b.queue[len(b.queue)-1]
		b.queue = b.queue[:len(b.queue)-1]
		b.rejected++
		last.ready <- b.rejectionLocked()
	}
	b.mu.Unlock()
}

// Metrics returns a point-in-time snapshot of the bulkhead's counters.
// Totals accumulate for the lifetime of the bulkhead and are never reset.
func (b *Bulkhead[T]) Metrics() BulkheadMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BulkheadMetrics{
		Active:        b.active,
		Queued:        len(b.queue),
		MaxConcurrent: b.maxConcurrent,
		MaxQueue:      b.maxQueue,
		Executed:      b.executed,
		Rejected:      b.rejected,
		TotalQueued:   b.totalQueued,
		QueueTimeouts: b.queueTimeouts,
	}
}

// BulkheadMetrics contains bulkhead statistics.
type BulkheadMetrics struct {
	Active        int
	Queued        int
	MaxConcurrent int
	MaxQueue      int
	Executed      int64
	Rejected      int64
	TotalQueued   int64
	QueueTimeouts int64
}
