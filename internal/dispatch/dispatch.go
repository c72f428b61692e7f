// Package dispatch marshals units of work onto the single OS thread that owns
// an event loop's native resources.
//
// The owner is the goroutine that called Bind; Bind locks it to its OS thread
// so that no other goroutine ever runs on that thread while it is bound.
// Submit is safe from any goroutine: on the owner it runs the work inline,
// everywhere else it queues the work and returns. The owner executes queued
// work in submission order whenever it calls Drain. The one exception is work
// that a running unit submits during Drain: it runs inline at once, ahead of
// units still waiting in the same batch.
package dispatch

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// Work is a unit of work bound to the owning thread.
type Work func()

const unbound int64 = 0

// Dispatcher is a FIFO command queue drained by one owning thread.
type Dispatcher struct {
	owner atomic.Int64

	mu     sync.Mutex
	queue  []Work
	closed bool

	wake chan struct{}

	// draining is only touched by the owner.
	draining bool

	submitted atomic.Uint64
	executed  atomic.Uint64
	dropped   atomic.Uint64

	logger *slog.Logger
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Submitted uint64
	Executed  uint64
	Dropped   uint64
	Pending   int
}

// New creates an unbound dispatcher. Until Bind is called every submission
// is queued.
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Bind makes the calling goroutine the owner and locks it to its OS thread.
// It must be paired with Unbind on the same goroutine.
func (d *Dispatcher) Bind() {
	runtime.LockOSThread()
	d.owner.Store(currentThread())
	d.logger.Debug("dispatcher bound", "thread", d.owner.Load())
}

// Unbind releases ownership and the OS thread lock. Queued work stays queued
// until the next owner drains it.
func (d *Dispatcher) Unbind() {
	if !d.OnOwnerThread() {
		d.logger.Warn("dispatcher unbind from foreign thread ignored", "thread", currentThread())
		return
	}
	d.owner.Store(unbound)
	runtime.UnlockOSThread()
}

// Bound reports whether an owner is currently bound.
func (d *Dispatcher) Bound() bool {
	return d.owner.Load() != unbound
}

// Owner returns the owning OS thread id, or 0 when unbound.
func (d *Dispatcher) Owner() int64 {
	return d.owner.Load()
}

// OnOwnerThread reports whether the caller is running on the owning thread.
func (d *Dispatcher) OnOwnerThread() bool {
	owner := d.owner.Load()
	return owner != unbound && owner == currentThread()
}

// Submit runs w on the owning thread. On the owner, work queued earlier is
// drained first and w then runs before Submit returns. Anywhere else w is
// queued and Submit returns immediately. Submit never blocks on w and never
// fails; work submitted after Close is dropped.
func (d *Dispatcher) Submit(w Work) {
	if w == nil {
		return
	}
	d.submitted.Add(1)

	if d.OnOwnerThread() {
		if d.isClosed() {
			d.drop("closed")
			return
		}
		if !d.draining {
			d.Drain()
		}
		d.run(w)
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.drop("closed")
		return
	}
	d.queue = append(d.queue, w)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Wake is signalled after work is queued from a foreign thread. The owner
// selects on it next to its native event sources.
func (d *Dispatcher) Wake() <-chan struct{} {
	return d.wake
}

// Drain executes queued work in submission order, including work queued
// while draining, and returns how many units ran. Only the owner drains;
// calls from other threads return 0.
func (d *Dispatcher) Drain() int {
	if !d.OnOwnerThread() {
		d.logger.Warn("dispatcher drain from foreign thread ignored", "thread", currentThread(), "owner", d.owner.Load())
		return 0
	}
	if d.draining {
		return 0
	}
	d.draining = true
	defer func() { d.draining = false }()

	n := 0
	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		if len(batch) == 0 {
			return n
		}
		for _, w := range batch {
			d.run(w)
			n++
		}
	}
}

// Pending returns the number of queued units.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Close drops queued work and makes later submissions no-ops.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	pending := len(d.queue)
	d.queue = nil
	d.closed = true
	d.mu.Unlock()

	if pending > 0 {
		d.dropped.Add(uint64(pending))
		d.logger.Debug("dispatcher closed with pending work", "dropped", pending)
	}
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Submitted: d.submitted.Load(),
		Executed:  d.executed.Load(),
		Dropped:   d.dropped.Load(),
		Pending:   d.Pending(),
	}
}

func (d *Dispatcher) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Dispatcher) drop(reason string) {
	d.dropped.Add(1)
	d.logger.Debug("dispatcher dropped work", "reason", reason)
}

func (d *Dispatcher) run(w Work) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatched work panicked", "panic", r)
		}
	}()
	d.executed.Add(1)
	w()
}
