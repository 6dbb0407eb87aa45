package core

import (
	"sync"

	"github.com/go-drift/behaviors/pkg/errors"
)

// Dispatcher queues callbacks for execution on the UI goroutine.
// Post is safe to call from any goroutine; Drain must be called from the
// UI goroutine only.
type Dispatcher struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{wake: make(chan struct{}, 1)}
}

// Post queues fn. Returns false if fn is nil or the dispatcher is closed.
func (d *Dispatcher) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
	d.signal()
	return true
}

// Pending returns the number of queued callbacks.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Drain runs the callbacks queued so far, in order, and returns how many
// ran. Callbacks posted while draining run on the next Drain. A panicking
// callback is reported and does not stop the others.
func (d *Dispatcher) Drain() int {
	d.mu.Lock()
	queue := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, fn := range queue {
		func() {
			defer errors.Recover("core.Dispatcher.Drain")
			fn()
		}()
	}

	d.mu.Lock()
	remaining := len(d.queue) > 0
	d.mu.Unlock()
	if remaining {
		d.signal()
	}
	return len(queue)
}

// Wake returns a channel that receives a value whenever work is posted.
func (d *Dispatcher) Wake() <-chan struct{} {
	return d.wake
}

// Close rejects further posts and discards queued callbacks.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.queue = nil
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}
