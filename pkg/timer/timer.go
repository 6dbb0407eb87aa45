// Package timer provides the periodic timer used by timer behaviors.
//
// A Timer raises an ElapsedEvent every interval while it is running. Events
// are delivered on the timer's own goroutine, so listeners that touch UI
// state must marshal back onto the UI goroutine themselves.
//
//	t := timer.New(time.Second)
//	remove := t.AddElapsedListener(func(sender any, e timer.ElapsedEvent) {
//	    fmt.Println("tick at", e.SignalTime)
//	})
//	t.Start()
//	defer t.Close()
//	defer remove()
//
// Start and Stop are idempotent. After Stop returns, no tick that has not
// already begun delivery will be delivered.
package timer

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrInvalidInterval is returned by Start when the interval is not positive.
	ErrInvalidInterval = errors.New("timer: interval must be positive")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("timer: closed")
)

// ElapsedEvent is raised on every tick.
type ElapsedEvent struct {
	// SignalTime is the time the tick was raised.
	SignalTime time.Time
}

// ElapsedHandler receives ticks. sender is the Timer that raised the event.
type ElapsedHandler func(sender any, e ElapsedEvent)

// Timer is a restartable periodic timer.
// All methods are safe for concurrent use.
type Timer struct {
	mu        sync.Mutex
	interval  time.Duration
	running   bool
	closed    bool
	gen       uint64
	stop      chan struct{}
	listeners map[int]ElapsedHandler
	order     []int
	nextID    int
}

// New creates a stopped timer with the given interval.
func New(interval time.Duration) *Timer {
	return &Timer{interval: interval}
}

// Interval returns the current interval.
func (t *Timer) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

// SetInterval changes the interval. A running timer restarts with the new
// interval.
func (t *Timer) SetInterval(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interval = interval
	if t.running {
		t.stopLocked()
		if interval > 0 {
			t.startLocked()
		}
	}
}

// Running reports whether the timer is started.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Start begins raising ticks. Calling Start on a running timer does nothing.
func (t *Timer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if t.running {
		return nil
	}
	if t.interval <= 0 {
		return ErrInvalidInterval
	}
	t.startLocked()
	return nil
}

// Stop halts the timer. Calling Stop on a stopped timer does nothing.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Close stops the timer and releases its listeners. The timer cannot be
// restarted afterwards.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.closed = true
	t.listeners = nil
	t.order = nil
}

// AddElapsedListener registers handler and returns a function that removes it.
func (t *Timer) AddElapsedListener(handler ElapsedHandler) (remove func()) {
	if handler == nil {
		return func() {}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return func() {}
	}
	if t.listeners == nil {
		t.listeners = make(map[int]ElapsedHandler)
	}
	id := t.nextID
	t.nextID++
	t.listeners[id] = handler
	t.order = append(t.order, id)

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.listeners[id]; !ok {
			return
		}
		delete(t.listeners, id)
		for i, existing := range t.order {
			if existing == id {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
	}
}

func (t *Timer) startLocked() {
	t.running = true
	t.gen++
	t.stop = make(chan struct{})
	go t.run(t.stop, t.gen, t.interval)
}

func (t *Timer) stopLocked() {
	if !t.running {
		return
	}
	t.running = false
	close(t.stop)
	t.stop = nil
}

func (t *Timer) run(stop <-chan struct{}, gen uint64, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.fire(gen)
		}
	}
}

// fire delivers one tick if the generation that scheduled it is still current.
func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if !t.running || t.gen != gen {
		t.mu.Unlock()
		return
	}
	handlers := make([]ElapsedHandler, 0, len(t.order))
	for _, id := range t.order {
		handlers = append(handlers, t.listeners[id])
	}
	t.mu.Unlock()

	e := ElapsedEvent{SignalTime: Now()}
	for _, h := range handlers {
		h(t, e)
	}
}
