package core

import "github.com/go-drift/behaviors/pkg/notify"

// Disposable is implemented by resources that must be released when their
// owner goes away.
type Disposable interface {
	Dispose()
}

// UseDisposable creates a resource and registers it for automatic disposal.
// The resource will be disposed when the host is disposed.
//
// Example:
//
//	func (h *clockHost) Initialized(ctx context.Context) error {
//	    h.conn = core.UseDisposable(h, func() *Connection {
//	        return Dial(h.addr)
//	    })
//	    return nil
//	}
func UseDisposable[D Disposable](h Host, create func() D) D {
	c := h.component()
	resource := create()
	c.OnDispose(func() {
		resource.Dispose()
	})
	return resource
}

// UseNotifier subscribes the host to a model's property changes. Every
// change is routed to the host's OnPropertyChanged. The subscription is
// removed when the host is disposed.
//
// Use it for models the host always observes. Models that are swapped at
// runtime are better tracked by a PropertyChanged behavior.
func UseNotifier(h Host, n notify.Notifier) {
	if n == nil {
		return
	}
	c := h.component()
	remove := n.AddPropertyChangedListener(func(sender any, e notify.PropertyChangedEvent) {
		if c.IsDisposed() {
			return
		}
		h.OnPropertyChanged(sender, e)
	})
	c.OnDispose(remove)
}

// Managed holds a value and requests a re-render when it changes.
// It is tied to a specific host.
//
// Managed is NOT thread-safe. It must only be accessed from the UI
// goroutine. To update from a background goroutine, go through Dispatch:
//
//	go func() {
//	    result := doExpensiveWork()
//	    h.Dispatch(func() {
//	        h.data.Set(result)
//	    })
//	}()
type Managed[T any] struct {
	base  *Component
	value T
}

// NewManaged creates a new managed value.
func NewManaged[T any](h Host, initial T) *Managed[T] {
	return &Managed[T]{
		base:  h.component(),
		value: initial,
	}
}

// Value returns the current value.
func (m *Managed[T]) Value() T {
	return m.value
}

// Set updates the value and requests a re-render.
func (m *Managed[T]) Set(value T) {
	m.value = value
	m.base.StateHasChanged()
}

// Update applies a transformation to the current value and requests a
// re-render.
func (m *Managed[T]) Update(transform func(T) T) {
	m.value = transform(m.value)
	m.base.StateHasChanged()
}
