// Package notify defines change-notifying models.
//
// A model embeds Source and raises a PropertyChangedEvent whenever one of its
// properties changes:
//
//	type TimeContainer struct {
//	    notify.Source
//	    time string
//	}
//
//	func (c *TimeContainer) SetTime(v string) {
//	    notify.SetProperty(&c.Source, c, &c.time, v, "Time")
//	}
//
// Listeners are registered with AddPropertyChangedListener, which returns the
// function that removes them again.
package notify

import "sync"

// PropertyChangedEvent describes a change on a model.
type PropertyChangedEvent struct {
	// PropertyName is the name of the property that changed. Empty means
	// the whole model may have changed.
	PropertyName string
}

// PropertyChangedHandler receives change notifications. sender is the model
// that raised the event.
type PropertyChangedHandler func(sender any, e PropertyChangedEvent)

// Notifier is implemented by models that report property changes.
type Notifier interface {
	// AddPropertyChangedListener registers handler and returns a function
	// that removes it. The remove function is safe to call more than once.
	AddPropertyChangedListener(handler PropertyChangedHandler) (remove func())
}

// Source is an embeddable Notifier implementation.
// All methods are safe for concurrent use.
type Source struct {
	mu        sync.Mutex
	listeners map[int]PropertyChangedHandler
	order     []int
	nextID    int
}

// AddPropertyChangedListener registers handler and returns its remove function.
func (s *Source) AddPropertyChangedListener(handler PropertyChangedHandler) func() {
	if handler == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = make(map[int]PropertyChangedHandler)
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = handler
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *Source) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listeners[id]; !ok {
		return
	}
	delete(s.listeners, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// ListenerCount returns the number of registered listeners.
func (s *Source) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Notify calls every listener with sender and the property name, in
// registration order. Listeners are called outside the lock, so they may add
// or remove listeners.
func (s *Source) Notify(sender any, propertyName string) {
	s.mu.Lock()
	handlers := make([]PropertyChangedHandler, 0, len(s.order))
	for _, id := range s.order {
		handlers = append(handlers, s.listeners[id])
	}
	s.mu.Unlock()

	e := PropertyChangedEvent{PropertyName: propertyName}
	for _, h := range handlers {
		h(sender, e)
	}
}

// SetProperty stores value in *field and notifies listeners when the value
// changed. It reports whether a notification was raised.
func SetProperty[T comparable](src *Source, sender any, field *T, value T, propertyName string) bool {
	if *field == value {
		return false
	}
	*field = value
	src.Notify(sender, propertyName)
	return true
}
