// Package errors provides structured error handling for behaviors and their hosts.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindBinding indicates a behavior could not be bound to a host.
	KindBinding
	// KindLifecycle indicates a behavior hook failed while a lifecycle stage was forwarded.
	KindLifecycle
	// KindHandler indicates a failure inside a timer or property-changed callback.
	KindHandler
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindConfig indicates invalid configuration.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindBinding:
		return "binding"
	case KindLifecycle:
		return "lifecycle"
	case KindHandler:
		return "handler"
	case KindPanic:
		return "panic"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

var (
	// ErrSharedInstance is returned when a behavior already bound to one host
	// is assigned to another.
	ErrSharedInstance = stderrors.New("a behavior instance must not be shared between components; if you injected the behavior, register it as transient")
	// ErrHostType is returned when a host does not satisfy the type a behavior requires.
	ErrHostType = stderrors.New("host does not satisfy the behavior's host type")
	// ErrNilHost is returned when a nil host is assigned to a behavior.
	ErrNilHost = stderrors.New("host must not be nil")
	// ErrDisposed is returned by lifecycle stages invoked after the host was disposed.
	ErrDisposed = stderrors.New("host has been disposed")
)

// BehaviorError represents a structured error raised by a behavior or by the
// orchestrator forwarding to it.
type BehaviorError struct {
	// Op is the operation that failed (e.g., "core.Component.OnInitializedAsync").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Host is the host type name, if known.
	Host string
	// Member is the host member holding the behavior, if known.
	Member string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *BehaviorError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("%s [%s] member=%s: %v", e.Op, e.Kind, e.Member, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *BehaviorError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "behaviors.Timer.tick").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by hosts and behaviors.
type ErrorHandler interface {
	// HandleError is called when an error occurs outside a caller's stack,
	// such as in a timer tick.
	HandleError(err *BehaviorError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
