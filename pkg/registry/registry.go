// Package registry lets applications register behaviors for injection into
// hosts.
//
// A behavior knows the host that uses it, so an instance can only serve one
// host. Every registration is therefore transient: each resolution calls
// the factory and returns a new instance.
//
//	r := registry.New()
//	registry.AddBehavior(r, behaviors.NewPropertyChanged)
//
//	type page struct {
//	    core.Component
//	    Changes *behaviors.PropertyChanged `inject:""`
//	}
//
//	p := &page{}
//	if err := registry.Inject(r, p); err != nil {
//	    return err
//	}
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/go-drift/behaviors/pkg/behaviors"
	"github.com/go-drift/behaviors/pkg/core"
)

// ErrNotRegistered is returned when resolving a type that has no factory.
var ErrNotRegistered = errors.New("registry: type not registered")

// ErrNotStruct is returned by Inject for hosts that are not struct pointers.
var ErrNotStruct = errors.New("registry: host must be a pointer to a struct")

// Registry maps behavior types to factories.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[reflect.Type]func() any
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[reflect.Type]func() any)}
}

// AddBehavior registers factory for T with the transient lifetime.
// Registering T again replaces the previous factory.
func AddBehavior[T core.Behavior](r *Registry, factory func() T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[reflect.TypeFor[T]()] = func() any { return factory() }
}

// AddBehaviors registers the stock behaviors.
func AddBehaviors(r *Registry) {
	AddBehavior(r, behaviors.NewPropertyChanged)
	AddBehavior(r, behaviors.NewDefaultTimer)
	AddBehavior(r, behaviors.NewPerformance)
	AddBehavior(r, behaviors.NewLog)
}

// Resolve returns a new instance of T.
func Resolve[T any](r *Registry) (T, error) {
	var zero T
	instance, err := r.resolve(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return instance.(T), nil
}

// Registered reports whether t has a factory.
func (r *Registry) Registered(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[t]
	return ok
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

func (r *Registry) resolve(t reflect.Type) (any, error) {
	r.mu.RLock()
	factory, ok := r.factories[t]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, t)
	}
	return factory(), nil
}

// Inject fills every nil field of host tagged `inject:""` with a new
// instance from r. Fields of any visibility are supported; fields that
// already hold a value are left alone. A tagged field whose type is not
// registered fails with ErrNotRegistered.
func Inject(r *Registry, host any) error {
	v := reflect.ValueOf(host)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrNotStruct
	}
	return injectStruct(r, v.Elem())
}

func injectStruct(r *Registry, v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		field := v.Field(i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if err := injectStruct(r, field); err != nil {
				return err
			}
			continue
		}
		if _, ok := f.Tag.Lookup("inject"); !ok {
			continue
		}
		if !isNilable(field) || !field.IsNil() {
			continue
		}

		instance, err := r.resolve(f.Type)
		if err != nil {
			return fmt.Errorf("inject %s.%s: %w", t, f.Name, err)
		}
		settable(field).Set(reflect.ValueOf(instance))
	}
	return nil
}

func isNilable(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// settable returns a view of an addressable field that allows Set even
// when the field is unexported.
func settable(field reflect.Value) reflect.Value {
	if field.CanSet() {
		return field
	}
	return reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem()
}
