package core

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-drift/behaviors/pkg/discovery"
	"github.com/go-drift/behaviors/pkg/errors"
)

// Behavior is a unit of reusable lifecycle logic attached to a host.
//
// The host's Component discovers behaviors from the host's fields and
// accessors, binds each one with SetHost and SetMemberName, and forwards
// every lifecycle stage to it in discovery order. Embed [Base] to get no-op
// defaults and the binding rule for free.
type Behavior interface {
	// SetHost binds the behavior to its host. A behavior belongs to exactly
	// one host: binding a second, different host fails with
	// errors.ErrSharedInstance.
	SetHost(host any) error
	// SetMemberName records the name of the host member holding the behavior.
	SetMemberName(name string)
	// MemberName returns the name set by SetMemberName.
	MemberName() string

	OnInitialized()
	OnInitializedAsync(ctx context.Context) error
	OnParametersSet()
	OnParametersSetAsync(ctx context.Context) error
	// OnBeforeRender is called before every render attempt, including the
	// first. willRender is false when the host decided to skip the render.
	OnBeforeRender(willRender bool)
	OnAfterRender(firstRender bool)
	OnAfterRenderAsync(ctx context.Context, firstRender bool) error
	// OnHostDisposed is the point to release every resource the behavior holds.
	OnHostDisposed()
}

// Binding pairs a behavior with the name of the host member that holds it.
type Binding struct {
	Name     string
	Behavior Behavior
}

// Base provides the binding rule and no-op hooks for behaviors.
// H is the type the host must satisfy, usually [Host] or an interface
// describing the host methods the behavior calls.
//
// Example:
//
//	type Greeter struct {
//	    core.Base[core.Host]
//	}
//
//	func (g *Greeter) OnInitialized() {
//	    fmt.Println("attached as", g.MemberName())
//	}
type Base[H any] struct {
	host       H
	bound      bool
	memberName string
}

// SetHost binds host. Binding the identical host again is a no-op.
// The orchestrator calls SetHost before any other hook.
func (b *Base[H]) SetHost(host any) error {
	if discovery.IsNil(host) {
		return errors.ErrNilHost
	}
	typed, ok := host.(H)
	if !ok {
		return fmt.Errorf("%w: %T does not implement %s", errors.ErrHostType, host, reflect.TypeFor[H]())
	}
	if b.bound {
		if discovery.SameInstance(any(b.host), host) {
			return nil
		}
		return errors.ErrSharedInstance
	}
	b.host = typed
	b.bound = true
	return nil
}

// Host returns the bound host, or the zero value of H before binding.
func (b *Base[H]) Host() H {
	return b.host
}

// Bound reports whether a host has been bound.
func (b *Base[H]) Bound() bool {
	return b.bound
}

// SetMemberName records the host member name.
func (b *Base[H]) SetMemberName(name string) {
	b.memberName = name
}

// MemberName returns the host member name.
func (b *Base[H]) MemberName() string {
	return b.memberName
}

// OnInitialized is a no-op default implementation.
func (b *Base[H]) OnInitialized() {}

// OnInitializedAsync is a no-op default implementation.
func (b *Base[H]) OnInitializedAsync(ctx context.Context) error { return nil }

// OnParametersSet is a no-op default implementation.
func (b *Base[H]) OnParametersSet() {}

// OnParametersSetAsync is a no-op default implementation.
func (b *Base[H]) OnParametersSetAsync(ctx context.Context) error { return nil }

// OnBeforeRender is a no-op default implementation.
func (b *Base[H]) OnBeforeRender(willRender bool) {}

// OnAfterRender is a no-op default implementation.
func (b *Base[H]) OnAfterRender(firstRender bool) {}

// OnAfterRenderAsync is a no-op default implementation.
func (b *Base[H]) OnAfterRenderAsync(ctx context.Context, firstRender bool) error { return nil }

// OnHostDisposed is a no-op default implementation.
func (b *Base[H]) OnHostDisposed() {}
