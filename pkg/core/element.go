package core

import (
	"context"
	"sync"

	"github.com/go-drift/behaviors/pkg/errors"
)

// Initializer is implemented by hosts that do their own setup after their
// behaviors have been initialized.
type Initializer interface {
	Initialized(ctx context.Context) error
}

// ParametersSetter is implemented by hosts that react to new parameters
// after their behaviors have seen them.
type ParametersSetter interface {
	ParametersSet(ctx context.Context) error
}

// Renderer is implemented by hosts that produce output when rendered.
type Renderer interface {
	Render() string
}

// Element drives a Host through its lifecycle: mount, parameter updates,
// renders and unmount. It plays the role of the rendering framework for
// hosts that are not embedded in one.
//
// An Element with a BuildOwner defers re-renders requested through
// StateHasChanged until the owner flushes. Without an owner, callers drive
// renders with RebuildIfNeeded.
type Element struct {
	mu       sync.Mutex
	host     Host
	owner    *BuildOwner
	mounted  bool
	dirty    bool
	rendered bool
	output   string
	mountErr error
}

// NewElement creates an unmounted element for host. owner may be nil.
func NewElement(host Host, owner *BuildOwner) *Element {
	return &Element{host: host, owner: owner}
}

// Host returns the hosted component.
func (e *Element) Host() Host {
	return e.host
}

// Output returns the result of the most recent render.
func (e *Element) Output() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.output
}

// Mounted reports whether the element is mounted.
func (e *Element) Mounted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mounted
}

func (e *Element) isMounted() bool {
	return e.Mounted()
}

// Mount initializes the host, delivers the initial parameters and performs
// the first render. The first error stops the sequence and is final: the
// host is disposed and later calls to Mount return the same error.
func (e *Element) Mount(ctx context.Context) error {
	e.mu.Lock()
	if e.mountErr != nil {
		err := e.mountErr
		e.mu.Unlock()
		return err
	}
	if e.mounted {
		e.mu.Unlock()
		return nil
	}
	e.mounted = true
	e.mu.Unlock()

	if err := e.mount(ctx); err != nil {
		e.mu.Lock()
		e.mountErr = err
		e.mounted = false
		e.dirty = false
		e.mu.Unlock()
		e.host.component().Dispose()
		return err
	}
	return nil
}

func (e *Element) mount(ctx context.Context) error {
	c := e.host.component()
	c.setElement(e)

	if err := c.OnInitialized(e.host); err != nil {
		return err
	}
	if init, ok := e.host.(Initializer); ok {
		if err := init.Initialized(ctx); err != nil {
			return err
		}
	}
	if err := c.OnInitializedAsync(ctx); err != nil {
		return err
	}
	if err := e.setParameters(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	e.dirty = true
	e.mu.Unlock()
	return e.RebuildIfNeeded(ctx)
}

// Update applies new parameter values to the host and re-renders it.
// apply may be nil when only the parameter stages should run.
func (e *Element) Update(ctx context.Context, apply func()) error {
	if !e.Mounted() {
		return nil
	}
	if apply != nil {
		apply()
	}
	if err := e.setParameters(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	e.dirty = true
	e.mu.Unlock()
	return e.RebuildIfNeeded(ctx)
}

// Unmount disposes the host. It is safe to call more than once.
func (e *Element) Unmount() {
	e.mu.Lock()
	e.mounted = false
	e.dirty = false
	e.mu.Unlock()
	e.host.component().Dispose()
}

// MarkNeedsBuild flags the element for a re-render and schedules it with
// the build owner, if any.
func (e *Element) MarkNeedsBuild() {
	e.mu.Lock()
	if e.dirty || !e.mounted {
		e.mu.Unlock()
		return
	}
	e.dirty = true
	owner := e.owner
	e.mu.Unlock()

	if owner != nil {
		owner.ScheduleBuild(e)
	}
}

// RebuildIfNeeded renders the host if it is dirty. Behaviors see
// OnBeforeRender for every attempt; the after-render stages run only when
// the render happened. The first render always happens.
func (e *Element) RebuildIfNeeded(ctx context.Context) error {
	e.mu.Lock()
	if !e.dirty || !e.mounted {
		e.mu.Unlock()
		return nil
	}
	e.dirty = false
	firstRender := !e.rendered
	e.mu.Unlock()

	c := e.host.component()
	willRender := firstRender || e.host.ShouldRender()
	c.OnBeforeRender(willRender)
	if !willRender {
		return nil
	}

	output := e.safeRender()

	e.mu.Lock()
	e.output = output
	e.rendered = true
	e.mu.Unlock()

	c.OnAfterRender(firstRender)
	return c.OnAfterRenderAsync(ctx, firstRender)
}

func (e *Element) setParameters(ctx context.Context) error {
	c := e.host.component()
	c.OnParametersSet()
	if err := c.OnParametersSetAsync(ctx); err != nil {
		return err
	}
	if setter, ok := e.host.(ParametersSetter); ok {
		return setter.ParametersSet(ctx)
	}
	return nil
}

// safeRender calls the host's Render with panic recovery. A panicking
// render is reported and produces empty output.
func (e *Element) safeRender() (output string) {
	renderer, ok := e.host.(Renderer)
	if !ok {
		return ""
	}
	defer errors.RecoverWithCallback("core.Element.Render", func(any) {
		output = ""
	})
	return renderer.Render()
}

func (e *Element) dispatcher() *Dispatcher {
	if e.owner == nil {
		return nil
	}
	return e.owner.Dispatcher()
}
