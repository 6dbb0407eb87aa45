package core

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/go-drift/behaviors/pkg/discovery"
	"github.com/go-drift/behaviors/pkg/errors"
	"github.com/go-drift/behaviors/pkg/logging"
	"github.com/go-drift/behaviors/pkg/notify"
	"github.com/go-drift/behaviors/pkg/timer"
)

// Host is satisfied by any struct that embeds Component.
// Behaviors call back into the host through this interface, so methods the
// host declares itself take precedence over the Component defaults.
type Host interface {
	component() *Component

	// Dispatch runs fn on the host's UI goroutine.
	Dispatch(fn func()) bool
	// OnPropertyChanged is called for every change on every model tracked
	// by a PropertyChanged behavior.
	OnPropertyChanged(sender any, e notify.PropertyChangedEvent)
	// OnTimerElapsed is called for ticks of Timer behaviors that have no
	// member-specific handler.
	OnTimerElapsed(sender any, e timer.ElapsedEvent)
	// ShouldRender decides whether a requested render actually happens.
	// It is not consulted for the first render.
	ShouldRender() bool
}

func (c *Component) component() *Component { return c }

// Component is the base for hosts that use behaviors. Embed it in your host
// struct and declare behaviors as fields:
//
//	type clock struct {
//	    core.Component
//	    Ticker  *behaviors.Timer
//	    Changes *behaviors.PropertyChanged
//	    Model   *TimeContainer
//	}
//
// The lifecycle methods are normally called by [Element]. Hosts driven by
// another framework call them directly, in order, passing flags through
// unchanged.
type Component struct {
	mu          sync.Mutex
	id          string
	self        Host
	bindings    []Binding
	initialized bool
	disposed    bool
	bindErr     error
	disposers   []func()
	element     *Element
}

// ID returns a unique identifier for this component instance.
func (c *Component) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id == "" {
		c.id = uuid.NewString()
	}
	return c.id
}

// Bindings returns a copy of the bound behaviors in discovery order.
func (c *Component) Bindings() []Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Binding, len(c.bindings))
	copy(out, c.bindings)
	return out
}

// IsDisposed returns true if this component has been disposed.
func (c *Component) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Element returns the element driving this component, or nil when the
// component is driven directly.
func (c *Component) Element() *Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.element
}

func (c *Component) setElement(e *Element) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.element = e
}

// OnInitialized discovers the behaviors held by self, binds them, and calls
// their OnInitialized hooks in discovery order. self must be the host that
// embeds c. Discovery happens once; later calls do nothing.
//
// A behavior that cannot be bound is fatal: the component is disposed, so
// behaviors bound before it release their resources, and every later
// OnInitialized returns the same error.
func (c *Component) OnInitialized(self Host) error {
	const op = "core.Component.OnInitialized"

	if self == nil || self.component() != c {
		return &errors.BehaviorError{Op: op, Kind: errors.KindBinding, Err: errors.ErrHostType}
	}

	c.mu.Lock()
	if c.bindErr != nil {
		err := c.bindErr
		c.mu.Unlock()
		return err
	}
	if c.disposed {
		c.mu.Unlock()
		return errors.ErrDisposed
	}
	if c.initialized {
		c.mu.Unlock()
		return nil
	}
	c.initialized = true
	c.self = self
	c.mu.Unlock()

	hostName := reflect.TypeOf(self).String()
	log := logging.Named("core").With(zap.String("host", hostName), zap.String("id", c.ID()))

	for _, match := range discovery.FindInstances[Behavior](self) {
		behavior := match.Instance
		if err := behavior.SetHost(self); err != nil {
			bindErr := &errors.BehaviorError{
				Op:     op,
				Kind:   errors.KindBinding,
				Host:   hostName,
				Member: match.Name,
				Err:    err,
			}
			c.mu.Lock()
			c.bindErr = bindErr
			c.mu.Unlock()
			log.Warn("binding failed", zap.String("member", match.Name), zap.Error(err))
			c.Dispose()
			return bindErr
		}
		behavior.SetMemberName(match.Name)

		c.mu.Lock()
		c.bindings = append(c.bindings, Binding{Name: match.Name, Behavior: behavior})
		c.mu.Unlock()

		log.Debug("behavior bound", zap.String("member", match.Name), zap.String("type", reflect.TypeOf(behavior).String()))
		behavior.OnInitialized()
	}
	return nil
}

// OnInitializedAsync awaits each behavior's OnInitializedAsync in order.
// The first failure stops forwarding and is returned.
func (c *Component) OnInitializedAsync(ctx context.Context) error {
	return c.forwardAsync(ctx, "core.Component.OnInitializedAsync", func(b Behavior) error {
		return b.OnInitializedAsync(ctx)
	})
}

// OnParametersSet forwards to every behavior. It runs each time the host
// receives new parameter values.
func (c *Component) OnParametersSet() {
	for _, b := range c.snapshot() {
		b.Behavior.OnParametersSet()
	}
}

// OnParametersSetAsync awaits each behavior's OnParametersSetAsync in order.
func (c *Component) OnParametersSetAsync(ctx context.Context) error {
	return c.forwardAsync(ctx, "core.Component.OnParametersSetAsync", func(b Behavior) error {
		return b.OnParametersSetAsync(ctx)
	})
}

// OnBeforeRender forwards the render decision to every behavior.
func (c *Component) OnBeforeRender(willRender bool) {
	for _, b := range c.snapshot() {
		b.Behavior.OnBeforeRender(willRender)
	}
}

// OnAfterRender forwards to every behavior. firstRender is passed through
// unchanged.
func (c *Component) OnAfterRender(firstRender bool) {
	for _, b := range c.snapshot() {
		b.Behavior.OnAfterRender(firstRender)
	}
}

// OnAfterRenderAsync awaits each behavior's OnAfterRenderAsync in order.
func (c *Component) OnAfterRenderAsync(ctx context.Context, firstRender bool) error {
	return c.forwardAsync(ctx, "core.Component.OnAfterRenderAsync", func(b Behavior) error {
		return b.OnAfterRenderAsync(ctx, firstRender)
	})
}

// Dispose notifies every behavior that the host is gone, then runs the
// cleanups registered with OnDispose in reverse order. Only the first call
// has an effect. A panicking behavior is reported and does not prevent the
// remaining behaviors from releasing their resources.
func (c *Component) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	bindings := c.bindings
	disposers := c.disposers
	c.disposers = nil
	c.mu.Unlock()

	for _, b := range bindings {
		func() {
			defer errors.Recover("core.Component.Dispose")
			b.Behavior.OnHostDisposed()
		}()
	}

	// Run disposers in reverse order (LIFO)
	for i := len(disposers) - 1; i >= 0; i-- {
		if disposers[i] != nil {
			disposers[i]()
		}
	}
}

// OnDispose registers a cleanup function to be called when the component is
// disposed. Returns an unregister function that can be called to remove it.
// If the component is already disposed, cleanup runs immediately.
func (c *Component) OnDispose(cleanup func()) func() {
	if cleanup == nil {
		return func() {}
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		cleanup()
		return func() {}
	}
	index := len(c.disposers)
	c.disposers = append(c.disposers, cleanup)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if index < len(c.disposers) {
			c.disposers[index] = nil
		}
	}
}

// StateHasChanged requests a re-render. It does nothing when the component
// is not driven by an Element or has been disposed.
//
// StateHasChanged is NOT thread-safe with respect to the host's own state.
// Call it on the UI goroutine, or through Dispatch.
func (c *Component) StateHasChanged() {
	c.mu.Lock()
	element := c.element
	disposed := c.disposed
	c.mu.Unlock()
	if disposed || element == nil {
		return
	}
	element.MarkNeedsBuild()
}

// Dispatch schedules fn on the UI goroutine of the owning element's build
// owner. Without one, fn runs immediately on the calling goroutine.
// Returns false if fn is nil or could not be scheduled.
func (c *Component) Dispatch(fn func()) bool {
	if fn == nil {
		return false
	}
	c.mu.Lock()
	element := c.element
	c.mu.Unlock()
	if element != nil {
		if d := element.dispatcher(); d != nil {
			return d.Post(fn)
		}
	}
	fn()
	return true
}

// OnPropertyChanged requests a re-render on the UI goroutine.
// Override it on the host to react differently.
func (c *Component) OnPropertyChanged(sender any, e notify.PropertyChangedEvent) {
	c.Dispatch(c.StateHasChanged)
}

// OnTimerElapsed is a no-op default implementation.
// Override it on the host to handle ticks. No panic may escape it.
func (c *Component) OnTimerElapsed(sender any, e timer.ElapsedEvent) {}

// ShouldRender returns true. Override it on the host to skip renders.
func (c *Component) ShouldRender() bool {
	return true
}

// snapshot returns the current bindings, or nil once disposed.
func (c *Component) snapshot() []Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil
	}
	return c.bindings
}

func (c *Component) forwardAsync(ctx context.Context, op string, call func(Behavior) error) error {
	c.mu.Lock()
	bindErr, disposed := c.bindErr, c.disposed
	c.mu.Unlock()
	if bindErr != nil {
		return bindErr
	}
	if disposed {
		return errors.ErrDisposed
	}
	for _, b := range c.snapshot() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := call(b.Behavior); err != nil {
			return &errors.BehaviorError{
				Op:     op,
				Kind:   errors.KindLifecycle,
				Host:   c.hostName(),
				Member: b.Name,
				Err:    err,
			}
		}
	}
	return nil
}

func (c *Component) hostName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.self == nil {
		return ""
	}
	return reflect.TypeOf(c.self).String()
}
