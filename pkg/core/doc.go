// Package core provides behavior composition for lifecycle-driven hosts.
//
// A host is a struct that embeds Component. Behaviors are reusable units of
// lifecycle logic held by the host as fields or returned by its accessor
// methods. When the host is initialized, Component discovers every
// behavior, binds it to the host, and from then on forwards every lifecycle
// stage to the behaviors in discovery order.
//
// # Hosts
//
//	type clockHost struct {
//	    core.Component
//	    Ticker *behaviors.Timer
//	    Model  *demo.TimeContainer
//	}
//
//	func (h *clockHost) Render() string {
//	    return h.Model.Now().Format(time.Kitchen)
//	}
//
// Hosts customize how behaviors call back into them by declaring
// OnPropertyChanged, OnTimerElapsed or ShouldRender themselves.
//
// # Lifecycle
//
// Element drives a host through its stages:
//
//	OnInitialized, OnInitializedAsync,
//	OnParametersSet, OnParametersSetAsync,
//	OnBeforeRender, OnAfterRender, OnAfterRenderAsync,
//	Dispose
//
// Asynchronous stages are awaited one behavior at a time; the first error
// stops forwarding and is returned to the caller. After Dispose, no stage
// reaches a behavior again.
//
// # Threading
//
// Timers and model notifications arrive on arbitrary goroutines. Behaviors
// marshal host callbacks onto the UI goroutine with Host.Dispatch. A
// BuildOwner serializes dispatched work and re-renders on the goroutine that
// calls Run or Pump.
//
// # Hooks
//
// UseDisposable and UseNotifier manage resources and subscriptions with
// automatic cleanup on disposal.
package core
