package behaviors

import (
	"fmt"
	"reflect"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"

	"github.com/go-drift/behaviors/pkg/core"
	"github.com/go-drift/behaviors/pkg/errors"
	"github.com/go-drift/behaviors/pkg/metrics"
	"github.com/go-drift/behaviors/pkg/timer"
)

// DefaultInterval is used by timers whose interval was never set.
const DefaultInterval = time.Second

// HandlerSuffix is appended to the member name to form the name of a
// member-specific tick handler.
const HandlerSuffix = "_TimerElapsedHandler"

// Timer ticks its host at a fixed interval, starting after the first render.
//
// Ticks go to the host's OnTimerElapsed. A host holding several timers can
// route each one separately by declaring a method named after the member
// that holds the timer:
//
//	type clockHost struct {
//	    core.Component
//	    Seconds *behaviors.Timer
//	}
//
//	func (h *clockHost) Seconds_TimerElapsedHandler(sender any, e timer.ElapsedEvent) {
//	    // ...
//	}
//
// The first letter of the member name is upper-cased, so unexported members
// can be targeted too. No panic should escape a handler. Handlers run
// through the host's Dispatch and must not dispose the host synchronously.
type Timer struct {
	core.Base[core.Host]

	mu       sync.Mutex
	interval time.Duration
	ticker   *timer.Timer
	remove   func()
	handler  timer.ElapsedHandler

	// guard is held for reading while a tick is delivered.
	guard    sync.RWMutex
	disposed bool
}

// NewTimer creates a Timer behavior ticking every interval.
func NewTimer(interval time.Duration) *Timer {
	return &Timer{interval: interval}
}

// NewDefaultTimer creates a Timer behavior ticking every DefaultInterval.
func NewDefaultTimer() *Timer {
	return NewTimer(DefaultInterval)
}

// Interval returns the tick interval.
func (b *Timer) Interval() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.interval
}

// SetInterval changes the tick interval. A running timer restarts with the
// new interval.
func (b *Timer) SetInterval(interval time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interval = interval
	if b.ticker != nil && interval > 0 {
		b.ticker.SetInterval(interval)
	}
}

// Running reports whether the timer is ticking.
func (b *Timer) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ticker != nil && b.ticker.Running()
}

// Configure applies options from configuration. Recognized keys:
//
//	interval: duration string ("250ms") or nanoseconds
func (b *Timer) Configure(options map[string]any) error {
	var opts struct {
		Interval time.Duration `mapstructure:"interval"`
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      &opts,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(options); err != nil {
		return fmt.Errorf("timer %s: %w", b.MemberName(), err)
	}
	if opts.Interval < 0 {
		return fmt.Errorf("timer %s: %w", b.MemberName(), timer.ErrInvalidInterval)
	}
	if opts.Interval > 0 {
		b.SetInterval(opts.Interval)
	}
	return nil
}

// OnInitialized resolves the member-specific handler and prepares the
// underlying timer.
func (b *Timer) OnInitialized() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ticker != nil {
		return
	}

	host := b.Host()
	b.handler = resolveHandler(host, b.MemberName())

	if b.interval <= 0 {
		b.interval = DefaultInterval
	}
	b.ticker = timer.New(b.interval)
	b.remove = b.ticker.AddElapsedListener(b.onElapsed)
}

// OnAfterRender starts the timer after the first render.
func (b *Timer) OnAfterRender(firstRender bool) {
	if !firstRender || b.isDisposed() {
		return
	}
	b.mu.Lock()
	ticker := b.ticker
	b.mu.Unlock()
	if ticker == nil {
		return
	}
	if err := ticker.Start(); err != nil {
		errors.Report(&errors.BehaviorError{
			Op:     "behaviors.Timer.OnAfterRender",
			Kind:   errors.KindLifecycle,
			Host:   reflect.TypeOf(b.Host()).String(),
			Member: b.MemberName(),
			Err:    err,
		})
	}
}

// OnHostDisposed stops the timer. It waits for a tick being delivered to
// finish; no tick reaches the host after it returns.
func (b *Timer) OnHostDisposed() {
	b.guard.Lock()
	b.disposed = true
	b.guard.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ticker == nil {
		return
	}
	b.ticker.Stop()
	if b.remove != nil {
		b.remove()
		b.remove = nil
	}
	b.ticker.Close()
}

// onElapsed runs on the timer goroutine.
func (b *Timer) onElapsed(sender any, e timer.ElapsedEvent) {
	if b.isDisposed() {
		return
	}
	b.Host().Dispatch(func() {
		b.deliver(sender, e)
	})
}

func (b *Timer) deliver(sender any, e timer.ElapsedEvent) {
	b.guard.RLock()
	defer b.guard.RUnlock()
	if b.disposed {
		return
	}
	defer errors.Recover("behaviors.Timer.deliver")

	metrics.Default().IncTimerTick(b.MemberName())
	if b.handler != nil {
		b.handler(sender, e)
		return
	}
	b.Host().OnTimerElapsed(sender, e)
}

func (b *Timer) isDisposed() bool {
	b.guard.RLock()
	defer b.guard.RUnlock()
	return b.disposed
}

var (
	handlerType = reflect.TypeOf(timer.ElapsedHandler(nil))
	handlerMaps sync.Map // reflect.Type -> map[string]int
)

// resolveHandler returns the member-specific tick handler of host bound to
// host, or nil if host declares none.
func resolveHandler(host any, member string) timer.ElapsedHandler {
	if member == "" {
		return nil
	}
	v := reflect.ValueOf(host)
	index, ok := handlerMethods(v.Type())[upperFirst(member)+HandlerSuffix]
	if !ok {
		return nil
	}
	fn := v.Method(index).Interface().(func(any, timer.ElapsedEvent))
	return fn
}

// handlerMethods returns the methods of t with the tick handler signature,
// by name. The table is built once per type.
func handlerMethods(t reflect.Type) map[string]int {
	if cached, ok := handlerMaps.Load(t); ok {
		return cached.(map[string]int)
	}
	methods := make(map[string]int)
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		// Method type includes the receiver.
		if m.Type.NumIn() != 3 || m.Type.NumOut() != 0 {
			continue
		}
		if m.Type.In(1) != handlerType.In(0) || m.Type.In(2) != handlerType.In(1) {
			continue
		}
		methods[m.Name] = i
	}
	actual, _ := handlerMaps.LoadOrStore(t, methods)
	return actual.(map[string]int)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
