package behaviors

import (
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/go-drift/behaviors/pkg/core"
	"github.com/go-drift/behaviors/pkg/logging"
	"github.com/go-drift/behaviors/pkg/metrics"
	"github.com/go-drift/behaviors/pkg/timer"
)

// RenderReport describes one measured render.
type RenderReport struct {
	Host    string
	HostID  string
	Member  string
	Elapsed time.Duration
}

// Reporter receives render measurements.
type Reporter func(r RenderReport)

// Performance measures the time between the before-render and after-render
// stages of its host. Renders the host decides to skip are not measured.
type Performance struct {
	core.Base[core.Host]

	// Clock overrides the time source. Nil uses the timer package clock.
	Clock timer.Clock
	// Reporter overrides where measurements go. Nil logs at debug level and
	// records the render duration metric.
	Reporter Reporter

	mu      sync.Mutex
	started time.Time
	running bool
}

// NewPerformance creates a Performance behavior with the default reporter.
func NewPerformance() *Performance {
	return &Performance{}
}

// OnBeforeRender starts the stopwatch when a render will happen.
func (b *Performance) OnBeforeRender(willRender bool) {
	if !willRender {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = b.now()
	b.running = true
}

// OnAfterRender reports the elapsed time of the measured render.
func (b *Performance) OnAfterRender(firstRender bool) {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	elapsed := b.now().Sub(b.started)
	b.running = false
	b.mu.Unlock()

	host := b.Host()
	report := RenderReport{
		Host:    reflect.TypeOf(host).String(),
		Member:  b.MemberName(),
		Elapsed: elapsed,
	}
	if ider, ok := host.(interface{ ID() string }); ok {
		report.HostID = ider.ID()
	}

	if b.Reporter != nil {
		b.Reporter(report)
		return
	}
	logging.Named("behaviors").Debug("render time",
		zap.String("host", report.Host),
		zap.String("id", report.HostID),
		zap.Duration("elapsed", report.Elapsed))
	metrics.Default().ObserveRender(report.Host, report.Elapsed)
}

func (b *Performance) now() time.Time {
	if b.Clock != nil {
		return b.Clock.Now()
	}
	return timer.Now()
}
