package demo

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-drift/behaviors/pkg/behaviors"
	"github.com/go-drift/behaviors/pkg/core"
	"github.com/go-drift/behaviors/pkg/timer"
)

// ShuffleInterval is how often the random value changes by default.
const ShuffleInterval = 700 * time.Millisecond

// ClockHost shows the time of day and a random value. Ticker refreshes the
// clock and Shuffle the random value; Changes re-renders the host whenever
// either model changes.
type ClockHost struct {
	core.Component

	Clock  *TimeContainer
	Random *RandomContainer

	Changes *behaviors.PropertyChanged
	Ticker  *behaviors.Timer
	Shuffle *behaviors.Timer
	Perf    *behaviors.Performance
	Trace   *behaviors.Log
	Out     *Printer

	renders int
}

// NewClockHost creates a clock host printing its renders to w. w may be nil.
func NewClockHost(w io.Writer) *ClockHost {
	h := &ClockHost{
		Clock:   &TimeContainer{},
		Random:  &RandomContainer{},
		Changes: behaviors.NewPropertyChanged(),
		Ticker:  behaviors.NewDefaultTimer(),
		Shuffle: behaviors.NewTimer(ShuffleInterval),
		Perf:    behaviors.NewPerformance(),
		Trace:   behaviors.NewLog(),
	}
	if w != nil {
		h.Out = NewPrinter(w)
	}
	return h
}

// Initialized fills the models before the first render.
func (h *ClockHost) Initialized(ctx context.Context) error {
	now := timer.Now()
	h.Clock.Update(now)
	h.Random.Update(now)
	return nil
}

// Ticker_TimerElapsedHandler receives the ticks of Ticker.
func (h *ClockHost) Ticker_TimerElapsedHandler(sender any, e timer.ElapsedEvent) {
	h.Clock.Update(e.SignalTime)
}

// Shuffle_TimerElapsedHandler receives the ticks of Shuffle.
func (h *ClockHost) Shuffle_TimerElapsedHandler(sender any, e timer.ElapsedEvent) {
	h.Random.Update(e.SignalTime)
}

// Render formats the current state.
func (h *ClockHost) Render() string {
	h.renders++
	return fmt.Sprintf("#%d time=%s random=%s", h.renders, h.Clock.Time(), h.Random.RandomID())
}

// Renders returns how many times the host rendered.
func (h *ClockHost) Renders() int {
	return h.renders
}

// Printer writes the output of every render of its host.
type Printer struct {
	core.Base[*ClockHost]
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// OnAfterRender writes the render output as one line.
func (p *Printer) OnAfterRender(firstRender bool) {
	fmt.Fprintln(p.w, p.Host().Element().Output())
}
