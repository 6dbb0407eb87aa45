package testing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-drift/behaviors/pkg/core"
	"github.com/go-drift/behaviors/pkg/timer"
)

// ErrSettleTimeout is returned when PumpUntil exceeds its timeout.
var ErrSettleTimeout = errors.New("PumpUntil timed out: condition not met")

// pollInterval is how long PumpUntil waits between pumps.
const pollInterval = time.Millisecond

// HostTester drives a host through its lifecycle the way an application
// would, without a running UI loop. Work dispatched from timer goroutines
// and model notifications is queued until Pump runs it on the test
// goroutine.
type HostTester struct {
	ctx       context.Context
	owner     *core.BuildOwner
	element   *core.Element
	clock     *FakeClock
	prevClock timer.Clock
}

// NewHostTester creates a tester with a fresh build owner and installs a
// fake clock for timer signal times.
// Call Cleanup() when done, or use NewHostTesterWithT() instead.
func NewHostTester() *HostTester {
	clk := NewFakeClock()
	t := &HostTester{
		ctx:   context.Background(),
		owner: core.NewBuildOwner(),
		clock: clk,
	}
	t.prevClock = timer.SetClock(clk)
	return t
}

// NewHostTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewHostTesterWithT(t *testing.T) *HostTester {
	tester := NewHostTester()
	tester.ctx = t.Context()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup unmounts the host, closes the build owner and restores the timer
// clock. Must be called if not using NewHostTesterWithT.
func (t *HostTester) Cleanup() {
	t.Unmount()
	t.owner.Close()
	timer.SetClock(t.prevClock)
}

// Clock returns the fake clock stamped on timer events and used by the
// Performance behavior.
func (t *HostTester) Clock() *FakeClock {
	return t.clock
}

// Owner returns the build owner hosts are mounted with.
func (t *HostTester) Owner() *core.BuildOwner {
	return t.owner
}

// Element returns the element of the mounted host, or nil.
func (t *HostTester) Element() *core.Element {
	return t.element
}

// Mount mounts host, unmounting the previous one, and runs one pump.
func (t *HostTester) Mount(host core.Host) error {
	t.Unmount()
	t.element = core.NewElement(host, t.owner)
	if err := t.element.Mount(t.ctx); err != nil {
		return err
	}
	return t.Pump()
}

// Update applies new parameters to the mounted host.
func (t *HostTester) Update(apply func()) error {
	if t.element == nil {
		return nil
	}
	if err := t.element.Update(t.ctx, apply); err != nil {
		return err
	}
	return t.Pump()
}

// Unmount disposes the mounted host, if any.
func (t *HostTester) Unmount() {
	if t.element == nil {
		return
	}
	t.element.Unmount()
	t.element = nil
}

// Pump runs queued dispatches and pending re-renders until none remain.
func (t *HostTester) Pump() error {
	return t.owner.Pump(t.ctx)
}

// PumpUntil pumps repeatedly until cond returns true. Returns
// ErrSettleTimeout if cond is still false after timeout.
func (t *HostTester) PumpUntil(cond func() bool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := t.Pump(); err != nil {
			return err
		}
		if cond() {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrSettleTimeout
		}
		time.Sleep(pollInterval)
	}
}

// Output returns the latest render of the mounted host.
func (t *HostTester) Output() string {
	if t.element == nil {
		return ""
	}
	return t.element.Output()
}
