package testing

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/behaviors/pkg/core"
	"github.com/go-drift/behaviors/pkg/timer"
)

type counterHost struct {
	core.Component
	count    int
	unmounts int
}

func (h *counterHost) Render() string { return "count=" + strconv.Itoa(h.count) }

func (h *counterHost) Initialized(ctx context.Context) error {
	h.OnDispose(func() { h.unmounts++ })
	return nil
}

func TestFakeClock_Advance(t *testing.T) {
	clk := NewFakeClock()
	start := clk.Now()

	clk.Advance(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, clk.Now().Sub(start))
}

func TestFakeClock_Set(t *testing.T) {
	clk := NewFakeClock()
	target := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	clk.Set(target)
	assert.True(t, clk.Now().Equal(target))
}

func TestFakeClock_Step(t *testing.T) {
	clk := NewFakeClock()
	clk.SetStep(3 * time.Millisecond)

	first := clk.Now()
	second := clk.Now()
	assert.Equal(t, 3*time.Millisecond, second.Sub(first))

	clk.SetStep(0)
	assert.Equal(t, clk.Now(), clk.Now())
}

func TestHostTester_InstallsClock(t *testing.T) {
	tester := NewHostTesterWithT(t)
	tester.Clock().Advance(time.Hour)
	assert.Equal(t, tester.Clock().Now(), timer.Now())
}

func TestHostTester_CleanupRestoresClock(t *testing.T) {
	tester := NewHostTester()
	tester.Cleanup()
	assert.NotEqual(t, tester.Clock().Now(), timer.Now())
}

func TestHostTester_MountAndUpdate(t *testing.T) {
	tester := NewHostTesterWithT(t)
	host := &counterHost{}

	require.NoError(t, tester.Mount(host))
	assert.Equal(t, "count=0", tester.Output())
	assert.NotNil(t, tester.Element())

	require.NoError(t, tester.Update(func() { host.count = 3 }))
	assert.Equal(t, "count=3", tester.Output())
}

func TestHostTester_PumpRunsDispatches(t *testing.T) {
	tester := NewHostTesterWithT(t)
	host := &counterHost{}
	require.NoError(t, tester.Mount(host))

	go host.Dispatch(func() {
		host.count = 7
		host.StateHasChanged()
	})

	err := tester.PumpUntil(func() bool { return tester.Output() == "count=7" }, time.Second)
	require.NoError(t, err)
}

func TestHostTester_PumpUntilTimesOut(t *testing.T) {
	tester := NewHostTesterWithT(t)
	err := tester.PumpUntil(func() bool { return false }, 5*time.Millisecond)
	assert.ErrorIs(t, err, ErrSettleTimeout)
}

func TestHostTester_MountReplacesHost(t *testing.T) {
	tester := NewHostTesterWithT(t)
	first := &counterHost{}
	second := &counterHost{}

	require.NoError(t, tester.Mount(first))
	require.NoError(t, tester.Mount(second))
	assert.True(t, first.IsDisposed())
	assert.Equal(t, 1, first.unmounts)
	assert.False(t, second.IsDisposed())

	tester.Unmount()
	assert.True(t, second.IsDisposed())
	assert.Empty(t, tester.Output())
}
