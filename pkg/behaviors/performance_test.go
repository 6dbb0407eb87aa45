package behaviors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/go-drift/behaviors/pkg/core"
	"github.com/go-drift/behaviors/pkg/logging"
	behaviortest "github.com/go-drift/behaviors/pkg/testing"
)

type perfHost struct {
	core.Component
	Perf *Performance
}

func newPerfHost(t *testing.T) (*perfHost, *behaviortest.FakeClock, *[]RenderReport) {
	t.Helper()
	clock := behaviortest.NewFakeClock()
	var reports []RenderReport
	host := &perfHost{Perf: &Performance{
		Clock:    clock,
		Reporter: func(r RenderReport) { reports = append(reports, r) },
	}}
	require.NoError(t, host.OnInitialized(host))
	return host, clock, &reports
}

func TestPerformance_MeasuresRender(t *testing.T) {
	host, clock, reports := newPerfHost(t)

	host.OnBeforeRender(true)
	clock.Advance(5 * time.Millisecond)
	host.OnAfterRender(false)

	require.Len(t, *reports, 1)
	r := (*reports)[0]
	assert.Equal(t, 5*time.Millisecond, r.Elapsed)
	assert.Equal(t, "*behaviors.perfHost", r.Host)
	assert.Equal(t, "Perf", r.Member)
	assert.Equal(t, host.ID(), r.HostID)
}

func TestPerformance_SkippedRenderIsNotMeasured(t *testing.T) {
	host, _, reports := newPerfHost(t)

	host.OnBeforeRender(false)
	host.OnAfterRender(false)
	assert.Empty(t, *reports)
}

func TestPerformance_ReportsOncePerRender(t *testing.T) {
	host, clock, reports := newPerfHost(t)

	host.OnBeforeRender(true)
	clock.Advance(time.Millisecond)
	host.OnAfterRender(true)
	host.OnAfterRender(false)

	assert.Len(t, *reports, 1)
}

func TestPerformance_DefaultReporter(t *testing.T) {
	obsCore, logs := observer.New(zap.DebugLevel)
	prev := logging.SetLogger(zap.New(obsCore))
	defer logging.SetLogger(prev)
	collector := useCollector(t)

	clock := behaviortest.NewFakeClock()
	host := &perfHost{Perf: &Performance{Clock: clock}}
	require.NoError(t, host.OnInitialized(host))

	host.OnBeforeRender(true)
	clock.Advance(2 * time.Millisecond)
	host.OnAfterRender(true)

	entries := logs.FilterMessage("render time").All()
	require.Len(t, entries, 1)
	assert.Equal(t, 2*time.Millisecond, entries[0].ContextMap()["elapsed"])

	families, err := collector.Gatherer().Gather()
	require.NoError(t, err)
	var samples uint64
	for _, f := range families {
		if f.GetName() == "test_render_duration_seconds" {
			samples = f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(1), samples)
}

func TestPerformance_UsesTimerClock(t *testing.T) {
	tester := behaviortest.NewHostTesterWithT(t)
	tester.Clock().SetStep(4 * time.Millisecond)

	var reports []RenderReport
	host := &perfHost{Perf: &Performance{
		Reporter: func(r RenderReport) { reports = append(reports, r) },
	}}
	require.NoError(t, tester.Mount(host))

	require.Len(t, reports, 1)
	assert.Equal(t, 4*time.Millisecond, reports[0].Elapsed)
}
