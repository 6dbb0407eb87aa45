package core

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/behaviors/pkg/errors"
	"github.com/go-drift/behaviors/pkg/notify"
)

// mockBehavior records every forwarded stage through testify's mock.
type mockBehavior struct {
	mock.Mock
}

func (m *mockBehavior) SetHost(host any) error { return m.Called(host).Error(0) }
func (m *mockBehavior) SetMemberName(name string) { m.Called(name) }
func (m *mockBehavior) MemberName() string        { return m.Called().String(0) }
func (m *mockBehavior) OnInitialized()             { m.Called() }
func (m *mockBehavior) OnInitializedAsync(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *mockBehavior) OnParametersSet() { m.Called() }
func (m *mockBehavior) OnParametersSetAsync(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *mockBehavior) OnBeforeRender(willRender bool) { m.Called(willRender) }
func (m *mockBehavior) OnAfterRender(firstRender bool)  { m.Called(firstRender) }
func (m *mockBehavior) OnAfterRenderAsync(ctx context.Context, firstRender bool) error {
	return m.Called(ctx, firstRender).Error(0)
}
func (m *mockBehavior) OnHostDisposed() { m.Called() }

type mockHost struct {
	Component
	Behavior *mockBehavior
}

// recorder appends every stage it sees to a shared log.
type recorder struct {
	Base[Host]
	log        *[]string
	asyncErr   error
	panicOnDis bool
}

func (r *recorder) add(stage string) { *r.log = append(*r.log, r.MemberName()+"."+stage) }

func (r *recorder) OnInitialized() { r.add("OnInitialized") }
func (r *recorder) OnInitializedAsync(ctx context.Context) error {
	r.add("OnInitializedAsync")
	return r.asyncErr
}
func (r *recorder) OnParametersSet() { r.add("OnParametersSet") }
func (r *recorder) OnBeforeRender(willRender bool) {
	if willRender {
		r.add("OnBeforeRender(true)")
	} else {
		r.add("OnBeforeRender(false)")
	}
}
func (r *recorder) OnAfterRender(firstRender bool) {
	if firstRender {
		r.add("OnAfterRender(first)")
	} else {
		r.add("OnAfterRender")
	}
}
func (r *recorder) OnHostDisposed() {
	r.add("OnHostDisposed")
	if r.panicOnDis {
		panic("dispose failed")
	}
}

type orderedHost struct {
	Component
	First   *recorder
	second  *recorder
	Missing *recorder
	third   *recorder
}

// Third is discovered before any field.
func (h *orderedHost) Third() *recorder { return h.third }

func newOrderedHost(log *[]string) *orderedHost {
	return &orderedHost{
		First:  &recorder{log: log},
		second: &recorder{log: log},
		third:  &recorder{log: log},
	}
}

type capturingHandler struct {
	errs   []*errors.BehaviorError
	panics []*errors.PanicError
}

func (h *capturingHandler) HandleError(err *errors.BehaviorError) { h.errs = append(h.errs, err) }
func (h *capturingHandler) HandlePanic(err *errors.PanicError)    { h.panics = append(h.panics, err) }

func captureErrors(t *testing.T) *capturingHandler {
	t.Helper()
	h := &capturingHandler{}
	errors.SetHandler(h)
	t.Cleanup(func() { errors.SetHandler(nil) })
	return h
}

func TestComponent_ForwardsEveryStage(t *testing.T) {
	m := new(mockBehavior)
	host := &mockHost{Behavior: m}
	ctx := context.Background()

	m.On("SetHost", mock.AnythingOfType("*core.mockHost")).Return(nil).Once()
	m.On("SetMemberName", "Behavior").Once()
	m.On("OnInitialized").Once()
	m.On("OnInitializedAsync", ctx).Return(nil).Once()
	m.On("OnParametersSet").Once()
	m.On("OnParametersSetAsync", ctx).Return(nil).Once()
	m.On("OnBeforeRender", false).Once()
	m.On("OnAfterRender", true).Once()
	m.On("OnAfterRenderAsync", ctx, true).Return(nil).Once()
	m.On("OnHostDisposed").Once()

	require.NoError(t, host.OnInitialized(host))
	require.NoError(t, host.OnInitializedAsync(ctx))
	host.OnParametersSet()
	require.NoError(t, host.OnParametersSetAsync(ctx))
	host.OnBeforeRender(false)
	host.OnAfterRender(true)
	require.NoError(t, host.OnAfterRenderAsync(ctx, true))
	host.Dispose()

	m.AssertExpectations(t)
}

func TestComponent_DiscoveryOrder(t *testing.T) {
	var log []string
	host := newOrderedHost(&log)

	require.NoError(t, host.OnInitialized(host))

	names := make([]string, 0, 3)
	for _, b := range host.Bindings() {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"Third", "First", "second"}, names)
	assert.Equal(t, []string{"Third.OnInitialized", "First.OnInitialized", "second.OnInitialized"}, log)
	assert.Same(t, host, host.First.Host())
}

func TestComponent_OnInitializedRunsOnce(t *testing.T) {
	var log []string
	host := newOrderedHost(&log)

	require.NoError(t, host.OnInitialized(host))
	require.NoError(t, host.OnInitialized(host))

	assert.Len(t, host.Bindings(), 3)
	assert.Len(t, log, 3)
}

func TestComponent_OnInitializedRejectsForeignHost(t *testing.T) {
	var log []string
	host := newOrderedHost(&log)
	other := newOrderedHost(&log)

	err := host.OnInitialized(other)
	assert.ErrorIs(t, err, errors.ErrHostType)
	assert.Empty(t, host.Bindings())
}

func TestComponent_SharedInstanceFailsBinding(t *testing.T) {
	var log []string
	shared := &recorder{log: &log}
	a := &orderedHost{First: shared}
	b := &orderedHost{First: shared}

	require.NoError(t, a.OnInitialized(a))
	err := b.OnInitialized(b)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSharedInstance)

	var be *errors.BehaviorError
	require.True(t, stderrors.As(err, &be))
	assert.Equal(t, errors.KindBinding, be.Kind)
	assert.Equal(t, "First", be.Member)
	assert.Equal(t, "*core.orderedHost", be.Host)

	// The behavior stays attached to its first host.
	assert.Same(t, a, shared.Host())
	assert.Empty(t, b.Bindings())
}

func TestComponent_BindingFailureIsTerminal(t *testing.T) {
	var otherLog, log []string
	shared := &recorder{log: &otherLog}
	a := &orderedHost{First: shared}
	require.NoError(t, a.OnInitialized(a))

	// Third is bound before First fails.
	b := &orderedHost{First: shared, third: &recorder{log: &log}}
	err := b.OnInitialized(b)
	require.ErrorIs(t, err, errors.ErrSharedInstance)

	assert.True(t, b.IsDisposed())
	assert.Equal(t, []string{"Third.OnInitialized", "Third.OnHostDisposed"}, log)

	// Retrying reports the same failure.
	assert.Same(t, err, b.OnInitialized(b))
	assert.Same(t, err, b.OnInitializedAsync(context.Background()))
	assert.Same(t, err, b.OnParametersSetAsync(context.Background()))

	// Nothing is forwarded to the partially bound set.
	b.OnParametersSet()
	b.OnBeforeRender(true)
	b.OnAfterRender(true)
	assert.Equal(t, []string{"Third.OnInitialized", "Third.OnHostDisposed"}, log)

	// The shared behavior still belongs to its first host.
	assert.Same(t, a, shared.Host())
	assert.NotContains(t, otherLog, "First.OnHostDisposed")
}

func TestComponent_AsyncFailureStopsForwarding(t *testing.T) {
	var log []string
	host := newOrderedHost(&log)
	boom := stderrors.New("boom")
	host.First.asyncErr = boom

	require.NoError(t, host.OnInitialized(host))
	log = log[:0]

	err := host.OnInitializedAsync(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var be *errors.BehaviorError
	require.True(t, stderrors.As(err, &be))
	assert.Equal(t, errors.KindLifecycle, be.Kind)
	assert.Equal(t, "First", be.Member)

	assert.Equal(t, []string{"Third.OnInitializedAsync", "First.OnInitializedAsync"}, log)
}

func TestComponent_AsyncHonorsCancellation(t *testing.T) {
	var log []string
	host := newOrderedHost(&log)
	require.NoError(t, host.OnInitialized(host))
	log = log[:0]

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := host.OnInitializedAsync(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, log)
}

func TestComponent_FlagsPassThrough(t *testing.T) {
	var log []string
	host := newOrderedHost(&log)
	host.second, host.third = nil, nil
	require.NoError(t, host.OnInitialized(host))
	log = log[:0]

	host.OnBeforeRender(true)
	host.OnBeforeRender(false)
	host.OnAfterRender(true)
	host.OnAfterRender(false)

	assert.Equal(t, []string{
		"First.OnBeforeRender(true)",
		"First.OnBeforeRender(false)",
		"First.OnAfterRender(first)",
		"First.OnAfterRender",
	}, log)
}

func TestComponent_DisposeStopsForwarding(t *testing.T) {
	var log []string
	host := newOrderedHost(&log)
	require.NoError(t, host.OnInitialized(host))
	log = log[:0]

	host.Dispose()
	host.Dispose()
	assert.Equal(t, []string{"Third.OnHostDisposed", "First.OnHostDisposed", "second.OnHostDisposed"}, log)
	assert.True(t, host.IsDisposed())

	log = log[:0]
	host.OnParametersSet()
	host.OnBeforeRender(true)
	host.OnAfterRender(false)
	assert.ErrorIs(t, host.OnParametersSetAsync(context.Background()), errors.ErrDisposed)
	assert.ErrorIs(t, host.OnInitialized(host), errors.ErrDisposed)
	assert.Empty(t, log)
}

func TestComponent_DisposeSurvivesPanickingBehavior(t *testing.T) {
	handler := captureErrors(t)
	var log []string
	host := newOrderedHost(&log)
	host.third.panicOnDis = true
	require.NoError(t, host.OnInitialized(host))
	log = log[:0]

	var cleaned bool
	host.OnDispose(func() { cleaned = true })

	host.Dispose()
	assert.Equal(t, []string{"Third.OnHostDisposed", "First.OnHostDisposed", "second.OnHostDisposed"}, log)
	assert.True(t, cleaned)
	require.Len(t, handler.panics, 1)
	assert.Equal(t, "core.Component.Dispose", handler.panics[0].Op)
}

func TestComponent_OnDisposeRunsInReverseOrder(t *testing.T) {
	host := &emptyHost{}
	var order []int
	host.OnDispose(func() { order = append(order, 1) })
	unregister := host.OnDispose(func() { order = append(order, 2) })
	host.OnDispose(func() { order = append(order, 3) })
	unregister()

	host.Dispose()
	assert.Equal(t, []int{3, 1}, order)

	// Registering after disposal runs immediately.
	var late bool
	host.OnDispose(func() { late = true })
	assert.True(t, late)
}

func TestComponent_DispatchWithoutOwnerRunsInline(t *testing.T) {
	host := &emptyHost{}
	var ran bool
	assert.True(t, host.Dispatch(func() { ran = true }))
	assert.True(t, ran)
	assert.False(t, host.Dispatch(nil))
}

func TestComponent_IDIsStable(t *testing.T) {
	a, b := &emptyHost{}, &emptyHost{}
	assert.NotEmpty(t, a.ID())
	assert.Equal(t, a.ID(), a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestComponent_DefaultHooks(t *testing.T) {
	host := &emptyHost{}
	assert.True(t, host.ShouldRender())
	// Without an element these are no-ops.
	host.OnPropertyChanged(nil, notify.PropertyChangedEvent{PropertyName: "Now"})
	host.StateHasChanged()
	assert.Nil(t, host.Element())
}
