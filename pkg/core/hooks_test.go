package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/behaviors/pkg/notify"
)

type mockDisposable struct {
	disposed bool
}

func (m *mockDisposable) Dispose() {
	m.disposed = true
}

type model struct {
	notify.Source
	name string
}

func (m *model) SetName(v string) {
	notify.SetProperty(&m.Source, m, &m.name, v, "Name")
}

type watchingHost struct {
	Component
	changes []string
}

func (h *watchingHost) OnPropertyChanged(sender any, e notify.PropertyChangedEvent) {
	h.changes = append(h.changes, e.PropertyName)
}

func TestUseDisposable(t *testing.T) {
	host := &emptyHost{}

	resource := UseDisposable(host, func() *mockDisposable {
		return &mockDisposable{}
	})
	assert.False(t, resource.disposed)

	host.Dispose()
	assert.True(t, resource.disposed)
}

func TestUseNotifier(t *testing.T) {
	host := &watchingHost{}
	m := &model{}

	UseNotifier(host, m)
	assert.Equal(t, 1, m.ListenerCount())

	m.SetName("a")
	m.SetName("a")
	assert.Equal(t, []string{"Name"}, host.changes)

	host.Dispose()
	assert.Zero(t, m.ListenerCount())
	m.SetName("b")
	assert.Equal(t, []string{"Name"}, host.changes)
}

func TestUseNotifier_NilIsIgnored(t *testing.T) {
	host := &watchingHost{}
	UseNotifier(host, nil)
	host.Dispose()
}

func TestManaged(t *testing.T) {
	var log []string
	host := newRenderHost(&log)
	el := NewElement(host, nil)
	ctx := context.Background()
	require.NoError(t, el.Mount(ctx))

	count := NewManaged(host, 1)
	assert.Equal(t, 1, count.Value())

	count.Set(2)
	count.Update(func(v int) int { return v * 10 })
	assert.Equal(t, 20, count.Value())

	// Without an owner the element is dirty until rebuilt.
	require.NoError(t, el.RebuildIfNeeded(ctx))
	assert.Equal(t, 2, host.renders)
}
