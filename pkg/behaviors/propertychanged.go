package behaviors

import (
	"context"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/go-drift/behaviors/pkg/core"
	"github.com/go-drift/behaviors/pkg/discovery"
	"github.com/go-drift/behaviors/pkg/errors"
	"github.com/go-drift/behaviors/pkg/logging"
	"github.com/go-drift/behaviors/pkg/metrics"
	"github.com/go-drift/behaviors/pkg/notify"
)

// PropertyChanged forwards property changes of the models held by its host
// to the host's OnPropertyChanged, which re-renders by default.
//
// Models are discovered from the host's fields and accessors every time the
// host receives parameters. Models that appeared are subscribed, models
// that disappeared are unsubscribed. Only models held directly by the host
// are observed; nested models are not.
//
// Models are tracked by identity, so only pointer and channel models are
// observed. A value model is logged and skipped: two copies of it would be
// indistinguishable.
type PropertyChanged struct {
	core.Base[core.Host]

	// mu serializes diff steps.
	mu      sync.Mutex
	tracked map[notify.Notifier]func()

	// guard is held for reading while a notification is forwarded.
	guard    sync.RWMutex
	disposed bool

	hostName string
}

// NewPropertyChanged creates a PropertyChanged behavior.
func NewPropertyChanged() *PropertyChanged {
	return &PropertyChanged{}
}

// OnInitialized records the host type for metric labels.
func (b *PropertyChanged) OnInitialized() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hostName = reflect.TypeOf(b.Host()).String()
}

// OnParametersSet synchronizes the subscriptions with the host's models.
func (b *PropertyChanged) OnParametersSet() {
	b.sync()
}

// OnParametersSetAsync synchronizes the subscriptions with the host's models.
func (b *PropertyChanged) OnParametersSetAsync(ctx context.Context) error {
	b.sync()
	return nil
}

// OnHostDisposed removes every subscription. No notification reaches the
// host after it returns.
func (b *PropertyChanged) OnHostDisposed() {
	b.guard.Lock()
	b.disposed = true
	b.guard.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, remove := range b.tracked {
		remove()
	}
	b.tracked = nil
}

// Tracked returns the number of models currently subscribed.
func (b *PropertyChanged) Tracked() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tracked)
}

func (b *PropertyChanged) sync() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isDisposed() || !b.Bound() {
		return
	}

	current := discovery.FindInstances[notify.Notifier](b.Host())
	next := make(map[notify.Notifier]func(), len(current))
	for _, match := range current {
		model := match.Instance
		if !trackable(reflect.TypeOf(model)) {
			logging.Named("behaviors").Warn("model cannot be tracked",
				zap.String("member", match.Name),
				zap.String("type", reflect.TypeOf(model).String()))
			continue
		}
		if _, ok := next[model]; ok {
			continue
		}
		if remove, ok := b.tracked[model]; ok {
			next[model] = remove
			continue
		}
		next[model] = model.AddPropertyChangedListener(b.forward)
	}

	for model, remove := range b.tracked {
		if _, ok := next[model]; !ok {
			remove()
		}
	}
	b.tracked = next
}

// trackable reports whether values of t have identity.
func trackable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Chan:
		return true
	}
	return false
}

func (b *PropertyChanged) forward(sender any, e notify.PropertyChangedEvent) {
	b.guard.RLock()
	defer b.guard.RUnlock()
	if b.disposed {
		return
	}
	defer errors.Recover("behaviors.PropertyChanged.forward")

	metrics.Default().IncPropertyChange(b.hostName)
	b.Host().OnPropertyChanged(sender, e)
}

func (b *PropertyChanged) isDisposed() bool {
	b.guard.RLock()
	defer b.guard.RUnlock()
	return b.disposed
}
