package core

import (
	"context"
	stderrors "errors"
	"sync"

	"go.uber.org/zap"

	"github.com/go-drift/behaviors/pkg/logging"
)

// BuildOwner tracks dirty elements that need re-rendering and owns the
// dispatcher that serializes work onto the UI goroutine.
type BuildOwner struct {
	dirty      []*Element
	dirtySet   map[*Element]bool
	dispatcher *Dispatcher
	mu         sync.Mutex

	// OnNeedsFrame is called when a new element is scheduled for rebuild.
	OnNeedsFrame func()
}

// NewBuildOwner creates a new BuildOwner.
func NewBuildOwner() *BuildOwner {
	return &BuildOwner{
		dispatcher: NewDispatcher(),
	}
}

// Dispatcher returns the dispatcher for UI goroutine work.
func (b *BuildOwner) Dispatcher() *Dispatcher {
	return b.dispatcher
}

// ScheduleBuild marks an element as needing rebuild.
func (b *BuildOwner) ScheduleBuild(element *Element) {
	added := func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.dirtySet[element] {
			return false
		}
		if b.dirtySet == nil {
			b.dirtySet = make(map[*Element]bool)
		}
		b.dirtySet[element] = true
		b.dirty = append(b.dirty, element)
		return true
	}()

	if !added {
		return
	}
	b.dispatcher.signal()
	if b.OnNeedsFrame != nil {
		b.OnNeedsFrame()
	}
}

// NeedsWork returns true if there are dirty elements or pending dispatches.
func (b *BuildOwner) NeedsWork() bool {
	b.mu.Lock()
	hasDirty := len(b.dirty) > 0
	b.mu.Unlock()
	if hasDirty {
		return true
	}
	return b.dispatcher.Pending() > 0
}

// FlushBuild re-renders all dirty elements in scheduling order. Errors from
// individual elements do not stop the flush; they are joined and returned.
func (b *BuildOwner) FlushBuild(ctx context.Context) error {
	var errs []error
	for {
		b.mu.Lock()
		if len(b.dirty) == 0 {
			b.mu.Unlock()
			return stderrors.Join(errs...)
		}

		dirty := b.dirty
		b.dirty = nil
		clear(b.dirtySet)
		b.mu.Unlock()

		for _, element := range dirty {
			if !element.isMounted() {
				continue
			}
			if err := element.RebuildIfNeeded(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
}

// Pump drains pending dispatches and flushes dirty elements until no work
// remains.
func (b *BuildOwner) Pump(ctx context.Context) error {
	var errs []error
	for b.NeedsWork() {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.dispatcher.Drain()
		if err := b.FlushBuild(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Close stops the owner: the dispatcher rejects further posts and drops
// queued callbacks, and pending rebuilds are forgotten. Dispatch on a host
// of a closed owner returns false.
func (b *BuildOwner) Close() {
	b.dispatcher.Close()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dirty = nil
	clear(b.dirtySet)
}

// Run processes dispatched work and rebuilds on the calling goroutine until
// ctx is done. The calling goroutine becomes the UI goroutine. The owner is
// closed when Run returns, as nothing drains it afterwards.
func (b *BuildOwner) Run(ctx context.Context) error {
	defer b.Close()
	log := logging.Named("core")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.dispatcher.Wake():
			b.dispatcher.Drain()
			if err := b.FlushBuild(ctx); err != nil {
				log.Warn("rebuild failed", zap.Error(err))
			}
		}
	}
}
