// Package visualization renders search results through lazily loaded
// renderers. Each renderer sits behind a Loader whose state moves from
// pending to ready or failed exactly once per load attempt.
package visualization

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/intrigue/searchforms/internal/graphql"
	"golang.org/x/sync/singleflight"
)

// State is the lifecycle of a Loader.
type State int

const (
	StatePending State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Options tune a single render.
type Options struct {
	// Attribute selects the property a histogram counts.
	Attribute string
	// Columns fixes the table columns; empty means every attribute seen.
	Columns []string
	// Wait bounds how long Render blocks on a pending loader.
	Wait time.Duration
}

// Renderer turns search results into a view payload.
type Renderer interface {
	Render(results []graphql.QueryResponseResult, opts Options) (any, error)
}

// LoadFunc produces a Renderer. It may block.
type LoadFunc func(ctx context.Context) (Renderer, error)

// ErrNotReady is returned by Renderer when the loader has not finished.
var ErrNotReady = errors.New("visualization not loaded")

// Loader runs a LoadFunc in the background and records the outcome.
type Loader struct {
	id      string
	load    LoadFunc
	timeout time.Duration
	group   *singleflight.Group

	mu       sync.RWMutex
	state    State
	renderer Renderer
	err      error
	done     chan struct{}
	attempt  int
}

// NewLoader returns a pending loader. Loads sharing group and id are
// deduplicated while in flight.
func NewLoader(id string, load LoadFunc, timeout time.Duration, group *singleflight.Group) *Loader {
	if group == nil {
		group = &singleflight.Group{}
	}
	return &Loader{
		id:      id,
		load:    load,
		timeout: timeout,
		group:   group,
		done:    make(chan struct{}),
	}
}

// ID returns the visualization id.
func (l *Loader) ID() string { return l.id }

// State returns the current state.
func (l *Loader) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Err returns the load error once the loader has failed.
func (l *Loader) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// Start begins loading in the background. It returns immediately and is a
// no-op once the loader is ready or failed. The load is detached from ctx
// cancellation so a short request cannot abort it.
func (l *Loader) Start(ctx context.Context) {
	l.mu.RLock()
	state, attempt := l.state, l.attempt
	l.mu.RUnlock()
	if state != StatePending {
		return
	}

	loadCtx := context.WithoutCancel(ctx)
	key := fmt.Sprintf("%s#%d", l.id, attempt)
	ch := l.group.DoChan(key, func() (any, error) {
		return nil, l.run(loadCtx)
	})
	go func() { <-ch }()
}

// run performs one load attempt unless another already settled the loader.
func (l *Loader) run(ctx context.Context) (err error) {
	if l.State() != StatePending {
		return l.Err()
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("visualization %s: load panicked: %v", l.id, r)
			l.settle(nil, err)
		}
	}()

	renderer, err := l.load(ctx)
	if err == nil && renderer == nil {
		err = fmt.Errorf("visualization %s: loader returned no renderer", l.id)
	}
	l.settle(renderer, err)
	return err
}

func (l *Loader) settle(renderer Renderer, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StatePending {
		return
	}
	if err != nil {
		l.state = StateFailed
		l.err = err
	} else {
		l.state = StateReady
		l.renderer = renderer
	}
	close(l.done)
}

// Wait starts the load if needed and blocks until it settles or ctx ends.
func (l *Loader) Wait(ctx context.Context) (State, error) {
	l.Start(ctx)

	l.mu.RLock()
	done := l.done
	l.mu.RUnlock()

	select {
	case <-done:
		return l.State(), l.Err()
	case <-ctx.Done():
		return l.State(), ctx.Err()
	}
}

// Retry moves a failed loader back to pending and starts it again.
func (l *Loader) Retry(ctx context.Context) {
	l.mu.Lock()
	if l.state == StateFailed {
		l.state = StatePending
		l.err = nil
		l.done = make(chan struct{})
		l.attempt++
	}
	l.mu.Unlock()

	l.Start(ctx)
}

// Renderer returns the loaded renderer, or ErrNotReady.
func (l *Loader) Renderer() (Renderer, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	switch l.state {
	case StateReady:
		return l.renderer, nil
	case StateFailed:
		return nil, l.err
	default:
		return nil, ErrNotReady
	}
}
