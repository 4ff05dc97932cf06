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

// ErrUnknown is returned for ids that were never registered.
var ErrUnknown = errors.New("unknown visualization")

// Info describes a registered visualization.
type Info struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	State State  `json:"state"`
	Error string `json:"error,omitempty"`
}

// View is the outcome of a render. Data is set only when State is ready.
type View struct {
	ID      string `json:"id"`
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type entry struct {
	title  string
	loader *Loader
}

// Registry holds visualizations by id in registration order.
type Registry struct {
	timeout time.Duration
	group   singleflight.Group

	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

// NewRegistry returns an empty registry. timeout bounds each load.
func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		timeout: timeout,
		entries: make(map[string]*entry),
	}
}

// Register adds a visualization. Registering an id twice is an error.
func (r *Registry) Register(id, title string, load LoadFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return fmt.Errorf("visualization %s already registered", id)
	}
	r.entries[id] = &entry{
		title:  title,
		loader: NewLoader(id, load, r.timeout, &r.group),
	}
	r.order = append(r.order, id)
	return nil
}

// Loader returns the loader for id.
func (r *Registry) Loader(id string) (*Loader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, id)
	}
	return e.loader, nil
}

func (r *Registry) info(id string, e *entry) Info {
	info := Info{ID: id, Title: e.title, State: e.loader.State()}
	if err := e.loader.Err(); err != nil {
		info.Error = err.Error()
	}
	return info
}

// Describe returns the current state of one visualization.
func (r *Registry) Describe(id string) (Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrUnknown, id)
	}
	return r.info(id, e), nil
}

// List describes every visualization in registration order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.info(id, r.entries[id]))
	}
	return out
}

// Preload starts every loader.
func (r *Registry) Preload(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		e.loader.Start(ctx)
	}
}

// Render draws resp with visualization id. A loader still pending after
// opts.Wait yields a placeholder view; a failed one yields its error message.
func (r *Registry) Render(ctx context.Context, id string, resp *graphql.QueryResponse, opts Options) (View, error) {
	loader, err := r.Loader(id)
	if err != nil {
		return View{}, err
	}

	if opts.Wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, opts.Wait)
		_, _ = loader.Wait(waitCtx)
		cancel()
	} else {
		loader.Start(ctx)
	}

	view := View{ID: id, State: loader.State()}
	switch view.State {
	case StatePending:
		view.Message = "Loading visualization"
		return view, nil
	case StateFailed:
		view.Message = fmt.Sprintf("Visualization failed to load: %v", loader.Err())
		return view, nil
	}

	renderer, err := loader.Renderer()
	if err != nil {
		return View{}, err
	}

	var results []graphql.QueryResponseResult
	if resp != nil {
		results = resp.Results
	}
	data, err := renderer.Render(results, opts)
	if err != nil {
		return View{}, fmt.Errorf("rendering %s: %w", id, err)
	}
	view.Data = data
	return view, nil
}
