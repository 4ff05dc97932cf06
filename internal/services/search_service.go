package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/intrigue/searchforms/internal/executor"
	"github.com/intrigue/searchforms/internal/forms"
	"github.com/intrigue/searchforms/internal/graphql"
	"github.com/intrigue/searchforms/internal/logging"
	"github.com/intrigue/searchforms/internal/metrics"
	"github.com/intrigue/searchforms/internal/search"
	"github.com/intrigue/searchforms/internal/visualization"
)

// SearchOptions select how results are presented.
type SearchOptions struct {
	// Visualization renders the results with the named visualization when set.
	Visualization string
	// Attribute is passed to the visualization (histogram attribute).
	Attribute string
}

// SearchResult is the outcome of a test search.
type SearchResult struct {
	Executor      string                 `json:"executor"`
	Request       search.Request         `json:"request"`
	Response      *graphql.QueryResponse `json:"response"`
	Visualization *visualization.View    `json:"visualization,omitempty"`
}

// SearchService runs forms through the translator and the executor
type SearchService struct {
	logger   *logging.Logger
	forms    *FormService
	executor executor.Executor
	registry *visualization.Registry
	wait     time.Duration
	metrics  *metrics.Metrics
}

// NewSearchService creates a new SearchService. wait bounds how long a
// search blocks on a visualization that is still loading.
func NewSearchService(
	logger *logging.Logger,
	formService *FormService,
	exec executor.Executor,
	registry *visualization.Registry,
	wait time.Duration,
	m *metrics.Metrics,
) *SearchService {
	return &SearchService{
		logger:   logger,
		forms:    formService,
		executor: exec,
		registry: registry,
		wait:     wait,
		metrics:  m,
	}
}

// ExecutorName reports the strategy chosen at startup.
func (s *SearchService) ExecutorName() string {
	return s.executor.Name()
}

// Translate returns the request a form produces.
func (s *SearchService) Translate(form forms.Form) search.Request {
	return search.Translate(form)
}

// Search translates form, executes it and optionally renders the results.
func (s *SearchService) Search(ctx context.Context, form forms.Form, opts SearchOptions) (*SearchResult, error) {
	if opts.Visualization != "" {
		if _, err := s.Visualization(opts.Visualization); err != nil {
			return nil, err
		}
	}

	req := search.Translate(form)
	log := s.logger.WithContext(ctx)

	start := time.Now()
	resp, err := s.executor.Execute(ctx, req)
	latency := time.Since(start)
	s.metrics.ObserveSearch(s.executor.Name(), latency, err)
	if err != nil {
		log.Error("Search failed",
			"executor", s.executor.Name(),
			"sources", req.Srcs,
			"latency_ms", latency.Milliseconds(),
			"error", err)
		return nil, NewServiceErrorWithDetails(CodeSearchFailed, "Search failed",
			map[string]interface{}{"executor": s.executor.Name(), "error": err.Error()})
	}

	log.Debug("Search completed",
		"executor", s.executor.Name(),
		"results", len(resp.Results),
		"hits", resp.Status.Hits,
		"latency_ms", latency.Milliseconds())

	result := &SearchResult{
		Executor: s.executor.Name(),
		Request:  req,
		Response: resp,
	}

	if opts.Visualization != "" {
		view, err := s.registry.Render(ctx, opts.Visualization, resp, visualization.Options{
			Attribute: opts.Attribute,
			Wait:      s.wait,
		})
		if err != nil {
			log.Error("Visualization render failed", "visualization", opts.Visualization, "error", err)
			return nil, NewServiceErrorWithDetails(CodeSearchFailed, "Visualization render failed",
				map[string]interface{}{"visualization": opts.Visualization, "error": err.Error()})
		}
		s.metrics.ObserveRender(opts.Visualization, view.State.String())
		result.Visualization = &view
	}

	return result, nil
}

// SearchByID loads the stored form and searches with it.
func (s *SearchService) SearchByID(ctx context.Context, id string, opts SearchOptions) (*SearchResult, error) {
	form, err := s.forms.Get(logging.WithFormID(ctx, id), id)
	if err != nil {
		return nil, err
	}
	return s.Search(logging.WithFormID(ctx, id), form, opts)
}

// AttributeDefinitions returns the attributes the editor may filter on.
func (s *SearchService) AttributeDefinitions(ctx context.Context) ([]executor.AttributeDefinition, error) {
	defs, err := s.executor.AttributeDefinitions(ctx)
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to load attribute definitions",
			"executor", s.executor.Name(), "error", err)
		return nil, NewServiceErrorWithDetails(CodeSearchFailed, "Failed to load attribute definitions",
			map[string]interface{}{"executor": s.executor.Name(), "error": err.Error()})
	}
	if defs == nil {
		defs = []executor.AttributeDefinition{}
	}
	return defs, nil
}

// Visualizations lists every registered visualization and its load state.
func (s *SearchService) Visualizations() []visualization.Info {
	return s.registry.List()
}

// Visualization describes one visualization.
func (s *SearchService) Visualization(id string) (visualization.Info, error) {
	info, err := s.registry.Describe(id)
	if err != nil {
		return visualization.Info{}, visualizationError(id, err)
	}
	return info, nil
}

// LoadVisualization starts loading id, retrying it when a previous load
// failed, and returns the state after at most the configured wait.
func (s *SearchService) LoadVisualization(ctx context.Context, id string) (visualization.Info, error) {
	loader, err := s.registry.Loader(id)
	if err != nil {
		return visualization.Info{}, visualizationError(id, err)
	}

	loader.Retry(ctx)
	if s.wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, s.wait)
		_, _ = loader.Wait(waitCtx)
		cancel()
	}

	s.logger.WithContext(ctx).Info("Visualization load requested",
		"visualization", id, "state", loader.State().String())
	return s.Visualization(id)
}

func visualizationError(id string, err error) error {
	if errors.Is(err, visualization.ErrUnknown) {
		return NewServiceError(CodeVisualizationNotFound, fmt.Sprintf("visualization not found: %s", id))
	}
	return err
}
