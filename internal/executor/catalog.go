package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/intrigue/searchforms/internal/forms"
	"github.com/intrigue/searchforms/internal/graphql"
	"github.com/intrigue/searchforms/internal/logging"
	"github.com/intrigue/searchforms/internal/search"
)

// CatalogOptions tunes a CatalogExecutor.
type CatalogOptions struct {
	PageSize      int
	AttributeTTL  time.Duration
	AttributeSize int
}

// CatalogExecutor sends searches to a catalog GraphQL endpoint.
type CatalogExecutor struct {
	client     *graphql.Client
	logger     *logging.Logger
	pageSize   int
	attributes *expirable.LRU[string, []AttributeDefinition]
}

// NewCatalogExecutor wraps client. Attribute definitions are cached per
// endpoint for opts.AttributeTTL.
func NewCatalogExecutor(client *graphql.Client, logger *logging.Logger, opts CatalogOptions) *CatalogExecutor {
	if opts.AttributeSize <= 0 {
		opts.AttributeSize = 16
	}
	if opts.AttributeTTL <= 0 {
		opts.AttributeTTL = 5 * time.Minute
	}
	return &CatalogExecutor{
		client:     client,
		logger:     logger,
		pageSize:   opts.PageSize,
		attributes: expirable.NewLRU[string, []AttributeDefinition](opts.AttributeSize, nil, opts.AttributeTTL),
	}
}

// Name implements Executor.
func (e *CatalogExecutor) Name() string { return ModeCatalog }

// Ping sends a trivial operation to check the endpoint answers.
func (e *CatalogExecutor) Ping(ctx context.Context) error {
	return e.client.Do(ctx, graphql.Probe, nil, nil)
}

// Execute implements Executor. The catalog requires a filter tree, so a
// request without one searches with the blank default.
func (e *CatalogExecutor) Execute(ctx context.Context, req search.Request) (*graphql.QueryResponse, error) {
	start := time.Now()
	if req.FilterTree == nil {
		req.FilterTree = forms.DefaultFilterTree()
	}

	var data struct {
		Metacards *graphql.QueryResponse `json:"metacards"`
	}
	if err := e.client.Do(ctx, graphql.SearchMetacards, req.Variables(e.pageSize), &data); err != nil {
		e.logger.Error("Catalog search failed",
			"endpoint", e.client.Endpoint(),
			"sources", req.Srcs,
			"error", err)
		return nil, fmt.Errorf("catalog search: %w", err)
	}

	resp := data.Metacards
	if resp == nil {
		resp = &graphql.QueryResponse{}
	}
	if resp.Results == nil {
		resp.Results = []graphql.QueryResponseResult{}
	}

	e.logger.Debug("Catalog search completed",
		"sources", req.Srcs,
		"results", len(resp.Results),
		"hits", resp.Status.Hits,
		"latency_ms", time.Since(start).Milliseconds())
	return resp, nil
}

// AttributeDefinitions implements Executor.
func (e *CatalogExecutor) AttributeDefinitions(ctx context.Context) ([]AttributeDefinition, error) {
	key := e.client.Endpoint()
	if defs, ok := e.attributes.Get(key); ok {
		return defs, nil
	}

	var data struct {
		MetacardTypes []AttributeDefinition `json:"metacardTypes"`
	}
	if err := e.client.Do(ctx, graphql.MetacardTypes, nil, &data); err != nil {
		return nil, fmt.Errorf("loading attribute definitions: %w", err)
	}

	e.attributes.Add(key, data.MetacardTypes)
	return data.MetacardTypes, nil
}
