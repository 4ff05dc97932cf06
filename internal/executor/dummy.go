package executor

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/intrigue/searchforms/internal/graphql"
	"github.com/intrigue/searchforms/internal/search"
)

// DefaultOfflineResultCount is used when no count is configured.
const DefaultOfflineResultCount = 25

// DummyExecutor synthesizes placeholder results without a catalog. It is the
// offline strategy: the request shapes the output but nothing is searched.
type DummyExecutor struct {
	count int
	now   func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDummyExecutor returns an offline executor generating count results.
func NewDummyExecutor(count int) *DummyExecutor {
	if count <= 0 {
		count = DefaultOfflineResultCount
	}
	return &DummyExecutor{
		count: count,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed reseeds the generator so the metacard timestamps and locations
// repeat across runs. Ids stay random.
func (e *DummyExecutor) Seed(seed int64) *DummyExecutor {
	e.mu.Lock()
	e.rng = rand.New(rand.NewSource(seed))
	e.mu.Unlock()
	return e
}

// Name implements Executor.
func (e *DummyExecutor) Name() string { return ModeOffline }

// Execute implements Executor.
func (e *DummyExecutor) Execute(ctx context.Context, req search.Request) (*graphql.QueryResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := e.now()

	source := search.DefaultSource
	if len(req.Srcs) > 0 {
		source = req.Srcs[0]
	}

	results := make([]graphql.QueryResponseResult, 0, e.count)
	e.mu.Lock()
	for i := 0; i < e.count; i++ {
		results = append(results, e.result(i, source, start))
	}
	e.mu.Unlock()

	sortResults(results, req.Sorts)

	return &graphql.QueryResponse{
		Results: results,
		Status: graphql.QueryResponseStatus{
			Count:      len(results),
			Hits:       len(results),
			Elapsed:    int(e.now().Sub(start).Milliseconds()),
			ID:         uuid.New().String(),
			Successful: true,
		},
	}, nil
}

// result builds one placeholder metacard. Caller holds e.mu.
func (e *DummyExecutor) result(i int, source string, now time.Time) graphql.QueryResponseResult {
	id := uuid.New().String()
	created := now.Add(-time.Duration(e.rng.Intn(90*24)) * time.Hour)
	modified := created.Add(time.Duration(e.rng.Intn(24*7)) * time.Hour)
	lon := e.rng.Float64()*360 - 180
	lat := e.rng.Float64()*180 - 90

	return graphql.QueryResponseResult{
		Metacard: map[string]any{
			"id":            id,
			"title":         fmt.Sprintf("Result %d", i+1),
			"description":   "Generated placeholder result",
			"created":       created.UTC().Format(time.RFC3339),
			"modified":      modified.UTC().Format(time.RFC3339),
			"metacard-tags": []string{"resource"},
			"source-id":     source,
			"location":      fmt.Sprintf("POINT(%.4f %.4f)", lon, lat),
		},
		Actions: []graphql.MetacardAction{{
			ID:          "catalog.data.metacard.view",
			Title:       "Export as JSON",
			DisplayName: "JSON",
			URL:         "/services/catalog/sources/" + source + "/" + id + "?transform=geojson",
		}},
	}
}

// sortResults applies the decoded sorts to the generated attributes, most
// significant first. Attributes the generator does not produce are ignored.
func sortResults(results []graphql.QueryResponseResult, sorts []search.Sort) {
	if len(sorts) == 0 {
		return
	}
	sort.SliceStable(results, func(i, j int) bool {
		for _, s := range sorts {
			a, aok := results[i].Metacard[s.Attribute].(string)
			b, bok := results[j].Metacard[s.Attribute].(string)
			if !aok || !bok || a == b {
				continue
			}
			desc := s.Direction == string(search.Desc) || s.Direction == string(search.Descending)
			if desc {
				return a > b
			}
			return a < b
		}
		return false
	})
}

// offlineAttributes describes the attributes the generator produces.
var offlineAttributes = []AttributeDefinition{
	{ID: "id", Type: "STRING"},
	{ID: "title", Type: "STRING"},
	{ID: "description", Type: "STRING"},
	{ID: "created", Type: "DATE"},
	{ID: "modified", Type: "DATE"},
	{ID: "metacard-tags", Type: "STRING", Multivalued: true},
	{ID: "source-id", Type: "STRING", IsInjected: true},
	{ID: "location", Type: "GEOMETRY"},
}

// AttributeDefinitions implements Executor. Offline the editor only gets the
// attributes the generator fills in.
func (e *DummyExecutor) AttributeDefinitions(ctx context.Context) ([]AttributeDefinition, error) {
	defs := make([]AttributeDefinition, len(offlineAttributes))
	copy(defs, offlineAttributes)
	return defs, nil
}
