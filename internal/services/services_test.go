package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/intrigue/searchforms/internal/executor"
	"github.com/intrigue/searchforms/internal/forms"
	"github.com/intrigue/searchforms/internal/graphql"
	"github.com/intrigue/searchforms/internal/logging"
	"github.com/intrigue/searchforms/internal/metrics"
	"github.com/intrigue/searchforms/internal/queue"
	"github.com/intrigue/searchforms/internal/search"
	"github.com/intrigue/searchforms/internal/store"
	"github.com/intrigue/searchforms/internal/visualization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, ev queue.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) kinds() []queue.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]queue.EventKind, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Kind)
	}
	return out
}

type failingStore struct {
	store.FormStore
}

func (failingStore) List(ctx context.Context) ([]forms.Form, error) {
	return nil, errors.New("etcd unavailable")
}

type fakeExecutor struct {
	mu   sync.Mutex
	last search.Request
	resp *graphql.QueryResponse
	err  error
}

func (e *fakeExecutor) Name() string { return "fake" }

func (e *fakeExecutor) Execute(ctx context.Context, req search.Request) (*graphql.QueryResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = req
	if e.err != nil {
		return nil, e.err
	}
	return e.resp, nil
}

func (e *fakeExecutor) AttributeDefinitions(ctx context.Context) ([]executor.AttributeDefinition, error) {
	if e.err != nil {
		return nil, e.err
	}
	return nil, nil
}

func newFormService(t *testing.T, notifier EventNotifier) *FormService {
	t.Helper()
	validator, err := forms.NewValidator()
	require.NoError(t, err)
	return NewFormService(logging.NewNop(), store.NewMemoryStore(), notifier, validator, metrics.New())
}

func TestFormService_Decode(t *testing.T) {
	svc := newFormService(t, nil)

	form, err := svc.Decode([]byte(`{"title":"Ships","sources":["a"],"filterTree":{"type":"AND","filters":[]}}`))
	require.NoError(t, err)
	assert.Equal(t, "Ships", form.Title)
	assert.JSONEq(t, `{"type":"AND","filters":[]}`, string(form.FilterTree))

	_, err = svc.Decode([]byte(`{"title":42}`))
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidForm, svcErr.Code)
	assert.NotEmpty(t, svcErr.Details["violations"])

	_, err = svc.Decode([]byte(`{not json`))
	svcErr, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidForm, svcErr.Code)
}

func TestFormService_Lifecycle(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newFormService(t, notifier)
	ctx := logging.WithRequestID(context.Background(), "req-1")

	created, err := svc.Create(ctx, forms.Form{Title: "first"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Created.IsZero())
	assert.Equal(t, created.Created, created.Modified)
	assert.JSONEq(t, string(forms.DefaultFilterTree()), string(created.FilterTree))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)

	saved, err := svc.Save(ctx, created.ID, forms.Form{Title: "renamed", ID: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, saved.ID)
	assert.Equal(t, "renamed", saved.Title)
	assert.Equal(t, created.Created, saved.Created)
	assert.True(t, saved.Modified.After(created.Modified))

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeFormNotFound, svcErr.Code)

	assert.Equal(t, []queue.EventKind{queue.FormCreated, queue.FormSaved, queue.FormDeleted}, notifier.kinds())
	for _, ev := range notifier.events {
		assert.Equal(t, created.ID, ev.FormID)
		assert.Equal(t, "req-1", ev.RequestID)
	}
	assert.Equal(t, "Search Form Deleted", notifier.events[2].Message)
}

func TestFormService_KeepsFilterTree(t *testing.T) {
	svc := newFormService(t, nil)
	tree := json.RawMessage(`{"type":"OR","filters":[{"type":"=","property":"title","value":"x"}]}`)

	created, err := svc.Create(context.Background(), forms.Form{FilterTree: tree})
	require.NoError(t, err)
	assert.JSONEq(t, string(tree), string(created.FilterTree))
}

func TestFormService_ListSortedByModified(t *testing.T) {
	svc := newFormService(t, nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	a, err := svc.Create(context.Background(), forms.Form{Title: "a"})
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), forms.Form{Title: "b"})
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), a.ID, forms.Form{Title: "a2"})
	require.NoError(t, err)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
}

func TestFormService_NotFound(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newFormService(t, notifier)

	for name, err := range map[string]error{
		"save":   func() error { _, err := svc.Save(context.Background(), "missing", forms.Form{}); return err }(),
		"delete": svc.Delete(context.Background(), "missing"),
	} {
		svcErr, ok := AsServiceError(err)
		require.True(t, ok, name)
		assert.Equal(t, CodeFormNotFound, svcErr.Code, name)
	}
	assert.Empty(t, notifier.kinds())
}

func TestFormService_StoreFailure(t *testing.T) {
	svc := NewFormService(logging.NewNop(), failingStore{}, nil, nil, nil)

	_, err := svc.List(context.Background())
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeStoreFailed, svcErr.Code)
	assert.Equal(t, "etcd unavailable", svcErr.Details["error"])
}

func TestFormService_NotifyFailureIsNotFatal(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("broker down")}
	svc := newFormService(t, notifier)

	created, err := svc.Create(context.Background(), forms.Form{Title: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Len(t, notifier.kinds(), 1)
}

func newSearchService(t *testing.T, exec executor.Executor) (*SearchService, *FormService) {
	t.Helper()
	registry := visualization.NewRegistry(time.Second)
	require.NoError(t, visualization.RegisterBuiltins(registry))
	formSvc := newFormService(t, nil)
	return NewSearchService(logging.NewNop(), formSvc, exec, registry, time.Second, metrics.New()), formSvc
}

func sampleResponse() *graphql.QueryResponse {
	return &graphql.QueryResponse{
		Results: []graphql.QueryResponseResult{
			{Metacard: map[string]any{"id": "1", "title": "one", "source-id": "a"}},
			{Metacard: map[string]any{"id": "2", "title": "two", "source-id": "a"}},
		},
		Status: graphql.QueryResponseStatus{Count: 2, Hits: 2, Successful: true},
	}
}

func TestSearchService_Search(t *testing.T) {
	exec := &fakeExecutor{resp: sampleResponse()}
	svc, _ := newSearchService(t, exec)

	result, err := svc.Search(context.Background(), forms.Form{
		Sorts:       []string{"modified,desc"},
		DetailLevel: search.AllFields,
	}, SearchOptions{})
	require.NoError(t, err)

	assert.Equal(t, "fake", result.Executor)
	assert.Equal(t, []string{search.DefaultSource}, exec.last.Srcs)
	assert.Equal(t, []search.Sort{{Attribute: "modified", Direction: "desc"}}, exec.last.Sorts)
	assert.Empty(t, exec.last.DetailLevel)
	assert.Len(t, result.Response.Results, 2)
	assert.Nil(t, result.Visualization)
}

func TestSearchService_SearchWithVisualization(t *testing.T) {
	svc, _ := newSearchService(t, &fakeExecutor{resp: sampleResponse()})

	result, err := svc.Search(context.Background(), forms.Form{}, SearchOptions{
		Visualization: visualization.Histogram,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Visualization)
	assert.Equal(t, visualization.StateReady, result.Visualization.State)

	hist, ok := result.Visualization.Data.(visualization.HistogramView)
	require.True(t, ok)
	assert.Equal(t, visualization.DefaultHistogramAttribute, hist.Attribute)
}

func TestSearchService_UnknownVisualization(t *testing.T) {
	exec := &fakeExecutor{resp: sampleResponse()}
	svc, _ := newSearchService(t, exec)

	_, err := svc.Search(context.Background(), forms.Form{}, SearchOptions{Visualization: "pie"})
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeVisualizationNotFound, svcErr.Code)
	assert.Nil(t, exec.last.Srcs, "search must not run for an unknown visualization")
}

func TestSearchService_ExecutorFailure(t *testing.T) {
	svc, _ := newSearchService(t, &fakeExecutor{err: errors.New("catalog timeout")})

	_, err := svc.Search(context.Background(), forms.Form{}, SearchOptions{})
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeSearchFailed, svcErr.Code)
	assert.Equal(t, "catalog timeout", svcErr.Details["error"])

	_, err = svc.AttributeDefinitions(context.Background())
	svcErr, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeSearchFailed, svcErr.Code)
}

func TestSearchService_SearchByID(t *testing.T) {
	exec := &fakeExecutor{resp: sampleResponse()}
	svc, formSvc := newSearchService(t, exec)

	created, err := formSvc.Create(context.Background(), forms.Form{Sources: []string{"alpha", "beta"}})
	require.NoError(t, err)

	_, err = svc.SearchByID(context.Background(), created.ID, SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, exec.last.Srcs)
	assert.JSONEq(t, string(created.FilterTree), string(exec.last.FilterTree))

	_, err = svc.SearchByID(context.Background(), "missing", SearchOptions{})
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeFormNotFound, svcErr.Code)
}

func TestSearchService_AttributeDefinitionsNeverNil(t *testing.T) {
	svc, _ := newSearchService(t, &fakeExecutor{})

	defs, err := svc.AttributeDefinitions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, defs)
	assert.Empty(t, defs)
}

func TestSearchService_Visualizations(t *testing.T) {
	svc, _ := newSearchService(t, &fakeExecutor{})

	infos := svc.Visualizations()
	require.Len(t, infos, 3)
	assert.Equal(t, visualization.Table, infos[0].ID)

	info, err := svc.LoadVisualization(context.Background(), visualization.Map)
	require.NoError(t, err)
	assert.Equal(t, visualization.StateReady, info.State)

	_, err = svc.LoadVisualization(context.Background(), "pie")
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeVisualizationNotFound, svcErr.Code)
}

func TestSearchService_Translate(t *testing.T) {
	svc, _ := newSearchService(t, &fakeExecutor{})

	req := svc.Translate(forms.Form{Sorts: []string{"x,y,desc"}, DetailLevel: "Basic"})
	assert.Equal(t, []search.Sort{{Attribute: "x,y", Direction: "desc"}}, req.Sorts)
	assert.Equal(t, "Basic", req.DetailLevel)
	assert.Equal(t, "fake", svc.ExecutorName())
}
