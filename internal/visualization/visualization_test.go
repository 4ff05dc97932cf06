package visualization

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/intrigue/searchforms/internal/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/singleflight"
)

type staticRenderer struct{ out any }

func (s staticRenderer) Render([]graphql.QueryResponseResult, Options) (any, error) {
	return s.out, nil
}

func TestLoader_PendingToReady(t *testing.T) {
	release := make(chan struct{})
	l := NewLoader("slow", func(ctx context.Context) (Renderer, error) {
		<-release
		return staticRenderer{out: "ok"}, nil
	}, 0, nil)

	assert.Equal(t, StatePending, l.State())
	l.Start(context.Background())
	assert.Equal(t, StatePending, l.State())

	_, err := l.Renderer()
	assert.ErrorIs(t, err, ErrNotReady)

	close(release)
	state, err := l.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateReady, state)

	r, err := l.Renderer()
	require.NoError(t, err)
	out, _ := r.Render(nil, Options{})
	assert.Equal(t, "ok", out)
}

func TestLoader_Failed(t *testing.T) {
	boom := errors.New("boom")
	l := NewLoader("bad", func(ctx context.Context) (Renderer, error) {
		return nil, boom
	}, 0, nil)

	state, err := l.Wait(context.Background())
	assert.Equal(t, StateFailed, state)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, l.Err(), boom)

	_, err = l.Renderer()
	assert.ErrorIs(t, err, boom)

	// Starting again does not leave the failed state.
	l.Start(context.Background())
	assert.Equal(t, StateFailed, l.State())
}

func TestLoader_NilRendererAndPanic(t *testing.T) {
	l := NewLoader("nil", func(ctx context.Context) (Renderer, error) { return nil, nil }, 0, nil)
	state, err := l.Wait(context.Background())
	assert.Equal(t, StateFailed, state)
	assert.Error(t, err)

	p := NewLoader("panic", func(ctx context.Context) (Renderer, error) { panic("kaboom") }, 0, nil)
	state, err = p.Wait(context.Background())
	assert.Equal(t, StateFailed, state)
	assert.ErrorContains(t, err, "kaboom")
}

func TestLoader_Timeout(t *testing.T) {
	l := NewLoader("hang", func(ctx context.Context) (Renderer, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, 20*time.Millisecond, nil)

	state, err := l.Wait(context.Background())
	assert.Equal(t, StateFailed, state)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoader_LoadsOnceForConcurrentStarters(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	l := NewLoader("shared", func(ctx context.Context) (Renderer, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return staticRenderer{}, nil
	}, 0, &singleflight.Group{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Start(context.Background())
		}()
	}
	wg.Wait()
	close(release)

	state, err := l.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateReady, state)

	for i := 0; i < 5; i++ {
		l.Start(context.Background())
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLoader_WaitContextEnds(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	l := NewLoader("never", func(ctx context.Context) (Renderer, error) {
		<-release
		return staticRenderer{}, nil
	}, 0, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	state, err := l.Wait(ctx)
	assert.Equal(t, StatePending, state)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoader_StartSurvivesCancelledContext(t *testing.T) {
	l := NewLoader("detached", func(ctx context.Context) (Renderer, error) {
		time.Sleep(10 * time.Millisecond)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return staticRenderer{}, nil
	}, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)
	cancel()

	state, err := l.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateReady, state)
}

func TestLoader_Retry(t *testing.T) {
	var calls int32
	l := NewLoader("flaky", func(ctx context.Context) (Renderer, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("first attempt fails")
		}
		return staticRenderer{}, nil
	}, 0, nil)

	state, _ := l.Wait(context.Background())
	require.Equal(t, StateFailed, state)

	l.Retry(context.Background())
	state, err := l.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateReady, state)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// Retry on a ready loader changes nothing.
	l.Retry(context.Background())
	assert.Equal(t, StateReady, l.State())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "failed", StateFailed.String())
	text, err := StateReady.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ready", string(text))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(time.Second)
	require.NoError(t, RegisterBuiltins(r))
	assert.Error(t, r.Register(Table, "Again", nil))

	block := make(chan struct{})
	require.NoError(t, r.Register("slow", "Slow", func(ctx context.Context) (Renderer, error) {
		<-block
		return staticRenderer{out: 1}, nil
	}))
	require.NoError(t, r.Register("broken", "Broken", func(ctx context.Context) (Renderer, error) {
		return nil, errors.New("missing asset")
	}))

	list := r.List()
	require.Len(t, list, 5)
	assert.Equal(t, []string{Table, Histogram, Map, "slow", "broken"},
		[]string{list[0].ID, list[1].ID, list[2].ID, list[3].ID, list[4].ID})
	for _, info := range list {
		assert.Equal(t, StatePending, info.State)
	}

	resp := &graphql.QueryResponse{Results: []graphql.QueryResponseResult{
		{Metacard: map[string]any{"id": "1", "title": "A"}},
	}}
	ctx := context.Background()

	view, err := r.Render(ctx, Table, resp, Options{Wait: time.Second})
	require.NoError(t, err)
	assert.Equal(t, StateReady, view.State)
	assert.Equal(t, TableView{Columns: []string{"id", "title"}, Rows: [][]any{{"1", "A"}}}, view.Data)

	view, err = r.Render(ctx, "slow", resp, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatePending, view.State)
	assert.Equal(t, "Loading visualization", view.Message)
	assert.Nil(t, view.Data)

	close(block)
	view, err = r.Render(ctx, "slow", resp, Options{Wait: time.Second})
	require.NoError(t, err)
	assert.Equal(t, StateReady, view.State)
	assert.Equal(t, 1, view.Data)

	view, err = r.Render(ctx, "broken", resp, Options{Wait: time.Second})
	require.NoError(t, err)
	assert.Equal(t, StateFailed, view.State)
	assert.Contains(t, view.Message, "missing asset")

	info, err := r.Describe("broken")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, info.State)
	assert.Equal(t, "missing asset", info.Error)

	_, err = r.Render(ctx, "nope", resp, Options{})
	assert.ErrorIs(t, err, ErrUnknown)
	_, err = r.Describe("nope")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestRegistry_Preload(t *testing.T) {
	r := NewRegistry(time.Second)
	require.NoError(t, RegisterBuiltins(r))
	r.Preload(context.Background())

	for _, id := range []string{Table, Histogram, Map} {
		l, err := r.Loader(id)
		require.NoError(t, err)
		state, err := l.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StateReady, state)
	}
}
