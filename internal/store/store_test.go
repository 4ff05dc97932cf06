package store

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/intrigue/searchforms/internal/config"
	"github.com/intrigue/searchforms/internal/forms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/client/pkg/v3/types"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/server/v3/embed"
)

// setupTestEtcd starts a single-member etcd on random ports and returns its
// client endpoint.
func setupTestEtcd(t *testing.T) []string {
	t.Helper()

	cfg := embed.NewConfig()
	cfg.Dir = t.TempDir()
	cfg.ListenClientUrls = types.MustNewURLs([]string{"http://127.0.0.1:0"})
	cfg.ListenPeerUrls = types.MustNewURLs([]string{"http://127.0.0.1:0"})
	cfg.LogLevel = "error"
	cfg.Logger = "zap"

	e, err := embed.StartEtcd(cfg)
	require.NoError(t, err, "start embedded etcd")
	t.Cleanup(e.Close)

	select {
	case <-e.Server.ReadyNotify():
	case <-time.After(5 * time.Second):
		t.Fatal("Etcd server took too long to start")
	}
	return []string{e.Clients[0].Addr().String()}
}

func sampleForm(id string) forms.Form {
	f := forms.New()
	f.ID = id
	f.Title = "Form " + id
	f.Sources = []string{"local"}
	f.Sorts = []string{"modified,desc"}
	f.Metadata = map[string]string{"team": "geo"}
	f.Created = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f.Modified = f.Created
	return f
}

func ids(list []forms.Form) []string {
	out := make([]string, 0, len(list))
	for _, f := range list {
		out = append(out, f.ID)
	}
	sort.Strings(out)
	return out
}

// runStoreContract exercises the behaviour every FormStore shares.
func runStoreContract(t *testing.T, s FormStore) {
	ctx := context.Background()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	a := sampleForm("a")
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, sampleForm("b")))
	assert.ErrorIs(t, s.Create(ctx, a), ErrExists)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, a.Title, got.Title)
	assert.Equal(t, a.Sources, got.Sources)
	assert.Equal(t, a.Metadata, got.Metadata)
	assert.True(t, a.Modified.Equal(got.Modified))
	assert.JSONEq(t, string(a.FilterTree), string(got.FilterTree))

	// Returned forms are copies.
	got.Sources[0] = "mutated"
	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "local", again.Sources[0])

	a.Title = "Renamed"
	require.NoError(t, s.Save(ctx, a))
	got, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	assert.ErrorIs(t, s.Save(ctx, sampleForm("ghost")), ErrNotFound)

	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(list))

	require.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "a"), ErrNotFound)
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(list))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	runStoreContract(t, s)
}

func TestEtcdStore(t *testing.T) {
	endpoints := setupTestEtcd(t)

	for _, compress := range []bool{true, false} {
		compress := compress
		name := "plain"
		if compress {
			name = "snappy"
		}
		t.Run(name, func(t *testing.T) {
			s, err := NewEtcdStore(
				config.EtcdConfig{Endpoints: endpoints, DialTimeout: 5 * time.Second},
				config.StoreConfig{Type: "etcd", KeyPrefix: "/test/" + name, CacheTTL: time.Minute, Compress: compress},
			)
			require.NoError(t, err)
			defer func() { _ = s.Close() }()
			runStoreContract(t, s)
		})
	}
}

func TestEtcdStore_ReadsOtherEncoding(t *testing.T) {
	endpoints := setupTestEtcd(t)
	ctx := context.Background()

	client, err := clientv3.New(clientv3.Config{Endpoints: endpoints, DialTimeout: 5 * time.Second})
	require.NoError(t, err)

	writer := NewEtcdStoreWithClient(client, config.StoreConfig{KeyPrefix: "/mixed", Compress: true})
	require.NoError(t, writer.Create(ctx, sampleForm("x")))

	reader, err := NewEtcdStore(
		config.EtcdConfig{Endpoints: endpoints, DialTimeout: 5 * time.Second},
		config.StoreConfig{KeyPrefix: "/mixed/", Compress: false},
	)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	got, err := reader.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "Form x", got.Title)

	// Garbage under the prefix is skipped by List.
	_, err = client.Put(ctx, "/mixed/junk", "\x07nope")
	require.NoError(t, err)
	list, err := reader.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids(list))

	require.NoError(t, writer.Close())
}

func TestCodec(t *testing.T) {
	f := sampleForm("c")
	for _, compress := range []bool{false, true} {
		c := codec{compress: compress}
		data, err := c.encode(f)
		require.NoError(t, err)

		// Any codec decodes any header.
		got, err := codec{compress: !compress}.decode(data)
		require.NoError(t, err)
		assert.Equal(t, f.Title, got.Title)
		assert.Equal(t, f.Sorts, got.Sorts)
	}

	_, err := codec{}.decode(nil)
	assert.Error(t, err)
	_, err = codec{}.decode([]byte{9, '{', '}'})
	assert.Error(t, err)
	_, err = codec{}.decode([]byte{encodingSnappy, 0xff, 0xff})
	assert.Error(t, err)
}

func TestFormCache(t *testing.T) {
	c := newFormCache(50 * time.Millisecond)

	f := sampleForm("cached")
	c.set(f)
	got, ok := c.get("cached")
	require.True(t, ok)
	assert.Equal(t, f.Title, got.Title)
	assert.Equal(t, 1, c.len())

	time.Sleep(80 * time.Millisecond)
	_, ok = c.get("cached")
	assert.False(t, ok, "expired entries are not served")

	c.set(f)
	c.delete("cached")
	_, ok = c.get("cached")
	assert.False(t, ok)

	disabled := newFormCache(0)
	disabled.set(f)
	_, ok = disabled.get("cached")
	assert.False(t, ok)
	assert.Equal(t, 0, disabled.len())
}

func TestFormCache_ReturnsCopies(t *testing.T) {
	c := newFormCache(time.Minute)

	f := sampleForm("cached")
	f.Sources = []string{"a"}
	c.set(f)
	f.Sources[0] = "changed"

	got, ok := c.get("cached")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, got.Sources)
}

func TestNew(t *testing.T) {
	s, err := New(config.StoreConfig{Type: "memory"}, config.EtcdConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = New(config.StoreConfig{Type: "sqlite"}, config.EtcdConfig{})
	assert.Error(t, err)
}
