package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/intrigue/searchforms/internal/config"
	"github.com/intrigue/searchforms/internal/forms"
	"github.com/intrigue/searchforms/internal/logging"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdStore keeps one key per form under a prefix.
type EtcdStore struct {
	client *clientv3.Client
	prefix string
	codec  codec
	cache  *formCache
}

// NewEtcdStore connects to etcd and returns a form store rooted at
// cfg.KeyPrefix.
func NewEtcdStore(etcd config.EtcdConfig, cfg config.StoreConfig) (*EtcdStore, error) {
	dialTimeout := etcd.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   etcd.Endpoints,
		DialTimeout: dialTimeout,
		Username:    etcd.Username,
		Password:    etcd.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return NewEtcdStoreWithClient(client, cfg), nil
}

// NewEtcdStoreWithClient wraps an existing client. The store owns it
// afterwards and closes it in Close.
func NewEtcdStoreWithClient(client *clientv3.Client, cfg config.StoreConfig) *EtcdStore {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "/searchforms/forms/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &EtcdStore{
		client: client,
		prefix: prefix,
		codec:  codec{compress: cfg.Compress},
		cache:  newFormCache(cfg.CacheTTL),
	}
}

func (s *EtcdStore) key(id string) string {
	return s.prefix + id
}

func (s *EtcdStore) List(ctx context.Context) ([]forms.Form, error) {
	resp, err := s.client.Get(ctx, s.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list forms from etcd: %w", err)
	}

	out := make([]forms.Form, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		f, err := s.codec.decode(kv.Value)
		if err != nil {
			logging.Warn("Skipping undecodable form", "key", string(kv.Key), "error", err)
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *EtcdStore) Get(ctx context.Context, id string) (forms.Form, error) {
	if f, ok := s.cache.get(id); ok {
		return f, nil
	}

	resp, err := s.client.Get(ctx, s.key(id))
	if err != nil {
		return forms.Form{}, fmt.Errorf("failed to get form from etcd: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return forms.Form{}, ErrNotFound
	}

	f, err := s.codec.decode(resp.Kvs[0].Value)
	if err != nil {
		return forms.Form{}, err
	}
	s.cache.set(f)
	return f, nil
}

// Create writes the form only if its key does not exist yet.
func (s *EtcdStore) Create(ctx context.Context, form forms.Form) error {
	return s.put(ctx, form, clientv3.Compare(clientv3.CreateRevision(s.key(form.ID)), "=", 0), ErrExists)
}

// Save replaces an existing form.
func (s *EtcdStore) Save(ctx context.Context, form forms.Form) error {
	return s.put(ctx, form, clientv3.Compare(clientv3.CreateRevision(s.key(form.ID)), ">", 0), ErrNotFound)
}

func (s *EtcdStore) put(ctx context.Context, form forms.Form, cond clientv3.Cmp, failed error) error {
	value, err := s.codec.encode(form)
	if err != nil {
		return err
	}

	resp, err := s.client.Txn(ctx).
		If(cond).
		Then(clientv3.OpPut(s.key(form.ID), string(value))).
		Commit()
	if err != nil {
		return fmt.Errorf("failed to store form in etcd: %w", err)
	}
	if !resp.Succeeded {
		return failed
	}

	s.cache.set(form)
	return nil
}

func (s *EtcdStore) Delete(ctx context.Context, id string) error {
	resp, err := s.client.Delete(ctx, s.key(id))
	if err != nil {
		return fmt.Errorf("failed to delete form from etcd: %w", err)
	}

	s.cache.delete(id)
	if resp.Deleted == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *EtcdStore) Close() error {
	return s.client.Close()
}
