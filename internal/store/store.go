// Package store persists saved search forms.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/intrigue/searchforms/internal/config"
	"github.com/intrigue/searchforms/internal/forms"
)

var (
	// ErrNotFound is returned when no form has the requested id.
	ErrNotFound = errors.New("form not found")
	// ErrExists is returned by Create when the id is already taken.
	ErrExists = errors.New("form already exists")
)

// FormStore is the persistence contract for search forms. Implementations
// hand out copies; callers may mutate what they receive.
type FormStore interface {
	List(ctx context.Context) ([]forms.Form, error)
	Get(ctx context.Context, id string) (forms.Form, error)
	Create(ctx context.Context, form forms.Form) error
	Save(ctx context.Context, form forms.Form) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// New creates the store selected by cfg.Type.
func New(cfg config.StoreConfig, etcd config.EtcdConfig) (FormStore, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "etcd":
		return NewEtcdStore(etcd, cfg)
	default:
		return nil, fmt.Errorf("unsupported store type: %s (supported: memory, etcd)", cfg.Type)
	}
}
