package store

import (
	"context"
	"sync"

	"github.com/intrigue/searchforms/internal/forms"
)

// MemoryStore keeps forms in a map. Contents are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	forms map[string]forms.Form
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{forms: make(map[string]forms.Form)}
}

func (s *MemoryStore) List(ctx context.Context) ([]forms.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]forms.Form, 0, len(s.forms))
	for _, f := range s.forms {
		out = append(out, f.Clone())
	}
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (forms.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.forms[id]
	if !ok {
		return forms.Form{}, ErrNotFound
	}
	return f.Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, form forms.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.forms[form.ID]; ok {
		return ErrExists
	}
	s.forms[form.ID] = form.Clone()
	return nil
}

func (s *MemoryStore) Save(ctx context.Context, form forms.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.forms[form.ID]; !ok {
		return ErrNotFound
	}
	s.forms[form.ID] = form.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.forms[id]; !ok {
		return ErrNotFound
	}
	delete(s.forms, id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
