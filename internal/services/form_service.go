package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/intrigue/searchforms/internal/forms"
	"github.com/intrigue/searchforms/internal/logging"
	"github.com/intrigue/searchforms/internal/metrics"
	"github.com/intrigue/searchforms/internal/queue"
	"github.com/intrigue/searchforms/internal/store"
	"github.com/intrigue/searchforms/internal/utils"
)

// EventNotifier publishes form lifecycle events.
type EventNotifier interface {
	Notify(ctx context.Context, ev queue.Event) error
}

// FormService manages saved search forms
type FormService struct {
	logger    *logging.Logger
	store     store.FormStore
	notifier  EventNotifier
	validator *forms.Validator
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewFormService creates a new FormService. notifier and m may be nil.
func NewFormService(
	logger *logging.Logger,
	formStore store.FormStore,
	notifier EventNotifier,
	validator *forms.Validator,
	m *metrics.Metrics,
) *FormService {
	return &FormService{
		logger:    logger,
		store:     formStore,
		notifier:  notifier,
		validator: validator,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Decode validates body against the form schema and decodes it.
func (s *FormService) Decode(body []byte) (forms.Form, error) {
	if s.validator != nil {
		if violations := s.validator.Validate(body); len(violations) > 0 {
			return forms.Form{}, NewServiceErrorWithDetails(CodeInvalidForm, "Invalid search form",
				map[string]interface{}{"violations": violations})
		}
	}

	var form forms.Form
	if err := json.Unmarshal(body, &form); err != nil {
		return forms.Form{}, NewServiceErrorWithDetails(CodeInvalidForm, "Invalid search form",
			map[string]interface{}{"error": err.Error()})
	}
	return form, nil
}

// List returns every form, most recently modified first.
func (s *FormService) List(ctx context.Context) ([]forms.Form, error) {
	list, err := s.store.List(ctx)
	s.metrics.ObserveFormOp("list", err)
	if err != nil {
		return nil, s.storeError(ctx, "list", "", err)
	}
	forms.SortByModified(list)
	return list, nil
}

// Get returns one form.
func (s *FormService) Get(ctx context.Context, id string) (forms.Form, error) {
	form, err := s.store.Get(ctx, id)
	s.metrics.ObserveFormOp("get", err)
	if err != nil {
		return forms.Form{}, s.storeError(ctx, "get", id, err)
	}
	return form, nil
}

// Create stores a new form under a fresh id. A form without a filter tree
// gets the default blank one.
func (s *FormService) Create(ctx context.Context, form forms.Form) (forms.Form, error) {
	now := s.now()
	form.ID = uuid.New().String()
	form.Created = now
	form.Modified = now
	if len(form.FilterTree) == 0 {
		form.FilterTree = forms.DefaultFilterTree()
	}

	err := s.store.Create(ctx, form)
	s.metrics.ObserveFormOp("create", err)
	if err != nil {
		return forms.Form{}, s.storeError(ctx, "create", form.ID, err)
	}

	s.logger.WithContext(ctx).Info("Search form created", "form_id", form.ID, "title", form.Title)
	s.notify(ctx, queue.FormCreated, form)
	return form, nil
}

// Save replaces the form with the given id. The creation time is kept and
// the modification time bumped.
func (s *FormService) Save(ctx context.Context, id string, form forms.Form) (forms.Form, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		s.metrics.ObserveFormOp("save", err)
		return forms.Form{}, s.storeError(ctx, "save", id, err)
	}

	form.ID = id
	form.Created = existing.Created
	form.Modified = s.now()
	if !form.Modified.After(existing.Modified) {
		form.Modified = existing.Modified.Add(time.Millisecond)
	}

	err = s.store.Save(ctx, form)
	s.metrics.ObserveFormOp("save", err)
	if err != nil {
		return forms.Form{}, s.storeError(ctx, "save", id, err)
	}

	s.logger.WithContext(ctx).Info("Search form saved", "form_id", id, "title", form.Title)
	s.notify(ctx, queue.FormSaved, form)
	return form, nil
}

// Delete removes the form with the given id.
func (s *FormService) Delete(ctx context.Context, id string) error {
	existing, err := s.store.Get(ctx, id)
	if err == nil {
		err = s.store.Delete(ctx, id)
	}
	s.metrics.ObserveFormOp("delete", err)
	if err != nil {
		return s.storeError(ctx, "delete", id, err)
	}

	s.logger.WithContext(ctx).Info("Search form deleted", "form_id", id)
	s.notify(ctx, queue.FormDeleted, existing)
	return nil
}

// notify publishes the event. The change is already stored, so a failed
// publish is logged and not returned.
func (s *FormService) notify(ctx context.Context, kind queue.EventKind, form forms.Form) {
	if s.notifier == nil {
		return
	}

	ev := queue.NewEvent(kind, form.ID, form.Title)
	ev.RequestID = logging.RequestID(ctx)

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), utils.EventPublishTimeout)
	defer cancel()

	err := s.notifier.Notify(pubCtx, ev)
	s.metrics.ObserveEvent(string(kind), err)
	if err != nil {
		s.logger.Warn("Failed to publish form event",
			"kind", kind,
			"form_id", form.ID,
			"error", err)
	}
}

func (s *FormService) storeError(ctx context.Context, op, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return NewServiceError(CodeFormNotFound, fmt.Sprintf("search form not found: %s", id))
	}
	s.logger.WithContext(ctx).Error("Form store operation failed",
		"operation", op,
		"form_id", id,
		"error", err)
	return NewServiceErrorWithDetails(CodeStoreFailed, fmt.Sprintf("failed to %s search form", op),
		map[string]interface{}{"error": err.Error()})
}
