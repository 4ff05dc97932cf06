package logging

import "context"

type scopeKey struct{}

// scope is the request metadata a context carries for log entries.
type scope struct {
	logger    *Logger
	requestID string
	formID    string
}

func scopeOf(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, update func(*scope)) context.Context {
	s := scopeOf(ctx)
	update(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return withScope(ctx, func(s *scope) { s.logger = logger })
}

// FromContext returns the logger stored by WithLogger, or the global one.
func FromContext(ctx context.Context) *Logger {
	if l := scopeOf(ctx).logger; l != nil {
		return l
	}
	return global
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withScope(ctx, func(s *scope) { s.requestID = requestID })
}

func RequestID(ctx context.Context) string {
	return scopeOf(ctx).requestID
}

// WithFormID tags the context with the search form being worked on.
func WithFormID(ctx context.Context, formID string) context.Context {
	return withScope(ctx, func(s *scope) { s.formID = formID })
}

func FormID(ctx context.Context) string {
	return scopeOf(ctx).formID
}

// WithContext adds request_id and form_id from ctx when present.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	s := scopeOf(ctx)
	var kv []interface{}
	if s.requestID != "" {
		kv = append(kv, "request_id", s.requestID)
	}
	if s.formID != "" {
		kv = append(kv, "form_id", s.formID)
	}
	return l.With(kv...)
}
