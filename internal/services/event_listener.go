package services

import (
	"fmt"

	"github.com/intrigue/searchforms/internal/logging"
	"github.com/intrigue/searchforms/internal/queue"
)

// EventListener logs form events read back from the notification subject.
type EventListener struct {
	logger  *logging.Logger
	sub     queue.Subscriber
	subject string
	onEvent func(queue.Event)
}

// NewEventListener creates a listener for subject. onEvent may be nil.
func NewEventListener(logger *logging.Logger, sub queue.Subscriber, subject string, onEvent func(queue.Event)) *EventListener {
	return &EventListener{
		logger:  logger,
		sub:     sub,
		subject: subject,
		onEvent: onEvent,
	}
}

// Start subscribes to the subject.
func (l *EventListener) Start() error {
	if err := l.sub.Subscribe(l.subject, l.handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", l.subject, err)
	}
	l.logger.Info("Listening for form events", "subject", l.subject)
	return nil
}

// Stop unsubscribes.
func (l *EventListener) Stop() error {
	return l.sub.Unsubscribe(l.subject)
}

// handle never returns an error for a malformed message; redelivering it
// would not help.
func (l *EventListener) handle(msg queue.Message) error {
	ev, err := queue.DecodeEvent(msg)
	if err != nil {
		l.logger.Warn("Dropping malformed form event",
			"subject", l.subject,
			"key", msg.Key,
			"error", err)
		return nil
	}

	l.logger.Info(ev.Message,
		"form_id", ev.FormID,
		"title", ev.Title,
		"request_id", ev.RequestID)
	if l.onEvent != nil {
		l.onEvent(ev)
	}
	return nil
}
