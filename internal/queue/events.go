package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventKind names a form lifecycle change.
type EventKind string

const (
	FormCreated EventKind = "created"
	FormSaved   EventKind = "saved"
	FormDeleted EventKind = "deleted"
)

// Message is the user-facing notification text for the kind.
func (k EventKind) Message() string {
	switch k {
	case FormCreated:
		return "Search Form Created"
	case FormSaved:
		return "Search Form Saved"
	case FormDeleted:
		return "Search Form Deleted"
	default:
		return "Search Form " + string(k)
	}
}

// Event is published on the notification subject after a form changes.
type Event struct {
	Kind      EventKind `json:"kind"`
	Message   string    `json:"message"`
	FormID    string    `json:"formId"`
	Title     string    `json:"title,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	At        time.Time `json:"at"`
}

// NewEvent fills Message and At for kind.
func NewEvent(kind EventKind, formID, title string) Event {
	return Event{
		Kind:    kind,
		Message: kind.Message(),
		FormID:  formID,
		Title:   title,
		At:      time.Now().UTC(),
	}
}

// EncodeEvent keys the message by form id and copies the kind and request
// id into headers so consumers can route without decoding the body.
func EncodeEvent(ev Event) (Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s event: %w", ev.Kind, err)
	}
	msg := Message{
		Key:     ev.FormID,
		Headers: map[string]string{HeaderKind: string(ev.Kind)},
		Data:    data,
	}
	if ev.RequestID != "" {
		msg.Headers[HeaderRequestID] = ev.RequestID
	}
	return msg, nil
}

// DecodeEvent parses a message written by EncodeEvent. Kind and form id
// missing from the body are taken from the header and key.
func DecodeEvent(msg Message) (Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		return ev, fmt.Errorf("decode event: %w", err)
	}
	if ev.Kind == "" {
		ev.Kind = EventKind(msg.Header(HeaderKind))
	}
	if ev.Kind == "" {
		return ev, errors.New("decode event: no kind")
	}
	if ev.FormID == "" {
		ev.FormID = msg.Key
	}
	if ev.Message == "" {
		ev.Message = ev.Kind.Message()
	}
	return ev, nil
}

// Notifier publishes form events on one subject.
type Notifier struct {
	pub     Publisher
	subject string
}

func NewNotifier(pub Publisher, subject string) *Notifier {
	return &Notifier{pub: pub, subject: subject}
}

func (n *Notifier) Subject() string {
	return n.subject
}

func (n *Notifier) Notify(ctx context.Context, ev Event) error {
	msg, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	return n.pub.Publish(ctx, n.subject, msg)
}
