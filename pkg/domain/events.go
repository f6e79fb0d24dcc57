package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCommand      EventType = "command"
	EventTransition   EventType = "transition"
	EventNotification EventType = "notification"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// CommandEvent is fired once per command after it has been applied.
type CommandEvent struct {
	EventBase
	Kind  CommandKind `json:"kind"`
	Label string      `json:"label,omitempty"`
	Err   error       `json:"-"`
}

// TransitionEvent is fired when a command changes the hold state.
type TransitionEvent struct {
	EventBase
	From HoldState `json:"from"`
	To   HoldState `json:"to"`
}

// NotificationEvent is fired after a notification has been handed to the transport.
type NotificationEvent struct {
	EventBase
	Notification Notification `json:"notification"`
	Topic        string       `json:"topic"`
	Text         string       `json:"text"`
	Err          error        `json:"-"`
}

// LifecycleHooks defines callbacks for node observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnCommand      func(context.Context, *CommandEvent)
	OnTransition   func(context.Context, *TransitionEvent)
	OnNotification func(context.Context, *NotificationEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnCommand:      chain(h.OnCommand, other.OnCommand),
		OnTransition:   chain(h.OnTransition, other.OnTransition),
		OnNotification: chain(h.OnNotification, other.OnNotification),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
