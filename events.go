package authkit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates lifecycle transitions reported to listeners.
type EventType string

const (
	EventRegistered      EventType = "auth.registered"
	EventConfirmed       EventType = "auth.confirmed"
	EventWelcomed        EventType = "auth.welcomed"
	EventLoggedIn        EventType = "auth.logged_in"
	EventLoggedOut       EventType = "auth.logged_out"
	EventForgotPassword  EventType = "auth.forgot_password"
	EventResetPassword   EventType = "auth.reset_password"
	EventChangedPassword EventType = "auth.changed_password"
	EventChangedUsername EventType = "auth.changed_username"
	EventChangedEmail    EventType = "auth.changed_email"
)

// Event carries the affected identity for a successful lifecycle transition.
type Event struct {
	ID         uuid.UUID
	Type       EventType
	User       *User
	Metadata   map[string]any
	OccurredAt time.Time
}

// Listener consumes lifecycle events. Delivery is synchronous and
// fire-and-forget: returned errors (and panics) are logged, never propagated,
// so logging/metrics collaborators cannot break a flow.
type Listener func(ctx context.Context, event Event) error

// emit invokes every registered listener after a successful transition.
func (e *LifecycleEngine) emit(ctx context.Context, eventType EventType, user *User, metadata map[string]any) {
	event := Event{
		ID:         uuid.New(),
		Type:       eventType,
		User:       user,
		Metadata:   metadata,
		OccurredAt: e.now(),
	}

	for _, listener := range e.listeners {
		if listener == nil {
			continue
		}
		e.dispatch(ctx, listener, event)
	}
}

func (e *LifecycleEngine) dispatch(ctx context.Context, listener Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event listener panic: %v (event=%s)", r, event.Type)
		}
	}()

	if err := listener(ctx, event); err != nil {
		e.logger.Warn("event listener error: %v (event=%s)", err, event.Type)
	}
}
