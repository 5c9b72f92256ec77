package session

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// EventType names a session event.
type EventType string

const (
	EventStart        EventType = "session_start"
	EventFrame        EventType = "frame"
	EventFatigueAlarm EventType = "fatigue_alarm"
	EventSevereForm   EventType = "severe_form"
	EventEnd          EventType = "session_end"
)

// Event is delivered to hooks. Result is set for frame, fatigue_alarm and
// severe_form events; Info for session_start and session_end.
type Event struct {
	Type      EventType
	SessionID string
	Result    *Result
	Info      *Info
}

// Hook observes session events. Hooks run synchronously in event order; a
// failing hook is logged and never fails the frame.
type Hook interface {
	Handle(ctx context.Context, e Event) error
}

// HookFunc adapts a function to a Hook.
type HookFunc func(ctx context.Context, e Event) error

func (f HookFunc) Handle(ctx context.Context, e Event) error {
	return f(ctx, e)
}

func (s *Session) emit(ctx context.Context, e Event) {
	emit(ctx, s.hooks, e)
}

func emit(ctx context.Context, hooks []Hook, e Event) {
	for _, h := range hooks {
		if err := h.Handle(ctx, e); err != nil {
			log.WithError(err).WithField("session", e.SessionID).
				Errorf("session hook failed on %s", e.Type)
		}
	}
}
