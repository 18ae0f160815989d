// Package audit emits domain events to a durable stream or, without one, to
// the structured log.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"refeera/pkg/platform/middleware/metadata"
	"refeera/pkg/requestcontext"
)

// Publisher accepts audit events. Emit must not block the request on a slow
// sink and never fails the caller's operation.
type Publisher interface {
	Emit(ctx context.Context, e Event)
}

// Enrich fills the event's request-scoped fields from ctx.
func Enrich(ctx context.Context, e Event) Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = requestcontext.Now(ctx)
	}
	if e.Category == "" {
		e.Category = CategoryOf(e.Action)
	}
	if e.RequestID == "" {
		e.RequestID = requestcontext.RequestID(ctx)
	}
	if e.ClientIP == "" {
		e.ClientIP = requestcontext.ClientIP(ctx)
	}
	if e.ActorID == "" {
		if p, ok := requestcontext.PrincipalFrom(ctx); ok {
			e.ActorID = p.ID
			e.ActorKind = string(p.Kind)
		}
	}
	if e.Browser == "" && e.OS == "" {
		d := metadata.DeviceFromContext(ctx)
		e.Browser, e.OS = d.Browser, d.OS
	}
	return e
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, e Event) {
	e = Enrich(ctx, e)
	attrs, _ := json.Marshal(e.Attrs)
	p.logger.InfoContext(ctx, "audit event",
		"action", e.Action,
		"category", e.Category,
		"actor_id", e.ActorID,
		"actor_kind", e.ActorKind,
		"subject_id", e.SubjectID,
		"client_ip", e.ClientIP,
		"attrs", string(attrs),
		"request_id", e.RequestID,
	)
}

// Discard drops every event. Useful in tests.
type Discard struct{}

func (Discard) Emit(context.Context, Event) {}
