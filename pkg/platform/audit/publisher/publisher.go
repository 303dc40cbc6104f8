// Package publisher emits audit events into the outbox.
//
// Compliance events use fail-closed semantics: the caller blocks until the
// outbox write succeeds, and a write failure MUST fail the calling
// operation. Operations events are best-effort: failures are logged and
// swallowed so routine activity never blocks the protocol.
package publisher

import (
	"context"
	"fmt"
	"log/slog"

	audit "fowlgate/pkg/platform/audit"
	"fowlgate/pkg/requestcontext"
)

// Publisher writes audit events to the outbox store.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// New creates a publisher over the given outbox store.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit writes an event according to its category: compliance events are
// fail-closed, operations events best-effort.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return fmt.Errorf("audit event requires Action")
	}
	if event.Category == "" {
		event.Category = audit.CategoryOf(audit.AuditEvent(event.Action))
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	err := p.store.Append(ctx, event)
	if err == nil {
		return nil
	}

	if event.Category == audit.CategoryCompliance {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: compliance audit failed",
				"action", event.Action,
				"actor_id", event.ActorID,
				"transfer_id", event.TransferID,
				"error", err,
			)
		}
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}

	if p.logger != nil {
		p.logger.WarnContext(ctx, "audit append failed, dropping operations event",
			"action", event.Action,
			"error", err,
		)
	}
	return nil
}
