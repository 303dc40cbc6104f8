// Package relay drains the audit outbox to an external sink.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	audit "fowlgate/pkg/platform/audit"
)

// Sink delivers a serialized audit event. The Kafka producer implements
// this; tests use a fake.
type Sink interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Relay periodically moves unpublished outbox rows to the sink, marking
// them published only after delivery succeeds. Delivery is at-least-once:
// a crash between Publish and MarkPublished redelivers on restart.
type Relay struct {
	store    audit.Store
	sink     Sink
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// Option configures the Relay.
type Option func(*Relay)

// WithInterval overrides the drain interval (default 5s).
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		r.interval = d
	}
}

// WithBatchSize overrides the drain batch size (default 100).
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		r.batch = n
	}
}

func New(store audit.Store, sink Sink, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		store:    store,
		sink:     sink,
		logger:   logger,
		interval: 5 * time.Second,
		batch:    100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drains the outbox until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.DrainOnce(ctx); err != nil {
				r.logger.WarnContext(ctx, "audit relay drain failed", "error", err)
			}
		}
	}
}

// DrainOnce publishes one batch of unpublished events.
func (r *Relay) DrainOnce(ctx context.Context) error {
	events, err := r.store.Unpublished(ctx, r.batch)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	published := make([]int64, 0, len(events))
	for _, stored := range events {
		payload, err := json.Marshal(wireEvent(stored))
		if err != nil {
			r.logger.ErrorContext(ctx, "audit event not serializable, skipping",
				"seq", stored.Seq, "error", err)
			continue
		}
		if err := r.sink.Publish(ctx, string(stored.Event.Category), payload); err != nil {
			// Stop the batch; unpublished rows are retried next tick.
			if markErr := r.store.MarkPublished(ctx, published, time.Now()); markErr != nil {
				return markErr
			}
			return err
		}
		published = append(published, stored.Seq)
	}
	return r.store.MarkPublished(ctx, published, time.Now())
}

type eventPayload struct {
	Seq        int64     `json:"seq"`
	Category   string    `json:"category"`
	OccurredAt time.Time `json:"occurred_at"`
	ActorID    string    `json:"actor_id"`
	TransferID string    `json:"transfer_id,omitempty"`
	FowlID     string    `json:"fowl_id,omitempty"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}

func wireEvent(stored audit.StoredEvent) eventPayload {
	e := stored.Event
	p := eventPayload{
		Seq:        stored.Seq,
		Category:   string(e.Category),
		OccurredAt: e.Timestamp,
		ActorID:    e.ActorID.String(),
		Action:     e.Action,
		Reason:     e.Reason,
		RequestID:  e.RequestID,
	}
	if !e.TransferID.IsNil() {
		p.TransferID = e.TransferID.String()
	}
	if !e.FowlID.IsNil() {
		p.FowlID = e.FowlID.String()
	}
	return p
}
