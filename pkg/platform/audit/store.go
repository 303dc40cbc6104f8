package audit

import (
	"context"
	"time"
)

// StoredEvent is an outbox row: the event plus delivery bookkeeping.
type StoredEvent struct {
	Seq         int64
	Event       Event
	PublishedAt *time.Time
}

// Store is the audit outbox. Append is the write path used by publishers;
// the relay drains unpublished rows to the external sink.
type Store interface {
	Append(ctx context.Context, event Event) error
	Unpublished(ctx context.Context, limit int) ([]StoredEvent, error)
	MarkPublished(ctx context.Context, seqs []int64, at time.Time) error
}
