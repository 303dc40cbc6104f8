// Package memory provides the in-memory audit outbox used by unit tests and
// single-process deployments.
package memory

import (
	"context"
	"sync"
	"time"

	audit "fowlgate/pkg/platform/audit"
)

// InMemoryStore keeps audit events in an append-only slice.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.StoredEvent
	seq    int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.events = append(s.events, audit.StoredEvent{Seq: s.seq, Event: event})
	return nil
}

func (s *InMemoryStore) Unpublished(_ context.Context, limit int) ([]audit.StoredEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.StoredEvent, 0, limit)
	for _, e := range s.events {
		if e.PublishedAt != nil {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, seqs []int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	marked := make(map[int64]bool, len(seqs))
	for _, seq := range seqs {
		marked[seq] = true
	}
	for i := range s.events {
		if marked[s.events[i].Seq] {
			t := at
			s.events[i].PublishedAt = &t
		}
	}
	return nil
}

// All returns every stored event, oldest first. Test helper.
func (s *InMemoryStore) All() []audit.StoredEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.StoredEvent, len(s.events))
	copy(out, s.events)
	return out
}
