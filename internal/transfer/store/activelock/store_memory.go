// Package activelock guards the one-active-transfer-per-fowl rule at the
// service edge. The lock is advisory: the store's unique active index is
// the source of truth, the lock just fails duplicate initiations fast
// before any row is written.
package activelock

import (
	"context"
	"sync"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/platform/sentinel"
)

// InMemory implements the lock with a mutex-guarded map. Suitable for
// single-process deployments; distributed deployments use RedisLock.
type InMemory struct {
	mu    sync.Mutex
	locks map[id.FowlID]id.TransferID
}

func NewInMemory() *InMemory {
	return &InMemory{locks: make(map[id.FowlID]id.TransferID)}
}

// Acquire claims the fowl for the given transfer. Returns
// sentinel.ErrConflict when another transfer already holds it.
func (l *InMemory) Acquire(_ context.Context, fowlID id.FowlID, transferID id.TransferID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if held, ok := l.locks[fowlID]; ok && held != transferID {
		return sentinel.ErrConflict
	}
	l.locks[fowlID] = transferID
	return nil
}

// Release frees the fowl. Releasing an unheld lock is a no-op.
func (l *InMemory) Release(_ context.Context, fowlID id.FowlID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, fowlID)
	return nil
}
