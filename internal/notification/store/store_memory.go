// Package store persists transfer notifications.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/platform/sentinel"

	"fowlgate/internal/notification/models"
)

// InMemory implements the notification store with a mutex-guarded map.
type InMemory struct {
	mu            sync.RWMutex
	notifications map[id.NotificationID]*models.TransferNotification
}

func NewInMemory() *InMemory {
	return &InMemory{notifications: make(map[id.NotificationID]*models.TransferNotification)}
}

func (s *InMemory) Create(_ context.Context, n *models.TransferNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[n.ID]; ok {
		return sentinel.ErrDuplicate
	}
	s.notifications[n.ID] = cloneNotification(n)
	return nil
}

// ListForRecipient returns the recipient's unexpired notifications,
// newest first.
func (s *InMemory) ListForRecipient(_ context.Context, recipientID id.UserID, now time.Time) ([]*models.TransferNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TransferNotification
	for _, stored := range s.notifications {
		if stored.RecipientID != recipientID || stored.IsExpired(now) {
			continue
		}
		out = append(out, cloneNotification(stored))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MarkRead stamps the read time. Marking an already-read notification is
// a no-op; the first read time stands.
func (s *InMemory) MarkRead(_ context.Context, notificationID id.NotificationID, readAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.notifications[notificationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.ReadAt == nil {
		stored.ReadAt = &readAt
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, notificationID id.NotificationID) (*models.TransferNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.notifications[notificationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneNotification(stored), nil
}

func cloneNotification(n *models.TransferNotification) *models.TransferNotification {
	c := *n
	if n.ExpiresAt != nil {
		v := *n.ExpiresAt
		c.ExpiresAt = &v
	}
	if n.ReadAt != nil {
		v := *n.ReadAt
		c.ReadAt = &v
	}
	return &c
}
