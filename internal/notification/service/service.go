// Package service dispatches and serves transfer notifications.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	id "fowlgate/pkg/domain"
	dErrors "fowlgate/pkg/domain-errors"
	"fowlgate/pkg/platform/sentinel"
	"fowlgate/pkg/requestcontext"

	"fowlgate/internal/notification/models"
)

// Store is the persistence contract for notifications.
type Store interface {
	Create(ctx context.Context, n *models.TransferNotification) error
	ListForRecipient(ctx context.Context, recipientID id.UserID, now time.Time) ([]*models.TransferNotification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID, readAt time.Time) error
	FindByID(ctx context.Context, notificationID id.NotificationID) (*models.TransferNotification, error)
}

const defaultVerificationWindow = 7 * 24 * time.Hour

// Service builds notifications from the catalog and serves the read API.
type Service struct {
	store              Store
	logger             *slog.Logger
	verificationWindow time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVerificationWindow sets the expiry for verification-required
// notifications, matching the transfer verification timeout.
func WithVerificationWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.verificationWindow = d
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:              store,
		logger:             slog.Default(),
		verificationWindow: defaultVerificationWindow,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Dispatch persists a catalog notification for the recipient. It is
// best-effort: failures are logged and swallowed so a delivery problem
// never rolls back the transfer transition that caused it.
func (s *Service) Dispatch(ctx context.Context, recipientID, senderID id.UserID, transferID id.TransferID, fowlID id.FowlID, t models.TransferNotificationType) {
	now := requestcontext.Now(ctx)
	n := &models.TransferNotification{
		ID:             id.NotificationID(uuid.New()),
		RecipientID:    recipientID,
		SenderID:       senderID,
		TransferID:     transferID,
		FowlID:         fowlID,
		Type:           t,
		Title:          t.Title(),
		Message:        t.Message(),
		ActionRequired: t.ActionRequired(),
		CreatedAt:      now,
		ExpiresAt:      models.ExpiryFor(t, now, s.verificationWindow),
	}
	if err := s.store.Create(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "notification dispatch failed",
			"notification_type", t.String(),
			"recipient_id", recipientID.String(),
			"transfer_id", transferID.String(),
			"error", err,
		)
	}
}

// ListForRecipient returns the caller's unexpired notifications, newest
// first.
func (s *Service) ListForRecipient(ctx context.Context, callerID id.UserID) ([]*models.TransferNotification, error) {
	out, err := s.store.ListForRecipient(ctx, callerID, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list notifications")
	}
	return out, nil
}

// MarkRead acknowledges a notification. Only the recipient may mark
// their own notifications; marking twice keeps the first read time.
func (s *Service) MarkRead(ctx context.Context, callerID id.UserID, notificationID id.NotificationID) error {
	n, err := s.store.FindByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "find notification")
	}
	if n.RecipientID != callerID {
		return dErrors.New(dErrors.CodeForbidden, "notification belongs to another user")
	}
	if err := s.store.MarkRead(ctx, notificationID, requestcontext.Now(ctx)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("mark notification %s read", notificationID))
	}
	return nil
}
