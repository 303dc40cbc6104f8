//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/platform/sentinel"
	"fowlgate/pkg/testutil/containers"

	"fowlgate/internal/notification/models"
	"fowlgate/internal/notification/store"
)

type PostgresNotificationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresNotificationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresNotificationSuite))
}

func (s *PostgresNotificationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresNotificationSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "transfer_notifications")
	s.Require().NoError(err)
}

func (s *PostgresNotificationSuite) newNotification(recipient id.UserID, t models.TransferNotificationType, createdAt time.Time, expiresAt *time.Time) *models.TransferNotification {
	return &models.TransferNotification{
		ID:             id.NotificationID(uuid.New()),
		RecipientID:    recipient,
		SenderID:       id.UserID(uuid.New()),
		TransferID:     id.TransferID(uuid.New()),
		FowlID:         id.FowlID(uuid.New()),
		Type:           t,
		Title:          t.Title(),
		Message:        t.Message(),
		ActionRequired: t.ActionRequired(),
		CreatedAt:      createdAt,
		ExpiresAt:      expiresAt,
	}
}

func (s *PostgresNotificationSuite) TestRoundTrip() {
	ctx := context.Background()
	recipient := id.UserID(uuid.New())
	n := s.newNotification(recipient, models.TypeTransferInitiated, time.Now().UTC(), nil)
	s.Require().NoError(s.store.Create(ctx, n))

	found, err := s.store.FindByID(ctx, n.ID)
	s.Require().NoError(err)
	s.Equal(n.ID, found.ID)
	s.Equal(recipient, found.RecipientID)
	s.Equal(models.TypeTransferInitiated, found.Type)
	s.Equal(n.Title, found.Title)
	s.Equal(n.Message, found.Message)
	s.True(found.ActionRequired)
	s.Nil(found.ExpiresAt)
	s.Nil(found.ReadAt)
}

func (s *PostgresNotificationSuite) TestListExcludesExpired() {
	ctx := context.Background()
	recipient := id.UserID(uuid.New())
	now := time.Now().UTC()

	lapsed := now.Add(-time.Hour)
	live := now.Add(time.Hour)
	s.Require().NoError(s.store.Create(ctx,
		s.newNotification(recipient, models.TypeHandoverScheduled, now.Add(-2*time.Hour), &lapsed)))
	s.Require().NoError(s.store.Create(ctx,
		s.newNotification(recipient, models.TypeVerificationRequired, now.Add(-time.Minute), &live)))
	s.Require().NoError(s.store.Create(ctx,
		s.newNotification(recipient, models.TypeTransferCompleted, now, nil)))

	list, err := s.store.ListForRecipient(ctx, recipient, now)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	// Newest first; the lapsed handover reminder is gone.
	s.Equal(models.TypeTransferCompleted, list[0].Type)
	s.Equal(models.TypeVerificationRequired, list[1].Type)
}

func (s *PostgresNotificationSuite) TestListScopedToRecipient() {
	ctx := context.Background()
	recipient := id.UserID(uuid.New())
	s.Require().NoError(s.store.Create(ctx,
		s.newNotification(recipient, models.TypeTransferInitiated, time.Now().UTC(), nil)))
	s.Require().NoError(s.store.Create(ctx,
		s.newNotification(id.UserID(uuid.New()), models.TypeTransferInitiated, time.Now().UTC(), nil)))

	list, err := s.store.ListForRecipient(ctx, recipient, time.Now().UTC())
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *PostgresNotificationSuite) TestMarkReadFirstReadWins() {
	ctx := context.Background()
	n := s.newNotification(id.UserID(uuid.New()), models.TypeVerificationCompleted, time.Now().UTC(), nil)
	s.Require().NoError(s.store.Create(ctx, n))

	first := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.MarkRead(ctx, n.ID, first))
	s.Require().NoError(s.store.MarkRead(ctx, n.ID, first.Add(time.Hour)))

	found, err := s.store.FindByID(ctx, n.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.ReadAt)
	s.True(found.ReadAt.Equal(first))
}

func (s *PostgresNotificationSuite) TestMarkReadMissing() {
	err := s.store.MarkRead(context.Background(), id.NotificationID(uuid.New()), time.Now().UTC())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
