package service

import (
	"context"

	id "fowlgate/pkg/domain"
	audit "fowlgate/pkg/platform/audit"

	notifmodels "fowlgate/internal/notification/models"
	regmodels "fowlgate/internal/registry/models"
	"fowlgate/internal/transfer/models"
)

// TransferStore persists transfer requests. Update is version-guarded:
// it returns sentinel.ErrConflict when a concurrent writer won.
type TransferStore interface {
	Create(ctx context.Context, t *models.TransferRequest) error
	FindByID(ctx context.Context, transferID id.TransferID) (*models.TransferRequest, error)
	FindActiveByFowl(ctx context.Context, fowlID id.FowlID) (*models.TransferRequest, error)
	ListByParty(ctx context.Context, userID id.UserID, activeOnly bool) ([]*models.TransferRequest, error)
	Update(ctx context.Context, t *models.TransferRequest) error
}

// OwnershipStore persists the append-only ownership trail. Append returns
// sentinel.ErrDuplicate when the transfer already has a record.
type OwnershipStore interface {
	Append(ctx context.Context, r *models.OwnershipRecord) error
	FindByTransfer(ctx context.Context, transferID id.TransferID) (*models.OwnershipRecord, error)
	ListByFowl(ctx context.Context, fowlID id.FowlID) ([]*models.OwnershipRecord, error)
}

// ActiveLock guards the one-active-transfer-per-fowl rule ahead of the
// store write. Acquire returns sentinel.ErrConflict when another transfer
// holds the fowl.
type ActiveLock interface {
	Acquire(ctx context.Context, fowlID id.FowlID, transferID id.TransferID) error
	Release(ctx context.Context, fowlID id.FowlID) error
}

// AssetRegistry resolves fowls and records ownership changes.
type AssetRegistry interface {
	Get(ctx context.Context, fowlID id.FowlID) (*regmodels.Fowl, error)
	SetOwner(ctx context.Context, fowlID id.FowlID, ownerID id.UserID) error
}

// NotificationDispatcher delivers protocol notifications. Implementations
// are best-effort; Dispatch never fails the calling operation.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, recipientID, senderID id.UserID, transferID id.TransferID, fowlID id.FowlID, t notifmodels.TransferNotificationType)
}

// AuditPublisher emits audit events. Compliance events are fail-closed:
// a non-nil error from Emit must fail the calling operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
