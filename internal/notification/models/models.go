// Package models defines transfer notifications delivered to the
// parties of a transfer.
package models

import (
	"time"

	id "fowlgate/pkg/domain"
	dErrors "fowlgate/pkg/domain-errors"
)

// TransferNotificationType identifies the protocol event a notification
// announces.
type TransferNotificationType string

const (
	TypeTransferInitiated     TransferNotificationType = "TRANSFER_INITIATED"
	TypeVerificationRequired  TransferNotificationType = "VERIFICATION_REQUIRED"
	TypeVerificationCompleted TransferNotificationType = "VERIFICATION_COMPLETED"
	TypeHandoverScheduled     TransferNotificationType = "HANDOVER_SCHEDULED"
	TypeHandoverConfirmed     TransferNotificationType = "HANDOVER_CONFIRMED"
	TypeTransferCompleted     TransferNotificationType = "TRANSFER_COMPLETED"
	TypeTransferCancelled     TransferNotificationType = "TRANSFER_CANCELLED"
	TypeDisputeRaised         TransferNotificationType = "DISPUTE_RAISED"
)

var validTypes = map[TransferNotificationType]bool{
	TypeTransferInitiated:     true,
	TypeVerificationRequired:  true,
	TypeVerificationCompleted: true,
	TypeHandoverScheduled:     true,
	TypeHandoverConfirmed:     true,
	TypeTransferCompleted:     true,
	TypeTransferCancelled:     true,
	TypeDisputeRaised:         true,
}

func ParseTransferNotificationType(raw string) (TransferNotificationType, error) {
	t := TransferNotificationType(raw)
	if !validTypes[t] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown notification type %q", raw)
	}
	return t, nil
}

func (t TransferNotificationType) String() string { return string(t) }

func (t TransferNotificationType) IsValid() bool { return validTypes[t] }

// TransferNotification is a persisted message for one recipient about
// one transfer.
type TransferNotification struct {
	ID             id.NotificationID        `json:"id"`
	RecipientID    id.UserID                `json:"recipientId"`
	SenderID       id.UserID                `json:"senderId"`
	TransferID     id.TransferID            `json:"transferRequestId"`
	FowlID         id.FowlID                `json:"assetId"`
	Type           TransferNotificationType `json:"notificationType"`
	Title          string                   `json:"title"`
	Message        string                   `json:"message"`
	ActionRequired bool                     `json:"actionRequired"`
	CreatedAt      time.Time                `json:"createdDate"`
	ExpiresAt      *time.Time               `json:"expiryDate,omitempty"`
	ReadAt         *time.Time               `json:"readDate,omitempty"`
}

// IsExpired reports whether the notification has lapsed. Notifications
// without an expiry never lapse.
func (n *TransferNotification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && now.After(*n.ExpiresAt)
}

// IsRead reports whether the recipient has acknowledged it.
func (n *TransferNotification) IsRead() bool { return n.ReadAt != nil }
