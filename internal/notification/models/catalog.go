package models

import "time"

// The catalog carries the user-facing text for each notification type.
// Titles and messages are frozen; mobile clients key their deep links
// off these strings.

var titles = map[TransferNotificationType]string{
	TypeTransferInitiated:     "New Transfer Request",
	TypeVerificationRequired:  "Verification Required",
	TypeVerificationCompleted: "Transfer Verified",
	TypeHandoverScheduled:     "Handover Scheduled",
	TypeHandoverConfirmed:     "Handover Confirmed",
	TypeTransferCompleted:     "Transfer Completed",
	TypeTransferCancelled:     "Transfer Cancelled",
	TypeDisputeRaised:         "Transfer Dispute",
}

var messages = map[TransferNotificationType]string{
	TypeTransferInitiated:     "You have received a new transfer request. Please review and verify the details.",
	TypeVerificationRequired:  "Please verify the transfer details and confirm the bird information.",
	TypeVerificationCompleted: "The buyer has verified the transfer details. Ready for handover.",
	TypeHandoverScheduled:     "Handover has been scheduled. Please confirm your attendance.",
	TypeHandoverConfirmed:     "The other party has confirmed the handover. Please complete your confirmation.",
	TypeTransferCompleted:     "Transfer has been completed successfully. Ownership has been updated.",
	TypeTransferCancelled:     "The transfer has been cancelled by the seller.",
	TypeDisputeRaised:         "A dispute has been raised regarding this transfer. Please review.",
}

var actionRequired = map[TransferNotificationType]bool{
	TypeTransferInitiated:    true,
	TypeVerificationRequired: true,
	TypeHandoverScheduled:    true,
	TypeHandoverConfirmed:    true,
	TypeDisputeRaised:        true,
}

// handoverExpiry bounds how long a scheduled handover notification stays
// actionable.
const handoverExpiry = 3 * 24 * time.Hour

// Title returns the catalog title for the type.
func (t TransferNotificationType) Title() string { return titles[t] }

// Message returns the catalog body for the type.
func (t TransferNotificationType) Message() string { return messages[t] }

// ActionRequired reports whether the recipient must act on this type.
func (t TransferNotificationType) ActionRequired() bool { return actionRequired[t] }

// ExpiryFor computes the expiry for a notification created at now.
// Verification requests lapse with the verification window; scheduled
// handovers after three days; every other type never expires.
func ExpiryFor(t TransferNotificationType, now time.Time, verificationWindow time.Duration) *time.Time {
	var at time.Time
	switch t {
	case TypeVerificationRequired:
		at = now.Add(verificationWindow)
	case TypeHandoverScheduled:
		at = now.Add(handoverExpiry)
	default:
		return nil
	}
	return &at
}
