// Package audit defines the audit event model and the outbox contract.
//
// Events are emitted from domain logic to capture key protocol actions. Keep
// them transport-agnostic so stores and sinks can fan out.
package audit

import (
	"time"

	id "fowlgate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: completed
	// transfers and ownership records. These require tamper-proof storage
	// and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine protocol activity useful for
	// debugging and operational visibility. Can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event captures one protocol action.
type Event struct {
	Category   EventCategory
	Timestamp  time.Time
	ActorID    id.UserID
	TransferID id.TransferID
	FowlID     id.FowlID
	Action     string
	Reason     string
	RequestID  string
}

// AuditEvent names the protocol actions that produce audit entries.
type AuditEvent string

const (
	EventTransferInitiated AuditEvent = "transfer_initiated"
	EventTransferVerified  AuditEvent = "transfer_verified"
	EventTransferDisputed  AuditEvent = "transfer_disputed"
	EventHandoverConfirmed AuditEvent = "handover_confirmed"
	EventTransferCompleted AuditEvent = "transfer_completed"
	EventTransferCancelled AuditEvent = "transfer_cancelled"
	EventOwnershipRecorded AuditEvent = "ownership_recorded"
)

// eventCategories maps each audit event to its category.
// Compliance events guard the ownership chain; everything else is routine.
var eventCategories = map[AuditEvent]EventCategory{
	EventTransferInitiated: CategoryOperations,
	EventTransferVerified:  CategoryOperations,
	EventTransferDisputed:  CategoryCompliance,
	EventHandoverConfirmed: CategoryOperations,
	EventTransferCompleted: CategoryCompliance,
	EventTransferCancelled: CategoryOperations,
	EventOwnershipRecorded: CategoryCompliance,
}

// CategoryOf returns the category for an audit event, defaulting to
// operations for unknown actions.
func CategoryOf(action AuditEvent) EventCategory {
	if c, ok := eventCategories[action]; ok {
		return c
	}
	return CategoryOperations
}
