package models

import dErrors "fowlgate/pkg/domain-errors"

// TransferStatus is the lifecycle state of a transfer request.
//
// PENDING_BUYER_VERIFICATION and PENDING_HANDOVER are declared and accepted
// when parsing stored records, but no operation assigns them. They are kept
// for wire compatibility with deployments whose enum predates this service;
// collapsing them is tracked as a product question, not decided here.
type TransferStatus string

const (
	StatusInitiated                TransferStatus = "INITIATED"
	StatusPendingBuyerVerification TransferStatus = "PENDING_BUYER_VERIFICATION"
	StatusBuyerVerified            TransferStatus = "BUYER_VERIFIED"
	StatusPendingHandover          TransferStatus = "PENDING_HANDOVER"
	StatusHandoverConfirmed        TransferStatus = "HANDOVER_CONFIRMED"
	StatusCompleted                TransferStatus = "COMPLETED"
	StatusCancelled                TransferStatus = "CANCELLED"
	StatusDisputed                 TransferStatus = "DISPUTED"
)

var validStatuses = map[TransferStatus]bool{
	StatusInitiated:                true,
	StatusPendingBuyerVerification: true,
	StatusBuyerVerified:            true,
	StatusPendingHandover:          true,
	StatusHandoverConfirmed:        true,
	StatusCompleted:                true,
	StatusCancelled:                true,
	StatusDisputed:                 true,
}

// statusTransitions is the single source of truth for the transition graph.
// Cancellation edges are handled by CanCancel on the aggregate; this table
// holds the forward protocol edges only.
var statusTransitions = map[TransferStatus][]TransferStatus{
	StatusInitiated:                {StatusBuyerVerified, StatusDisputed},
	StatusPendingBuyerVerification: {StatusBuyerVerified, StatusDisputed},
	StatusBuyerVerified:            {StatusHandoverConfirmed, StatusCompleted},
	StatusHandoverConfirmed:        {StatusHandoverConfirmed, StatusCompleted},
}

// ParseTransferStatus constructs a TransferStatus from stored or external
// input.
func ParseTransferStatus(s string) (TransferStatus, error) {
	st := TransferStatus(s)
	if !validStatuses[st] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown transfer status %q", s)
	}
	return st, nil
}

// IsValid checks if the status is one of the declared enum values.
func (s TransferStatus) IsValid() bool {
	return validStatuses[s]
}

// CanTransitionTo reports whether the forward edge s -> next exists.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no state-changing operation may follow.
// DISPUTED is cancellable and therefore not terminal.
func (s TransferStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s TransferStatus) String() string {
	return string(s)
}
