package models

import (
	"time"

	id "fowlgate/pkg/domain"
	dErrors "fowlgate/pkg/domain-errors"
)

// Role is a caller's relationship to a transfer.
type Role int

const (
	RoleNone Role = iota
	RoleSeller
	RoleBuyer
)

// TransferRequest is the aggregate root for one ownership-transfer attempt.
//
// Invariants:
//   - SellerID never changes after creation
//   - BuyerID is write-once: set at creation or at verification
//   - At most one request with IsActive=true exists per fowl (enforced by
//     the store's conditional create plus the active-transfer lock)
//   - Status only moves along the transition graph in status.go
//   - BuyerVerification is written exactly once, by the buyer
//   - HandoverConfirmation seller-* fields are written only by the seller,
//     buyer-* fields only by the buyer
//   - Version increments on every store update; stale writers lose
type TransferRequest struct {
	ID            id.TransferID
	FowlID        id.FowlID
	SellerID      id.UserID
	BuyerID       *id.UserID
	Status        TransferStatus
	InitiatedDate time.Time
	CompletedDate *time.Time
	AgreedPrice   float64
	Currency      id.Currency

	TransferLocation    string
	TransferLocationLat *float64
	TransferLocationLng *float64

	SellerDetails        BirdTransferDetails
	BuyerVerification    *BirdVerificationDetails
	HandoverConfirmation *HandoverConfirmation
	FraudPreventionData  FraudPreventionData

	Notes    string
	IsActive bool
	Version  int64
}

// NewTransferRequest validates creation invariants and builds an INITIATED,
// active request.
func NewTransferRequest(
	transferID id.TransferID,
	fowlID id.FowlID,
	sellerID id.UserID,
	buyerID *id.UserID,
	price float64,
	currency id.Currency,
	location string,
	details BirdTransferDetails,
	fraud FraudPreventionData,
	now time.Time,
) (*TransferRequest, error) {
	if transferID.IsNil() || fowlID.IsNil() || sellerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "transfer requires ids")
	}
	if buyerID != nil && *buyerID == sellerID {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "seller cannot be the buyer")
	}
	if price <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "agreed price must be positive")
	}
	if !currency.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unsupported currency")
	}
	return &TransferRequest{
		ID:                  transferID,
		FowlID:              fowlID,
		SellerID:            sellerID,
		BuyerID:             buyerID,
		Status:              StatusInitiated,
		InitiatedDate:       now,
		AgreedPrice:         price,
		Currency:            currency,
		TransferLocation:    location,
		SellerDetails:       details,
		FraudPreventionData: fraud,
		IsActive:            true,
	}, nil
}

// PartyRole classifies the caller against this transfer.
func (t *TransferRequest) PartyRole(callerID id.UserID) Role {
	if callerID == t.SellerID {
		return RoleSeller
	}
	if t.BuyerID != nil && callerID == *t.BuyerID {
		return RoleBuyer
	}
	return RoleNone
}

// IsParty reports whether the caller may read this transfer.
func (t *TransferRequest) IsParty(callerID id.UserID) bool {
	return t.PartyRole(callerID) != RoleNone
}

// CanVerify checks the verification preconditions: the caller is the buyer
// and the transfer is still in the verification stage. When the transfer was
// initiated without a named buyer, the first non-seller verifier claims the
// buyer slot (BuyerID is write-once: creation or verification, never later).
func (t *TransferRequest) CanVerify(callerID id.UserID) error {
	if callerID == t.SellerID {
		return dErrors.New(dErrors.CodeForbidden, "the seller cannot verify their own transfer")
	}
	if t.BuyerID != nil && callerID != *t.BuyerID {
		return dErrors.New(dErrors.CodeForbidden, "only the buyer can verify this transfer")
	}
	if t.Status != StatusInitiated && t.Status != StatusPendingBuyerVerification {
		return dErrors.New(dErrors.CodeInvariantViolation, "transfer is not in verification stage")
	}
	if t.BuyerVerification != nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "transfer is already verified")
	}
	return nil
}

// ApplyVerification stores the (recomputed) verification and moves the
// status to BUYER_VERIFIED or DISPUTED. Call CanVerify first. The caller
// becomes the buyer when the slot was still open.
func (t *TransferRequest) ApplyVerification(callerID id.UserID, v BirdVerificationDetails, now time.Time) {
	if t.BuyerID == nil {
		buyer := callerID
		t.BuyerID = &buyer
	}
	v.RecomputeAggregate()
	if v.VerifiedDate.IsZero() {
		v.VerifiedDate = now
	}
	t.BuyerVerification = &v
	if v.OverallMatch {
		t.Status = StatusBuyerVerified
	} else {
		t.Status = StatusDisputed
	}
}

// CanConfirmHandover checks that the caller is a party and the transfer is
// in a handover-eligible state.
func (t *TransferRequest) CanConfirmHandover(callerID id.UserID) error {
	if t.PartyRole(callerID) == RoleNone {
		return dErrors.New(dErrors.CodeForbidden, "only a transfer party can confirm handover")
	}
	if t.Status != StatusBuyerVerified && t.Status != StatusHandoverConfirmed {
		return dErrors.New(dErrors.CodeInvariantViolation, "transfer is not in handover stage")
	}
	return nil
}

// ApplyHandover merges the caller's evidence into the handover confirmation
// (creating it on first confirmation) and advances the status: COMPLETED
// when both parties have confirmed, HANDOVER_CONFIRMED otherwise. Returns
// true when the merge completed the transfer.
func (t *TransferRequest) ApplyHandover(role Role, ev HandoverEvidence, now time.Time) bool {
	if t.HandoverConfirmation == nil {
		t.HandoverConfirmation = &HandoverConfirmation{}
	}
	switch role {
	case RoleSeller:
		t.HandoverConfirmation.ApplySellerConfirmation(now, ev)
	case RoleBuyer:
		t.HandoverConfirmation.ApplyBuyerConfirmation(now, ev)
	}
	if t.HandoverConfirmation.BothConfirmed() {
		completed := now
		t.Status = StatusCompleted
		t.CompletedDate = &completed
		t.IsActive = false
		return true
	}
	t.Status = StatusHandoverConfirmed
	return false
}

// CanCancel checks the cancellation preconditions: seller only, and not
// already terminal.
func (t *TransferRequest) CanCancel(callerID id.UserID) error {
	if callerID != t.SellerID {
		return dErrors.New(dErrors.CodeForbidden, "only the seller can cancel this transfer")
	}
	if t.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvariantViolation, "transfer cannot be cancelled at this stage")
	}
	return nil
}

// ApplyCancellation moves the transfer to CANCELLED and deactivates it.
// Call CanCancel first.
func (t *TransferRequest) ApplyCancellation(reason string) {
	t.Status = StatusCancelled
	t.Notes = reason
	t.IsActive = false
}
