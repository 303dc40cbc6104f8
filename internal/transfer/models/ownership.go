package models

import (
	"time"

	id "fowlgate/pkg/domain"
)

// OwnershipRecord is the append-only audit entry created exactly once per
// completed transfer. Once written it is never mutated; the chain of
// records per fowl is the ownership history.
type OwnershipRecord struct {
	ID              id.TransferID `json:"-"` // record key equals the transfer id (one record per transfer)
	FowlID          id.FowlID     `json:"assetId"`
	PreviousOwnerID id.UserID     `json:"previousOwnerId"`
	NewOwnerID      id.UserID     `json:"newOwnerId"`
	TransferID      id.TransferID `json:"transferId"`
	TransferDate    time.Time     `json:"transferDate"`
	Price           float64       `json:"price"`
	Currency        id.Currency   `json:"currency"`
	Location        string        `json:"location,omitempty"`

	// VerificationHash joins this record back to the transfer evidence. It
	// is a deterministic digest, not a cryptographic signature.
	VerificationHash string `json:"verificationHash"`

	// ExternalLedgerTxID is reserved for an external anti-double-spend
	// ledger. No such mechanism is implemented; the field is carried for
	// schema compatibility.
	ExternalLedgerTxID string `json:"blockchainTxId,omitempty"`

	// IsReversible is always false in this design.
	IsReversible bool `json:"isReversible"`

	LegalDocuments []string `json:"legalDocuments"`
}
