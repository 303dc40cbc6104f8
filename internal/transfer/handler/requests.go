package handler

import (
	id "fowlgate/pkg/domain"
	dErrors "fowlgate/pkg/domain-errors"

	"fowlgate/internal/transfer/models"
	"fowlgate/internal/transfer/service"
)

// Request bodies keep the legacy camelCase field names so existing mobile
// clients work unchanged. Validate parses string ids into typed ids; the
// typed values live in unexported fields the handler reads after
// DecodeAndPrepare succeeds.

type InitiateTransferRequest struct {
	AssetID          string                     `json:"assetId"`
	BuyerID          string                     `json:"buyerId,omitempty"`
	AgreedPrice      float64                    `json:"agreedPrice"`
	Currency         string                     `json:"currency"`
	TransferLocation string                     `json:"transferLocation,omitempty"`
	LocationLat      *float64                   `json:"transferLocationLat,omitempty"`
	LocationLng      *float64                   `json:"transferLocationLng,omitempty"`
	SellerDetails    models.BirdTransferDetails `json:"sellerDetails"`

	fowlID  id.FowlID
	buyerID *id.UserID
}

func (r *InitiateTransferRequest) Validate() error {
	fowlID, err := id.ParseFowlID(r.AssetID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "assetId must be a valid uuid")
	}
	r.fowlID = fowlID

	if r.BuyerID != "" {
		buyerID, err := id.ParseUserID(r.BuyerID)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "buyerId must be a valid uuid")
		}
		r.buyerID = &buyerID
	}

	if r.AgreedPrice <= 0 {
		return dErrors.New(dErrors.CodeValidation, "agreedPrice must be positive")
	}
	if _, err := id.ParseCurrency(r.Currency); err != nil {
		return dErrors.New(dErrors.CodeValidation, "unsupported currency")
	}
	return nil
}

func (r *InitiateTransferRequest) Input() service.InitiateInput {
	return service.InitiateInput{
		FowlID:      r.fowlID,
		BuyerID:     r.buyerID,
		Price:       r.AgreedPrice,
		Currency:    id.Currency(r.Currency),
		Location:    r.TransferLocation,
		LocationLat: r.LocationLat,
		LocationLng: r.LocationLng,
		Details:     r.SellerDetails,
	}
}

type VerifyTransferRequest struct {
	ColorMatch           bool     `json:"colorMatch"`
	AgeMatch             bool     `json:"ageMatch"`
	GenderMatch          bool     `json:"genderMatch"`
	WeightMatch          bool     `json:"weightMatch"`
	HeightMatch          bool     `json:"heightMatch"`
	HealthMatch          bool     `json:"healthMatch"`
	VerificationPhotos   []string `json:"verificationPhotos,omitempty"`
	BuyerNotes           string   `json:"buyerNotes,omitempty"`
	Discrepancies        []string `json:"discrepancies,omitempty"`
	VerificationLocation string   `json:"verificationLocation,omitempty"`
}

func (r *VerifyTransferRequest) Validate() error {
	// The six match booleans default to false, which is a valid (disputing)
	// submission; there is nothing structural to reject.
	return nil
}

func (r *VerifyTransferRequest) Details() models.BirdVerificationDetails {
	return models.BirdVerificationDetails{
		ColorMatch:           r.ColorMatch,
		AgeMatch:             r.AgeMatch,
		GenderMatch:          r.GenderMatch,
		WeightMatch:          r.WeightMatch,
		HeightMatch:          r.HeightMatch,
		HealthMatch:          r.HealthMatch,
		VerificationPhotos:   r.VerificationPhotos,
		BuyerNotes:           r.BuyerNotes,
		Discrepancies:        r.Discrepancies,
		VerificationLocation: r.VerificationLocation,
	}
}

type ConfirmHandoverRequest struct {
	Photos           []string `json:"photos,omitempty"`
	Signature        string   `json:"signature"`
	Location         string   `json:"handoverLocation,omitempty"`
	LocationLat      float64  `json:"handoverLocationLat,omitempty"`
	LocationLng      float64  `json:"handoverLocationLng,omitempty"`
	PaymentConfirmed bool     `json:"paymentConfirmed,omitempty"`
	PaymentMethod    string   `json:"paymentMethod,omitempty"`
	WitnessPresent   bool     `json:"witnessPresent,omitempty"`
	WitnessName      string   `json:"witnessName,omitempty"`
	WitnessContact   string   `json:"witnessContact,omitempty"`
	FinalNotes       string   `json:"finalNotes,omitempty"`
}

func (r *ConfirmHandoverRequest) Validate() error {
	if r.Signature == "" {
		return dErrors.New(dErrors.CodeValidation, "signature is required")
	}
	return nil
}

func (r *ConfirmHandoverRequest) Evidence() models.HandoverEvidence {
	return models.HandoverEvidence{
		Photos:           r.Photos,
		Signature:        r.Signature,
		Location:         r.Location,
		LocationLat:      r.LocationLat,
		LocationLng:      r.LocationLng,
		PaymentConfirmed: r.PaymentConfirmed,
		PaymentMethod:    r.PaymentMethod,
		WitnessPresent:   r.WitnessPresent,
		WitnessName:      r.WitnessName,
		WitnessContact:   r.WitnessContact,
		FinalNotes:       r.FinalNotes,
	}
}

type CancelTransferRequest struct {
	Reason string `json:"reason"`
}

func (r *CancelTransferRequest) Validate() error {
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}
