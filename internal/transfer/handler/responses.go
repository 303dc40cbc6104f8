package handler

import (
	"time"

	"fowlgate/internal/transfer/models"
)

// TransferResponse is the wire form of a transfer request. Fraud
// prevention data is deliberately absent: it is server-internal.
type TransferResponse struct {
	ID                   string                          `json:"id"`
	AssetID              string                          `json:"assetId"`
	SellerID             string                          `json:"sellerId"`
	BuyerID              *string                         `json:"buyerId,omitempty"`
	Status               string                          `json:"status"`
	InitiatedDate        time.Time                       `json:"initiatedDate"`
	CompletedDate        *time.Time                      `json:"completedDate,omitempty"`
	AgreedPrice          float64                         `json:"agreedPrice"`
	Currency             string                          `json:"currency"`
	TransferLocation     string                          `json:"transferLocation,omitempty"`
	TransferLocationLat  *float64                        `json:"transferLocationLat,omitempty"`
	TransferLocationLng  *float64                        `json:"transferLocationLng,omitempty"`
	SellerDetails        models.BirdTransferDetails      `json:"sellerDetails"`
	BuyerVerification    *models.BirdVerificationDetails `json:"buyerVerification,omitempty"`
	HandoverConfirmation *models.HandoverConfirmation    `json:"handoverConfirmation,omitempty"`
	Notes                string                          `json:"notes,omitempty"`
	IsActive             bool                            `json:"isActive"`
	Version              int64                           `json:"version"`
}

func toTransferResponse(t *models.TransferRequest) TransferResponse {
	resp := TransferResponse{
		ID:                   t.ID.String(),
		AssetID:              t.FowlID.String(),
		SellerID:             t.SellerID.String(),
		Status:               t.Status.String(),
		InitiatedDate:        t.InitiatedDate,
		CompletedDate:        t.CompletedDate,
		AgreedPrice:          t.AgreedPrice,
		Currency:             t.Currency.String(),
		TransferLocation:     t.TransferLocation,
		TransferLocationLat:  t.TransferLocationLat,
		TransferLocationLng:  t.TransferLocationLng,
		SellerDetails:        t.SellerDetails,
		BuyerVerification:    t.BuyerVerification,
		HandoverConfirmation: t.HandoverConfirmation,
		Notes:                t.Notes,
		IsActive:             t.IsActive,
		Version:              t.Version,
	}
	if t.BuyerID != nil {
		buyer := t.BuyerID.String()
		resp.BuyerID = &buyer
	}
	return resp
}

func toTransferResponses(ts []*models.TransferRequest) []TransferResponse {
	out := make([]TransferResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransferResponse(t))
	}
	return out
}
