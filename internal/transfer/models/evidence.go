package models

import "time"

// Evidence payloads are typed records serialized as JSON documents inside
// the transfer_requests row. JSON field names are frozen for migration
// compatibility with existing deployments; do not rename them.

// BirdTransferDetails is the seller's claim about the bird, captured at
// initiation. Immutable once the transfer is created.
type BirdTransferDetails struct {
	BirdName               string    `json:"birdName"`
	BirdType               string    `json:"birdType"`
	Age                    int       `json:"age"`
	Color                  string    `json:"color"`
	Gender                 string    `json:"gender"`
	Weight                 *float64  `json:"weight,omitempty"`
	Height                 *float64  `json:"height,omitempty"`
	HealthStatus           string    `json:"healthStatus"`
	VaccinationStatus      string    `json:"vaccinationStatus"`
	BreedingHistory        string    `json:"breedingHistory,omitempty"`
	SpecialCharacteristics string    `json:"specialCharacteristics,omitempty"`
	TransferPhotos         []string  `json:"transferPhotos"`
	VeterinaryCertificate  string    `json:"veterinaryCertificate,omitempty"`
	RecordedTimestamp      time.Time `json:"recordedTimestamp"`
	RecordedLocation       string    `json:"recordedLocation,omitempty"`
}

// BirdVerificationDetails is the buyer's claim at verification: per-field
// match results against the seller's details. Written exactly once per
// transfer.
//
// OverallMatch and VerificationScore are derived server-side from the six
// per-field booleans; values submitted by the client are ignored.
type BirdVerificationDetails struct {
	VerifiedDate         time.Time `json:"verifiedDate"`
	ColorMatch           bool      `json:"colorMatch"`
	AgeMatch             bool      `json:"ageMatch"`
	GenderMatch          bool      `json:"genderMatch"`
	WeightMatch          bool      `json:"weightMatch"`
	HeightMatch          bool      `json:"heightMatch"`
	HealthMatch          bool      `json:"healthMatch"`
	OverallMatch         bool      `json:"overallMatch"`
	VerificationPhotos   []string  `json:"verificationPhotos"`
	BuyerNotes           string    `json:"buyerNotes,omitempty"`
	Discrepancies        []string  `json:"discrepancies"`
	VerificationScore    int       `json:"verificationScore"`
	VerificationLocation string    `json:"verificationLocation,omitempty"`
	FraudCheckPassed     bool      `json:"fraudCheckPassed"`
}

// RecomputeAggregate derives OverallMatch and VerificationScore from the
// per-field booleans, overwriting whatever the client supplied.
func (v *BirdVerificationDetails) RecomputeAggregate() {
	fields := [...]bool{
		v.ColorMatch, v.AgeMatch, v.GenderMatch,
		v.WeightMatch, v.HeightMatch, v.HealthMatch,
	}
	matched := 0
	for _, ok := range fields {
		if ok {
			matched++
		}
	}
	v.OverallMatch = matched == len(fields)
	v.VerificationScore = matched * 100 / len(fields)
}

// HandoverConfirmation is built incrementally by both parties. Seller-*
// fields are writable only by the seller, buyer-* fields only by the buyer;
// shared fields are last-writer-wins between the two parties.
type HandoverConfirmation struct {
	SellerConfirmedDate *time.Time `json:"sellerConfirmedDate,omitempty"`
	BuyerConfirmedDate  *time.Time `json:"buyerConfirmedDate,omitempty"`
	HandoverLocation    string     `json:"handoverLocation"`
	HandoverLocationLat float64    `json:"handoverLocationLat"`
	HandoverLocationLng float64    `json:"handoverLocationLng"`
	SellerPhotos        []string   `json:"sellerPhotos,omitempty"`
	BuyerPhotos         []string   `json:"buyerPhotos,omitempty"`
	SellerSignature     string     `json:"sellerSignature,omitempty"`
	BuyerSignature      string     `json:"buyerSignature,omitempty"`
	WitnessPresent      bool       `json:"witnessPresent"`
	WitnessName         string     `json:"witnessName,omitempty"`
	WitnessContact      string     `json:"witnessContact,omitempty"`
	PaymentConfirmed    bool       `json:"paymentConfirmed"`
	PaymentMethod       string     `json:"paymentMethod,omitempty"`
	FinalNotes          string     `json:"finalNotes,omitempty"`
}

// HandoverEvidence is what one party submits when confirming. The merge
// methods below pick only the fields that party owns.
type HandoverEvidence struct {
	Photos           []string
	Signature        string
	Location         string
	LocationLat      float64
	LocationLng      float64
	PaymentConfirmed bool
	PaymentMethod    string
	WitnessPresent   bool
	WitnessName      string
	WitnessContact   string
	FinalNotes       string
}

// ApplySellerConfirmation merges the seller-owned fields and stamps the
// seller confirmation time. Calling it again overwrites only those fields.
func (h *HandoverConfirmation) ApplySellerConfirmation(now time.Time, ev HandoverEvidence) {
	t := now
	h.SellerConfirmedDate = &t
	h.SellerPhotos = ev.Photos
	h.SellerSignature = ev.Signature
	h.HandoverLocation = ev.Location
	h.HandoverLocationLat = ev.LocationLat
	h.HandoverLocationLng = ev.LocationLng
	h.applyShared(ev)
}

// ApplyBuyerConfirmation merges the buyer-owned fields and stamps the buyer
// confirmation time.
func (h *HandoverConfirmation) ApplyBuyerConfirmation(now time.Time, ev HandoverEvidence) {
	t := now
	h.BuyerConfirmedDate = &t
	h.BuyerPhotos = ev.Photos
	h.BuyerSignature = ev.Signature
	h.PaymentConfirmed = ev.PaymentConfirmed
	h.PaymentMethod = ev.PaymentMethod
	h.applyShared(ev)
}

func (h *HandoverConfirmation) applyShared(ev HandoverEvidence) {
	if ev.WitnessPresent {
		h.WitnessPresent = true
		h.WitnessName = ev.WitnessName
		h.WitnessContact = ev.WitnessContact
	}
	if ev.FinalNotes != "" {
		h.FinalNotes = ev.FinalNotes
	}
}

// BothConfirmed reports whether both parties have stamped their
// confirmation dates; only then may the transfer complete.
func (h *HandoverConfirmation) BothConfirmed() bool {
	return h.SellerConfirmedDate != nil && h.BuyerConfirmedDate != nil
}

// FraudPreventionData is the opaque-to-clients signed context captured at
// initiation, used for later fraud analysis. Field names are frozen.
type FraudPreventionData struct {
	Timestamp        int64   `json:"timestamp"`
	SessionID        string  `json:"sessionId"`
	DeviceInfo       string  `json:"deviceInfo"`
	AppVersion       string  `json:"appVersion"`
	IPHash           string  `json:"ipHash"`
	LocationAccuracy float64 `json:"locationAccuracy"`
}
