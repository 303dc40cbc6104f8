package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/requestcontext"

	"fowlgate/internal/transfer/models"
)

// locationAccuracyThreshold is the GPS accuracy bound (meters) recorded
// with every fraud signature.
const locationAccuracyThreshold = 100.0

// verificationHash derives the deterministic digest that joins an
// ownership record back to its transfer. The preimage layout is frozen:
// existing records were hashed this way and must stay verifiable.
func verificationHash(fowlID id.FowlID, sellerID, buyerID id.UserID, initiatedDate time.Time) string {
	preimage := fmt.Sprintf("%s-%s-%s-%d",
		fowlID, sellerID, buyerID, initiatedDate.UnixMilli())
	sum := sha256.Sum256([]byte(preimage))
	return hex.EncodeToString(sum[:])
}

// newFraudPreventionData captures the request's fraud signature: when and
// from where the initiation came. The client IP is stored hashed; the raw
// address never reaches the row.
func newFraudPreventionData(ctx context.Context) models.FraudPreventionData {
	return models.FraudPreventionData{
		Timestamp:        requestcontext.Now(ctx).UnixMilli(),
		SessionID:        uuid.NewString(),
		DeviceInfo:       requestcontext.DeviceFingerprint(ctx),
		AppVersion:       requestcontext.AppVersion(ctx),
		IPHash:           hashClientIP(requestcontext.ClientIP(ctx)),
		LocationAccuracy: locationAccuracyThreshold,
	}
}

func hashClientIP(ip string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}
