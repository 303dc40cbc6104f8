// Package domain defines typed identifiers and shared value types.
//
// IDs are distinct uuid wrappers so the compiler rejects cross-entity mixups
// (passing a FowlID where a TransferID is expected). Construct them via the
// Parse* functions at trust boundaries; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "fowlgate/pkg/domain-errors"
)

// UserID identifies a platform user (seller or buyer).
type UserID uuid.UUID

// FowlID identifies a tracked bird in the asset registry.
type FowlID uuid.UUID

// TransferID identifies one ownership-transfer attempt.
type TransferID uuid.UUID

// NotificationID identifies a persisted transfer notification.
type NotificationID uuid.UUID

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id FowlID) String() string         { return uuid.UUID(id).String() }
func (id TransferID) String() string     { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id FowlID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id TransferID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// The wrappers are defined types, not aliases, so they must restate the
// text codec; without it encoding/json falls back to the raw [16]byte
// representation on the wire.
func (id UserID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id FowlID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id TransferID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id NotificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *FowlID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *TransferID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *NotificationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// ParseUserID constructs a UserID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or the
// nil UUID; no other errors are expected.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseFowlID constructs a FowlID from external input.
func ParseFowlID(s string) (FowlID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return FowlID{}, err
	}
	return FowlID(u), nil
}

// ParseTransferID constructs a TransferID from external input.
func ParseTransferID(s string) (TransferID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return TransferID{}, err
	}
	return TransferID(u), nil
}

// ParseNotificationID constructs a NotificationID from external input.
func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return NotificationID{}, err
	}
	return NotificationID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
