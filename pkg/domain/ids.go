// Package domain defines the typed identifiers shared across modules.
//
// Each entity gets its own UUID-backed type so an AssetID can never be passed
// where a BeneficiaryID is expected. Parsing enforces the trust-boundary
// invariant that identifiers are valid, non-empty, non-nil UUIDs.
package domain

import (
	"fmt"

	"github.com/google/uuid"

	dErrors "legatum/pkg/domain-errors"
)

type (
	// AssetID identifies one custodied crypto wallet snapshot.
	AssetID uuid.UUID

	// BeneficiaryID identifies a designated recipient.
	BeneficiaryID uuid.UUID

	// AllocationID identifies one percentage share of an asset.
	AllocationID uuid.UUID

	// UserID identifies the estate owner. Owned by the auth collaborator;
	// carried here only for audit correlation.
	UserID uuid.UUID
)

func (id AssetID) String() string       { return uuid.UUID(id).String() }
func (id BeneficiaryID) String() string { return uuid.UUID(id).String() }
func (id AllocationID) String() string  { return uuid.UUID(id).String() }
func (id UserID) String() string        { return uuid.UUID(id).String() }

func (id AssetID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id BeneficiaryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AllocationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }

// Defined types do not inherit uuid.UUID's marshaling, so each identifier
// implements encoding.TextMarshaler/Unmarshaler to keep the canonical string
// form on the wire.

func (id AssetID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id BeneficiaryID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id AllocationID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }

func (id *AssetID) UnmarshalText(b []byte) error {
	parsed, err := ParseAssetID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *BeneficiaryID) UnmarshalText(b []byte) error {
	parsed, err := ParseBeneficiaryID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *AllocationID) UnmarshalText(b []byte) error {
	parsed, err := ParseAllocationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewAssetID returns a freshly generated asset identifier.
func NewAssetID() AssetID { return AssetID(uuid.New()) }

// NewBeneficiaryID returns a freshly generated beneficiary identifier.
func NewBeneficiaryID() BeneficiaryID { return BeneficiaryID(uuid.New()) }

// NewAllocationID returns a freshly generated allocation identifier.
func NewAllocationID() AllocationID { return AllocationID(uuid.New()) }

// ParseAssetID parses and validates an asset identifier.
func ParseAssetID(s string) (AssetID, error) {
	u, err := parseUUID(s, "asset_id")
	return AssetID(u), err
}

// ParseBeneficiaryID parses and validates a beneficiary identifier.
func ParseBeneficiaryID(s string) (BeneficiaryID, error) {
	u, err := parseUUID(s, "beneficiary_id")
	return BeneficiaryID(u), err
}

// ParseAllocationID parses and validates an allocation identifier.
func ParseAllocationID(s string) (AllocationID, error) {
	u, err := parseUUID(s, "allocation_id")
	return AllocationID(u), err
}

// ParseUserID parses and validates a user identifier.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s is required", field))
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s is not a valid UUID", field))
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s must not be the nil UUID", field))
	}
	return u, nil
}
