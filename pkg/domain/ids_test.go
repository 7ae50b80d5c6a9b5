package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "legatum/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAssetID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseBeneficiaryID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAllocationID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseAssetID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, AssetID(validUUID), id)
	})

	t.Run("round-trips through String", func(t *testing.T) {
		id := NewBeneficiaryID()
		parsed, err := ParseBeneficiaryID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check - if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	assetID := AssetID(uuid.New())
	beneficiaryID := BeneficiaryID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ AssetID = beneficiaryID   // compile error
	// var _ BeneficiaryID = assetID   // compile error

	// Verify they're distinct at runtime too
	assert.NotEqual(t, uuid.UUID(assetID), uuid.UUID(beneficiaryID))
}
