package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	id "legatum/pkg/domain"
	dErrors "legatum/pkg/domain-errors"
	"legatum/pkg/platform/sentinel"
)

// Ceiling is the total allocatable percentage per asset.
var Ceiling = decimal.NewFromInt(100)

// Epsilon absorbs decimal rounding from percentage/amount round-trips. An
// allocation is accepted when total + percentage < Ceiling + Epsilon, so a
// sub-epsilon overshoot from rounding passes while 100.01 itself is rejected.
var Epsilon = decimal.RequireFromString("0.01")

// DisbursementStatus tracks whether an allocation's share has been released.
type DisbursementStatus string

const (
	DisbursementPending   DisbursementStatus = "pending"
	DisbursementApproved  DisbursementStatus = "approved"
	DisbursementDisbursed DisbursementStatus = "disbursed"
)

func (s DisbursementStatus) IsValid() bool {
	switch s {
	case DisbursementPending, DisbursementApproved, DisbursementDisbursed:
		return true
	}
	return false
}

// Allocation assigns a percentage share of one crypto asset's balance to one
// beneficiary.
//
// Invariants:
//   - Percentage is in (0, 100]
//   - BeneficiaryID and AssetID are non-nil and immutable after construction
//   - At most one allocation per (asset, beneficiary) pair
//   - For a given asset, the sum of percentages never exceeds Ceiling+Epsilon;
//     this is enforced atomically by the store, not per-record
//   - Once disbursed, an allocation is frozen: it cannot be removed and its
//     allocated amounts never change
//
// Percentage is the single source of truth; token amounts are derived for
// display and only persisted as a snapshot at disbursement time.
type Allocation struct {
	ID            id.AllocationID    `json:"allocation_id"`
	AssetID       id.AssetID         `json:"asset_id"`
	BeneficiaryID id.BeneficiaryID   `json:"beneficiary_id"`
	Percentage    decimal.Decimal    `json:"percentage"`
	Status        DisbursementStatus `json:"disbursement_status"`

	// Disbursement snapshot, zero until MarkDisbursed.
	AllocatedAmountCrypto decimal.Decimal `json:"allocated_amount_crypto"`
	AllocatedAmountUSD    decimal.Decimal `json:"allocated_amount_usd"`
	MockTransactionID     string          `json:"mock_transaction_id,omitempty"`
	DisbursedAt           *time.Time      `json:"disbursed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewAllocation constructs a candidate allocation, validating everything that
// does not require store state. The capacity and duplicate checks happen in
// the store, under its lock.
func NewAllocation(allocationID id.AllocationID, assetID id.AssetID, beneficiaryID id.BeneficiaryID, percentage decimal.Decimal, now time.Time) (*Allocation, error) {
	if assetID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "asset_id is required")
	}
	if beneficiaryID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "beneficiary_id is required")
	}
	if percentage.Sign() <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "percentage must be greater than zero")
	}
	if percentage.GreaterThan(Ceiling) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "percentage cannot exceed 100")
	}
	return &Allocation{
		ID:            allocationID,
		AssetID:       assetID,
		BeneficiaryID: beneficiaryID,
		Percentage:    percentage,
		Status:        DisbursementPending,
		CreatedAt:     now,
	}, nil
}

// IsDisbursed reports whether the allocation's share has been released.
func (a *Allocation) IsDisbursed() bool {
	return a.Status == DisbursementDisbursed
}

// MarkDisbursed freezes the allocation with its payout snapshot. Amounts are
// derived from the asset balances at disbursement time.
func (a *Allocation) MarkDisbursed(balanceCrypto, balanceUSD decimal.Decimal, txID string, now time.Time) {
	share := a.Percentage.Div(Ceiling)
	a.AllocatedAmountCrypto = balanceCrypto.Mul(share)
	a.AllocatedAmountUSD = balanceUSD.Mul(share)
	a.MockTransactionID = txID
	a.DisbursedAt = &now
	a.Status = DisbursementDisbursed
}

// FitsWithin reports whether adding percentage to total stays under
// Ceiling+Epsilon. The comparison is strict: an exact 100 passes, 100.01
// does not.
func FitsWithin(total, percentage decimal.Decimal) bool {
	return total.Add(percentage).LessThan(Ceiling.Add(Epsilon))
}

// RemainingCapacity returns the unallocated percentage, floored at zero.
func RemainingCapacity(total decimal.Decimal) decimal.Decimal {
	remaining := Ceiling.Sub(total)
	if remaining.Sign() < 0 {
		return decimal.Zero
	}
	return remaining
}

// CapacityError reports a rejected insert together with the capacity the
// caller can still allocate, so the UI can render "Remaining: X%".
type CapacityError struct {
	Remaining decimal.Decimal
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("allocation exceeds capacity: %s%% remaining", e.Remaining)
}

func (e *CapacityError) Unwrap() error { return sentinel.ErrCapacityExceeded }

// NewMockTransactionID mimics the custodian's transaction handle for the mock
// disbursement flow: "MOCK-" plus 16 hex characters.
func NewMockTransactionID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "MOCK-" + hex[:16]
}
