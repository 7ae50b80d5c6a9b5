package models

import (
	"strings"

	"github.com/shopspring/decimal"

	dErrors "legatum/pkg/domain-errors"
)

// CreateAllocationRequest is the POST body for adding an allocation. The
// caller supplies the share in exactly one of the two entry modes: a
// percentage of the balance, or an absolute token amount the service converts
// against the asset's balance before the ledger sees it.
type CreateAllocationRequest struct {
	BeneficiaryID string           `json:"beneficiary_id"`
	Percentage    *decimal.Decimal `json:"percentage,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
}

// Normalize trims caller input in place. Call before Validate.
func (r *CreateAllocationRequest) Normalize() {
	r.BeneficiaryID = strings.TrimSpace(r.BeneficiaryID)
}

// Validate rejects structurally bad input before any persistence access.
func (r *CreateAllocationRequest) Validate() error {
	if r.BeneficiaryID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "beneficiary_id is required")
	}
	if r.Percentage == nil && r.Amount == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "one of percentage or amount is required")
	}
	if r.Percentage != nil && r.Amount != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "percentage and amount are mutually exclusive")
	}
	if r.Percentage != nil {
		if r.Percentage.Sign() <= 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "percentage must be greater than zero")
		}
		if r.Percentage.GreaterThan(Ceiling) {
			return dErrors.New(dErrors.CodeInvalidInput, "percentage cannot exceed 100")
		}
	}
	if r.Amount != nil && r.Amount.Sign() <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "amount must be greater than zero")
	}
	return nil
}
