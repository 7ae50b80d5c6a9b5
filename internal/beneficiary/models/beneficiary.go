package models

import (
	"strings"
	"time"

	id "legatum/pkg/domain"
	dErrors "legatum/pkg/domain-errors"
)

// Status tracks whether a beneficiary can still receive releases.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusRevoked  Status = "revoked"
)

// Beneficiary is a designated recipient. The allocation ledger references
// beneficiaries by id only; status is presentation metadata (a warning badge),
// never a hard allocation precondition.
type Beneficiary struct {
	ID               id.BeneficiaryID `json:"beneficiary_id"`
	Email            string           `json:"email"`
	FirstName        string           `json:"first_name"`
	LastName         string           `json:"last_name"`
	RelationshipType string           `json:"relationship_type"`
	PriorityLevel    int              `json:"priority_level"`
	Status           Status           `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewBeneficiary constructs an active beneficiary. Email is the only required
// contact field.
func NewBeneficiary(beneficiaryID id.BeneficiaryID, email, firstName, lastName, relationship string, priority int, now time.Time) (*Beneficiary, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email cannot be empty")
	}
	return &Beneficiary{
		ID:               beneficiaryID,
		Email:            email,
		FirstName:        firstName,
		LastName:         lastName,
		RelationshipType: relationship,
		PriorityLevel:    priority,
		Status:           StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Revoke marks the beneficiary as revoked. Existing allocations survive;
// callers show the badge and decide whether to reallocate.
func (b *Beneficiary) Revoke(now time.Time) error {
	if b.Status == StatusRevoked {
		return dErrors.New(dErrors.CodeInvariantViolation, "beneficiary is already revoked")
	}
	b.Status = StatusRevoked
	b.UpdatedAt = now
	return nil
}

// RegisterBeneficiaryRequest is the POST body for adding a beneficiary.
type RegisterBeneficiaryRequest struct {
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	RelationshipType string `json:"relationship_type"`
	PriorityLevel    int    `json:"priority_level"`
}

func (r *RegisterBeneficiaryRequest) Normalize() {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.RelationshipType = strings.TrimSpace(r.RelationshipType)
}

func (r *RegisterBeneficiaryRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	if !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeInvalidInput, "email is not valid")
	}
	if r.PriorityLevel < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "priority_level cannot be negative")
	}
	return nil
}
