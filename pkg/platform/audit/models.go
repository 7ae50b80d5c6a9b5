// Package audit captures the estate-planning actions that matter after the
// fact: who allocated what to whom, and when funds were released. Events are
// transport-agnostic so sinks can fan out.
package audit

import (
	"time"

	id "legatum/pkg/domain"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	Timestamp     time.Time
	Action        string
	AssetID       id.AssetID
	BeneficiaryID id.BeneficiaryID
	AllocationID  id.AllocationID
	// Percentage is the decimal string of the share involved, when relevant.
	Percentage string
	// Reason records why a rejected action was rejected.
	Reason string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}

// Actions emitted by the allocation subsystem. Estate disputes hinge on this
// trail, so additions are append-only: never rename a published action.
const (
	ActionAllocationCreated  = "allocation_created"
	ActionAllocationRejected = "allocation_rejected"
	ActionAllocationRemoved  = "allocation_removed"
	ActionAssetDisbursed     = "asset_disbursed"
	ActionAssetRegistered    = "asset_registered"
	ActionBalanceUpdated     = "balance_updated"
	ActionBeneficiaryAdded   = "beneficiary_added"
	ActionBeneficiaryRevoked = "beneficiary_revoked"
)
