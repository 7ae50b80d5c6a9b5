package handler

import (
	"time"

	"legatum/internal/allocation/models"
	"legatum/internal/allocation/reconcile"
	"legatum/internal/allocation/service"
)

// overviewResponse is the GET payload for one asset's ledger. Derived token
// amounts are computed server-side so thin clients never re-implement the
// percentage math.
type overviewResponse struct {
	AssetID             string               `json:"asset_id"`
	BalanceCrypto       string               `json:"balance_crypto"`
	BalanceUSD          string               `json:"balance_usd"`
	TotalPercentage     string               `json:"total_percentage"`
	RemainingPercentage string               `json:"remaining_percentage"`
	Allocations         []allocationResponse `json:"allocations"`
}

type allocationResponse struct {
	AllocationID       string     `json:"allocation_id"`
	BeneficiaryID      string     `json:"beneficiary_id"`
	Percentage         string     `json:"percentage"`
	AmountCrypto       string     `json:"amount_crypto"`
	DisbursementStatus string     `json:"disbursement_status"`
	MockTransactionID  string     `json:"mock_transaction_id,omitempty"`
	DisbursedAt        *time.Time `json:"disbursed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func newOverviewResponse(o *service.Overview) overviewResponse {
	resp := overviewResponse{
		AssetID:             o.Asset.ID.String(),
		BalanceCrypto:       o.Asset.BalanceCrypto.String(),
		BalanceUSD:          o.Asset.BalanceUSD.String(),
		TotalPercentage:     reconcile.RoundPercentage(o.Total).String(),
		RemainingPercentage: reconcile.RoundPercentage(o.Remaining).String(),
		Allocations:         make([]allocationResponse, 0, len(o.Allocations)),
	}
	for _, alloc := range o.Allocations {
		resp.Allocations = append(resp.Allocations, newAllocationResponse(alloc, o))
	}
	return resp
}

func newAllocationResponse(alloc *models.Allocation, o *service.Overview) allocationResponse {
	amount := reconcile.RoundAmount(reconcile.PercentageToAmount(alloc.Percentage, o.Asset.BalanceCrypto))
	return allocationResponse{
		AllocationID:       alloc.ID.String(),
		BeneficiaryID:      alloc.BeneficiaryID.String(),
		Percentage:         alloc.Percentage.String(),
		AmountCrypto:       amount.String(),
		DisbursementStatus: string(alloc.Status),
		MockTransactionID:  alloc.MockTransactionID,
		DisbursedAt:        alloc.DisbursedAt,
		CreatedAt:          alloc.CreatedAt,
	}
}
