package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"legatum/internal/allocation/models"
	allocstore "legatum/internal/allocation/store"
	assetmodels "legatum/internal/asset/models"
	assetservice "legatum/internal/asset/service"
	assetstore "legatum/internal/asset/store"
	id "legatum/pkg/domain"
	dErrors "legatum/pkg/domain-errors"
	"legatum/pkg/platform/audit"
)

// =============================================================================
// Allocation Service Test Suite
// =============================================================================
// Justification for unit tests: the ledger's capacity ceiling, amount mode
// reconciliation, and rejection feedback are the system's hard correctness
// properties; exercising them precisely requires controlled balances that E2E
// flows make awkward.

type AllocationServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *allocstore.InMemory
	assets  *assetservice.Service
	service *Service
	sink    *audit.Memory
}

func TestAllocationServiceSuite(t *testing.T) {
	suite.Run(t, new(AllocationServiceSuite))
}

func (s *AllocationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = allocstore.NewInMemory()
	s.assets = assetservice.New(assetstore.NewInMemory())
	s.sink = audit.NewMemory()
	s.service = New(s.store, s.assets, WithAuditPublisher(s.sink))
}

func (s *AllocationServiceSuite) registerAsset(balanceCrypto, balanceUSD string) id.AssetID {
	asset, err := s.assets.Register(s.ctx, &assetmodels.RegisterAssetRequest{
		WalletType:    "bitcoin",
		WalletAddress: "bc1q-test-" + id.NewAssetID().String(),
		BalanceCrypto: decimal.RequireFromString(balanceCrypto),
		BalanceUSD:    decimal.RequireFromString(balanceUSD),
	})
	s.Require().NoError(err)
	return asset.ID
}

func (s *AllocationServiceSuite) addPercentage(assetID id.AssetID, percentage string) (*models.Allocation, error) {
	p := decimal.RequireFromString(percentage)
	return s.service.AddAllocation(s.ctx, assetID, &models.CreateAllocationRequest{BeneficiaryID: id.NewBeneficiaryID().String(), Percentage: &p})
}

// =============================================================================
// Percentage Mode
// =============================================================================

func (s *AllocationServiceSuite) TestAddAllocationPercentageMode() {
	s.Run("accepts a valid percentage and returns the record", func() {
		assetID := s.registerAsset("10", "1000")
		p := decimal.RequireFromString("25")
		alloc, err := s.service.AddAllocation(s.ctx, assetID, &models.CreateAllocationRequest{
			BeneficiaryID: id.NewBeneficiaryID().String(),
			Percentage:    &p,
		})
		s.Require().NoError(err)
		s.True(alloc.Percentage.Equal(p))
	})

	s.Run("rejects zero percentage", func() {
		assetID := s.registerAsset("10", "1000")
		p := decimal.Zero
		_, err := s.service.AddAllocation(s.ctx, assetID, &models.CreateAllocationRequest{
			BeneficiaryID: id.NewBeneficiaryID().String(),
			Percentage:    &p,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects percentage above 100", func() {
		assetID := s.registerAsset("10", "1000")
		p := decimal.RequireFromString("100.5")
		_, err := s.service.AddAllocation(s.ctx, assetID, &models.CreateAllocationRequest{
			BeneficiaryID: id.NewBeneficiaryID().String(),
			Percentage:    &p,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects unknown asset with NotFound", func() {
		p := decimal.RequireFromString("10")
		_, err := s.service.AddAllocation(s.ctx, id.NewAssetID(), &models.CreateAllocationRequest{
			BeneficiaryID: id.NewBeneficiaryID().String(),
			Percentage:    &p,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("requires exactly one of percentage and amount", func() {
		assetID := s.registerAsset("10", "1000")
		p := decimal.RequireFromString("10")
		a := decimal.RequireFromString("1")

		_, err := s.service.AddAllocation(s.ctx, assetID, &models.CreateAllocationRequest{
			BeneficiaryID: id.NewBeneficiaryID().String(),
		})
		s.Require().Error(err)

		_, err = s.service.AddAllocation(s.ctx, assetID, &models.CreateAllocationRequest{
			BeneficiaryID: id.NewBeneficiaryID().String(),
			Percentage:    &p,
			Amount:        &a,
		})
		s.Require().Error(err)
	})
}

// =============================================================================
// Capacity Ceiling
// =============================================================================

func (s *AllocationServiceSuite) TestCapacityCeiling() {
	s.Run("rejection carries remaining percentage", func() {
		assetID := s.registerAsset("10", "1000")
		_, err := s.addPercentage(assetID, "60")
		s.Require().NoError(err)

		_, err = s.addPercentage(assetID, "40.01")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCapacity))
		s.Equal("40", dErrors.DetailsOf(err)["remaining_percentage"])
	})

	s.Run("exact 100 fills the asset", func() {
		assetID := s.registerAsset("10", "1000")
		_, err := s.addPercentage(assetID, "60")
		s.Require().NoError(err)
		_, err = s.addPercentage(assetID, "40")
		s.Require().NoError(err)

		total, err := s.service.TotalAllocated(s.ctx, assetID)
		s.Require().NoError(err)
		s.True(total.Equal(decimal.NewFromInt(100)))
	})

	s.Run("removal frees capacity without renormalizing", func() {
		assetID := s.registerAsset("10", "1000")
		first, err := s.addPercentage(assetID, "70")
		s.Require().NoError(err)
		_, err = s.addPercentage(assetID, "40")
		s.Require().Error(err)

		s.Require().NoError(s.service.RemoveAllocation(s.ctx, first.ID))

		_, err = s.addPercentage(assetID, "40")
		s.Require().NoError(err)

		total, err := s.service.TotalAllocated(s.ctx, assetID)
		s.Require().NoError(err)
		s.True(total.Equal(decimal.NewFromInt(40)))
	})
}

// =============================================================================
// Amount Mode and the Worked Scenario
// =============================================================================

func (s *AllocationServiceSuite) TestAmountMode() {
	s.Run("ledger on a 10.0 balance: 25% then 5.0 then a rejected 30%", func() {
		assetID := s.registerAsset("10.0", "250000")

		// Beneficiary A: 25% of 10.0 is an implied 2.5.
		a, err := s.addPercentage(assetID, "25")
		s.Require().NoError(err)
		s.True(a.Percentage.Equal(decimal.RequireFromString("25")))

		// Beneficiary B: amount 5.0 converts to 50%.
		amount := decimal.RequireFromString("5.0")
		b, err := s.service.AddAllocation(s.ctx, assetID, &models.CreateAllocationRequest{
			BeneficiaryID: id.NewBeneficiaryID().String(),
			Amount:        &amount,
		})
		s.Require().NoError(err)
		s.True(b.Percentage.Equal(decimal.RequireFromString("50")), "got %s", b.Percentage)

		// Beneficiary C: 30% would take the total to 105.
		_, err = s.addPercentage(assetID, "30")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCapacity))
		s.Equal("25", dErrors.DetailsOf(err)["remaining_percentage"])
	})

	s.Run("rejects amount mode on a zero balance", func() {
		assetID := s.registerAsset("0", "0")
		amount := decimal.RequireFromString("1")
		_, err := s.service.AddAllocation(s.ctx, assetID, &models.CreateAllocationRequest{
			BeneficiaryID: id.NewBeneficiaryID().String(),
			Amount:        &amount,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects amount above the balance", func() {
		assetID := s.registerAsset("10", "1000")
		amount := decimal.RequireFromString("10.5")
		_, err := s.service.AddAllocation(s.ctx, assetID, &models.CreateAllocationRequest{
			BeneficiaryID: id.NewBeneficiaryID().String(),
			Amount:        &amount,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rounds derived percentages to two decimals", func() {
		assetID := s.registerAsset("3", "300")
		amount := decimal.RequireFromString("1")
		alloc, err := s.service.AddAllocation(s.ctx, assetID, &models.CreateAllocationRequest{
			BeneficiaryID: id.NewBeneficiaryID().String(),
			Amount:        &amount,
		})
		s.Require().NoError(err)
		s.True(alloc.Percentage.Equal(decimal.RequireFromString("33.33")), "got %s", alloc.Percentage)
	})
}

// =============================================================================
// Duplicates and Removal
// =============================================================================

func (s *AllocationServiceSuite) TestDuplicatesAndRemoval() {
	s.Run("second allocation for the same beneficiary conflicts", func() {
		assetID := s.registerAsset("10", "1000")
		beneficiary := id.NewBeneficiaryID()
		p := decimal.RequireFromString("10")

		_, err := s.service.AddAllocation(s.ctx, assetID, &models.CreateAllocationRequest{
			BeneficiaryID: beneficiary.String(), Percentage: &p,
		})
		s.Require().NoError(err)

		_, err = s.service.AddAllocation(s.ctx, assetID, &models.CreateAllocationRequest{
			BeneficiaryID: beneficiary.String(), Percentage: &p,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("removing an unknown allocation is NotFound", func() {
		err := s.service.RemoveAllocation(s.ctx, id.NewAllocationID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Disbursement
// =============================================================================

func (s *AllocationServiceSuite) TestDisburse() {
	s.Run("stamps amounts and freezes allocations", func() {
		assetID := s.registerAsset("10", "250000")
		first, err := s.addPercentage(assetID, "25")
		s.Require().NoError(err)
		_, err = s.addPercentage(assetID, "50")
		s.Require().NoError(err)

		out, err := s.service.Disburse(s.ctx, assetID)
		s.Require().NoError(err)
		s.Require().Len(out, 2)
		s.True(out[0].AllocatedAmountCrypto.Equal(decimal.RequireFromString("2.5")), "got %s", out[0].AllocatedAmountCrypto)
		s.True(out[0].AllocatedAmountUSD.Equal(decimal.RequireFromString("62500")))
		s.Regexp(`^MOCK-[0-9a-f]{16}$`, out[0].MockTransactionID)

		err = s.service.RemoveAllocation(s.ctx, first.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("repeat disbursement leaves frozen snapshots intact", func() {
		assetID := s.registerAsset("10", "1000")
		_, err := s.addPercentage(assetID, "40")
		s.Require().NoError(err)

		first, err := s.service.Disburse(s.ctx, assetID)
		s.Require().NoError(err)

		s.assets.UpdateBalance(s.ctx, assetID, &assetmodels.UpdateBalanceRequest{
			BalanceCrypto: decimal.RequireFromString("99"),
			BalanceUSD:    decimal.RequireFromString("9900"),
		})

		again, err := s.service.Disburse(s.ctx, assetID)
		s.Require().NoError(err)
		s.True(again[0].AllocatedAmountCrypto.Equal(first[0].AllocatedAmountCrypto))
		s.Equal(first[0].MockTransactionID, again[0].MockTransactionID)
	})
}

// =============================================================================
// Audit Trail
// =============================================================================

func (s *AllocationServiceSuite) TestAuditEvents() {
	assetID := s.registerAsset("10", "1000")
	_, err := s.addPercentage(assetID, "90")
	s.Require().NoError(err)
	_, err = s.addPercentage(assetID, "20")
	s.Require().Error(err)

	var actions []string
	for _, e := range s.sink.Events() {
		actions = append(actions, e.Action)
	}
	s.Contains(actions, audit.ActionAllocationCreated)
	s.Contains(actions, audit.ActionAllocationRejected)
}
