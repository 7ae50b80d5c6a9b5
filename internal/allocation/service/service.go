// Package service orchestrates the allocation ledger: it owns the set of
// allocation records per asset, enforces the 100% ceiling, and reconciles
// amount-mode input to percentages before anything touches the store.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	allocmetrics "legatum/internal/allocation/metrics"
	"legatum/internal/allocation/models"
	"legatum/internal/allocation/reconcile"
	assetmodels "legatum/internal/asset/models"
	id "legatum/pkg/domain"
	dErrors "legatum/pkg/domain-errors"
	"legatum/pkg/platform/audit"
	"legatum/pkg/platform/sentinel"
	"legatum/pkg/requestcontext"
)

// Store abstracts allocation persistence. Implementations must run the
// duplicate and capacity checks atomically with the insert, serialized per
// asset.
type Store interface {
	CreateIfWithinCapacity(ctx context.Context, alloc *models.Allocation) error
	ListByAsset(ctx context.Context, assetID id.AssetID) ([]*models.Allocation, error)
	TotalByAsset(ctx context.Context, assetID id.AssetID) (decimal.Decimal, error)
	FindByID(ctx context.Context, allocationID id.AllocationID) (*models.Allocation, error)
	Delete(ctx context.Context, allocationID id.AllocationID) error
	DisburseAsset(ctx context.Context, assetID id.AssetID, apply func(*models.Allocation)) ([]*models.Allocation, error)
}

// AssetDirectory is the seam to the asset collaborator. The ledger reads
// balances through it and never writes.
type AssetDirectory interface {
	Get(ctx context.Context, assetID id.AssetID) (*assetmodels.CryptoAsset, error)
}

// Service is the allocation ledger plus input reconciliation.
type Service struct {
	allocations Store
	assets      AssetDirectory
	logger      *slog.Logger
	audit       audit.Publisher
	metrics     *allocmetrics.Metrics
	tracer      trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *allocmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the ledger service.
func New(allocations Store, assets AssetDirectory, opts ...Option) *Service {
	s := &Service{
		allocations: allocations,
		assets:      assets,
		tracer:      otel.Tracer("legatum/allocation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Overview is the read model for one asset's ledger: the allocations in
// creation order plus the derived totals thin clients render directly.
type Overview struct {
	Asset       *assetmodels.CryptoAsset
	Allocations []*models.Allocation
	Total       decimal.Decimal
	Remaining   decimal.Decimal
}

// ListAllocations returns the asset's ledger with derived totals. Fails with
// NotFound when the asset does not exist.
func (s *Service) ListAllocations(ctx context.Context, assetID id.AssetID) (*Overview, error) {
	asset, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}

	allocations, err := s.allocations.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
	}

	total := decimal.Zero
	for _, alloc := range allocations {
		total = total.Add(alloc.Percentage)
	}
	return &Overview{
		Asset:       asset,
		Allocations: allocations,
		Total:       total,
		Remaining:   models.RemainingCapacity(total),
	}, nil
}

// TotalAllocated returns the summed percentage for the asset; zero when no
// allocations exist.
func (s *Service) TotalAllocated(ctx context.Context, assetID id.AssetID) (decimal.Decimal, error) {
	total, err := s.allocations.TotalByAsset(ctx, assetID)
	if err != nil {
		return decimal.Zero, dErrors.Wrap(err, dErrors.CodeInternal, "failed to total allocations")
	}
	return total, nil
}

// AddAllocation validates a candidate, reconciles amount-mode input against
// the asset's balance, and commits it if the ceiling allows. All validation
// happens before the write; the store applies the capacity and duplicate
// checks atomically under the per-asset lock.
func (s *Service) AddAllocation(ctx context.Context, assetID id.AssetID, req *models.CreateAllocationRequest) (*models.Allocation, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "AddAllocation",
		trace.WithAttributes(attribute.String("asset_id", assetID.String())))
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		s.incrementRejected("invalid_input")
		return nil, err
	}

	beneficiaryID, err := id.ParseBeneficiaryID(req.BeneficiaryID)
	if err != nil {
		s.incrementRejected("invalid_input")
		return nil, err
	}

	asset, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}

	percentage, err := s.resolvePercentage(req, asset)
	if err != nil {
		s.incrementRejected("zero_balance")
		return nil, err
	}

	alloc, err := models.NewAllocation(id.NewAllocationID(), assetID, beneficiaryID, percentage, requestcontext.Now(ctx))
	if err != nil {
		s.incrementRejected("invalid_input")
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.allocations.CreateIfWithinCapacity(ctx, alloc); err != nil {
		return nil, s.mapCreateError(ctx, err, alloc)
	}

	s.emit(ctx, audit.Event{
		Action:        audit.ActionAllocationCreated,
		AssetID:       assetID,
		BeneficiaryID: beneficiaryID,
		AllocationID:  alloc.ID,
		Percentage:    alloc.Percentage.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementCreated()
		s.metrics.ObserveAdd(start)
	}
	return alloc, nil
}

// resolvePercentage normalizes the candidate to a percentage, converting
// amount-mode input against the balance snapshot. Derived percentages are
// rounded once here; the store receives exactly what it will persist.
func (s *Service) resolvePercentage(req *models.CreateAllocationRequest, asset *assetmodels.CryptoAsset) (decimal.Decimal, error) {
	if req.Percentage != nil {
		return *req.Percentage, nil
	}
	percentage, err := reconcile.AmountToPercentage(*req.Amount, asset.BalanceCrypto)
	if err != nil {
		return decimal.Zero, err
	}
	percentage = reconcile.RoundPercentage(percentage)
	if percentage.Sign() <= 0 {
		return decimal.Zero, dErrors.New(dErrors.CodeValidation, "amount is too small to represent as a percentage")
	}
	if percentage.GreaterThan(models.Ceiling) {
		return decimal.Zero, dErrors.New(dErrors.CodeValidation, "amount exceeds the asset balance")
	}
	return percentage, nil
}

func (s *Service) mapCreateError(ctx context.Context, err error, alloc *models.Allocation) error {
	var capErr *models.CapacityError
	switch {
	case errors.As(err, &capErr):
		s.incrementRejected("capacity")
		s.emit(ctx, audit.Event{
			Action:        audit.ActionAllocationRejected,
			AssetID:       alloc.AssetID,
			BeneficiaryID: alloc.BeneficiaryID,
			Percentage:    alloc.Percentage.String(),
			Reason:        "capacity_exceeded",
		})
		return dErrors.New(dErrors.CodeCapacity, "allocation exceeds remaining capacity").
			WithDetail("remaining_percentage", capErr.Remaining.String())
	case errors.Is(err, sentinel.ErrDuplicate):
		s.incrementRejected("duplicate")
		return dErrors.New(dErrors.CodeConflict, "beneficiary already has an allocation on this asset").
			WithDetail("beneficiary_id", alloc.BeneficiaryID.String())
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "asset not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create allocation")
	}
}

// RemoveAllocation deletes an allocation outright, freeing its percentage for
// reallocation. Surviving allocations are never renormalized: freed capacity
// becomes unallocated.
func (s *Service) RemoveAllocation(ctx context.Context, allocationID id.AllocationID) error {
	ctx, span := s.tracer.Start(ctx, "RemoveAllocation",
		trace.WithAttributes(attribute.String("allocation_id", allocationID.String())))
	defer span.End()

	if err := s.allocations.Delete(ctx, allocationID); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "allocation not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeConflict, "allocation has already been disbursed")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove allocation")
		}
	}

	s.emit(ctx, audit.Event{Action: audit.ActionAllocationRemoved, AllocationID: allocationID})
	if s.metrics != nil {
		s.metrics.IncrementRemoved()
	}
	return nil
}

// Disburse releases every pending allocation of the asset: amounts are
// derived from the balance snapshot, a mock transaction id is stamped, and
// the allocation is frozen. Already-disbursed allocations are untouched, so
// the operation is idempotent per allocation.
func (s *Service) Disburse(ctx context.Context, assetID id.AssetID) ([]*models.Allocation, error) {
	ctx, span := s.tracer.Start(ctx, "Disburse",
		trace.WithAttributes(attribute.String("asset_id", assetID.String())))
	defer span.End()

	asset, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	allocations, err := s.allocations.DisburseAsset(ctx, assetID, func(alloc *models.Allocation) {
		alloc.MarkDisbursed(asset.BalanceCrypto, asset.BalanceUSD, models.NewMockTransactionID(), now)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "asset not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to disburse asset")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionAssetDisbursed, AssetID: assetID})
	if s.metrics != nil {
		s.metrics.IncrementDisbursements()
	}
	return allocations, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, event.Action,
			"asset_id", event.AssetID.String(),
			"allocation_id", event.AllocationID.String(),
			"request_id", event.RequestID,
			"log_type", "audit",
		)
	}
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}

func (s *Service) incrementRejected(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementRejected(reason)
	}
}
