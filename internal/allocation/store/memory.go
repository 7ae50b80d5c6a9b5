// Package store persists allocations. Both implementations enforce the same
// contract: the capacity and duplicate checks run atomically with the insert,
// serialized per asset, so two concurrent adds can never jointly exceed the
// ceiling.
package store

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"legatum/internal/allocation/models"
	id "legatum/pkg/domain"
	"legatum/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded allocation store. The lock is held across the
// read-sum-insert sequence, which is the per-asset serialization guarantee.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.AllocationID]*models.Allocation
	byAsset map[id.AssetID][]id.AllocationID // creation order
}

// NewInMemory constructs an empty in-memory allocation store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.AllocationID]*models.Allocation),
		byAsset: make(map[id.AssetID][]id.AllocationID),
	}
}

// CreateIfWithinCapacity inserts the allocation if the beneficiary is not
// already allocated on the asset and the running total stays within the
// ceiling. Returns sentinel.ErrDuplicate or *models.CapacityError on
// rejection.
func (s *InMemory) CreateIfWithinCapacity(ctx context.Context, alloc *models.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, allocID := range s.byAsset[alloc.AssetID] {
		existing := s.byID[allocID]
		if existing.BeneficiaryID == alloc.BeneficiaryID {
			return sentinel.ErrDuplicate
		}
		total = total.Add(existing.Percentage)
	}

	if !models.FitsWithin(total, alloc.Percentage) {
		return &models.CapacityError{Remaining: models.RemainingCapacity(total)}
	}

	cp := *alloc
	s.byID[alloc.ID] = &cp
	s.byAsset[alloc.AssetID] = append(s.byAsset[alloc.AssetID], alloc.ID)
	return nil
}

// ListByAsset returns the asset's allocations in creation order.
func (s *InMemory) ListByAsset(ctx context.Context, assetID id.AssetID) ([]*models.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byAsset[assetID]
	out := make([]*models.Allocation, 0, len(ids))
	for _, allocID := range ids {
		cp := *s.byID[allocID]
		out = append(out, &cp)
	}
	return out, nil
}

// TotalByAsset sums the allocated percentage for the asset; zero when none.
func (s *InMemory) TotalByAsset(ctx context.Context, assetID id.AssetID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, allocID := range s.byAsset[assetID] {
		total = total.Add(s.byID[allocID].Percentage)
	}
	return total, nil
}

// FindByID returns one allocation.
func (s *InMemory) FindByID(ctx context.Context, allocationID id.AllocationID) (*models.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alloc, ok := s.byID[allocationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *alloc
	return &cp, nil
}

// Delete removes an allocation outright, freeing its percentage. Disbursed
// allocations are frozen and return sentinel.ErrInvalidState.
func (s *InMemory) Delete(ctx context.Context, allocationID id.AllocationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alloc, ok := s.byID[allocationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if alloc.IsDisbursed() {
		return sentinel.ErrInvalidState
	}

	delete(s.byID, allocationID)
	ids := s.byAsset[alloc.AssetID]
	for i, aid := range ids {
		if aid == allocationID {
			s.byAsset[alloc.AssetID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// DisburseAsset applies the disbursement mutation to every not-yet-disbursed
// allocation of the asset under the store lock, and returns all allocations
// in creation order.
func (s *InMemory) DisburseAsset(ctx context.Context, assetID id.AssetID, apply func(*models.Allocation)) ([]*models.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byAsset[assetID]
	out := make([]*models.Allocation, 0, len(ids))
	for _, allocID := range ids {
		alloc := s.byID[allocID]
		if !alloc.IsDisbursed() {
			apply(alloc)
		}
		cp := *alloc
		out = append(out, &cp)
	}
	return out, nil
}
