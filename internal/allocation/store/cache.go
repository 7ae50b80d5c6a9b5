package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"legatum/internal/allocation/models"
	id "legatum/pkg/domain"
)

// listTTL bounds staleness if an invalidation is ever lost. The cache is a
// read-through convenience; correctness always comes from the inner store.
const listTTL = 5 * time.Minute

// Cached decorates a store with a Redis read-through cache on the list path.
// Mutations invalidate the asset's entry. Cache failures degrade to the inner
// store silently: a broken cache must never break the ledger.
type Cached struct {
	inner Inner
	rdb   *redis.Client
}

// Inner is the store contract Cached wraps; it matches service.Store.
type Inner interface {
	CreateIfWithinCapacity(ctx context.Context, alloc *models.Allocation) error
	ListByAsset(ctx context.Context, assetID id.AssetID) ([]*models.Allocation, error)
	TotalByAsset(ctx context.Context, assetID id.AssetID) (decimal.Decimal, error)
	FindByID(ctx context.Context, allocationID id.AllocationID) (*models.Allocation, error)
	Delete(ctx context.Context, allocationID id.AllocationID) error
	DisburseAsset(ctx context.Context, assetID id.AssetID, apply func(*models.Allocation)) ([]*models.Allocation, error)
}

// NewCached wraps inner with a Redis list cache.
func NewCached(inner Inner, rdb *redis.Client) *Cached {
	return &Cached{inner: inner, rdb: rdb}
}

func listKey(assetID id.AssetID) string {
	return "legatum:allocations:" + assetID.String()
}

func (c *Cached) ListByAsset(ctx context.Context, assetID id.AssetID) ([]*models.Allocation, error) {
	key := listKey(assetID)
	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached []*models.Allocation
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		c.rdb.Del(ctx, key)
	}

	allocations, err := c.inner.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(allocations); err == nil {
		c.rdb.Set(ctx, key, raw, listTTL)
	}
	return allocations, nil
}

func (c *Cached) CreateIfWithinCapacity(ctx context.Context, alloc *models.Allocation) error {
	if err := c.inner.CreateIfWithinCapacity(ctx, alloc); err != nil {
		return err
	}
	c.rdb.Del(ctx, listKey(alloc.AssetID))
	return nil
}

func (c *Cached) TotalByAsset(ctx context.Context, assetID id.AssetID) (decimal.Decimal, error) {
	// Totals gate the capacity invariant; always read the authoritative store.
	return c.inner.TotalByAsset(ctx, assetID)
}

func (c *Cached) FindByID(ctx context.Context, allocationID id.AllocationID) (*models.Allocation, error) {
	return c.inner.FindByID(ctx, allocationID)
}

func (c *Cached) Delete(ctx context.Context, allocationID id.AllocationID) error {
	alloc, err := c.inner.FindByID(ctx, allocationID)
	if err != nil {
		return err
	}
	if err := c.inner.Delete(ctx, allocationID); err != nil {
		return err
	}
	c.rdb.Del(ctx, listKey(alloc.AssetID))
	return nil
}

func (c *Cached) DisburseAsset(ctx context.Context, assetID id.AssetID, apply func(*models.Allocation)) ([]*models.Allocation, error) {
	allocations, err := c.inner.DisburseAsset(ctx, assetID, apply)
	if err != nil {
		return nil, err
	}
	c.rdb.Del(ctx, listKey(assetID))
	return allocations, nil
}
