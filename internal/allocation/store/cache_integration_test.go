//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"legatum/internal/allocation/models"
	"legatum/internal/allocation/store"
	id "legatum/pkg/domain"
	"legatum/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	inner *store.InMemory
	store *store.Cached
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.redis.FlushAll(ctx))
	s.inner = store.NewInMemory()
	s.store = store.NewCached(s.inner, s.redis.Client)
}

func (s *CachedStoreSuite) newAllocation(assetID id.AssetID, percentage string) *models.Allocation {
	return &models.Allocation{
		ID:            id.NewAllocationID(),
		AssetID:       assetID,
		BeneficiaryID: id.NewBeneficiaryID(),
		Percentage:    decimal.RequireFromString(percentage),
		Status:        models.DisbursementPending,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

// TestReadThrough verifies the list is served from cache after the first read.
func (s *CachedStoreSuite) TestReadThrough() {
	ctx := context.Background()
	assetID := id.NewAssetID()
	alloc := s.newAllocation(assetID, "25")
	s.Require().NoError(s.store.CreateIfWithinCapacity(ctx, alloc))

	first, err := s.store.ListByAsset(ctx, assetID)
	s.Require().NoError(err)
	s.Require().Len(first, 1)

	exists, err := s.redis.Client.Exists(ctx, "legatum:allocations:"+assetID.String()).Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists, "list should be cached after a read")

	second, err := s.store.ListByAsset(ctx, assetID)
	s.Require().NoError(err)
	s.Require().Len(second, 1)
	s.Equal(alloc.ID, second[0].ID)
	s.True(second[0].Percentage.Equal(alloc.Percentage))
}

// TestMutationsInvalidate verifies create, delete, and disburse drop the entry.
func (s *CachedStoreSuite) TestMutationsInvalidate() {
	ctx := context.Background()
	assetID := id.NewAssetID()
	key := "legatum:allocations:" + assetID.String()

	first := s.newAllocation(assetID, "30")
	s.Require().NoError(s.store.CreateIfWithinCapacity(ctx, first))
	_, err := s.store.ListByAsset(ctx, assetID)
	s.Require().NoError(err)

	s.Require().NoError(s.store.CreateIfWithinCapacity(ctx, s.newAllocation(assetID, "20")))
	exists, err := s.redis.Client.Exists(ctx, key).Result()
	s.Require().NoError(err)
	s.Equal(int64(0), exists, "create should invalidate the cached list")

	listed, err := s.store.ListByAsset(ctx, assetID)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)

	s.Require().NoError(s.store.Delete(ctx, first.ID))
	exists, err = s.redis.Client.Exists(ctx, key).Result()
	s.Require().NoError(err)
	s.Equal(int64(0), exists, "delete should invalidate the cached list")

	listed, err = s.store.ListByAsset(ctx, assetID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
}

// TestCorruptEntryFallsThrough verifies a bad cache entry is dropped and the
// authoritative store answers.
func (s *CachedStoreSuite) TestCorruptEntryFallsThrough() {
	ctx := context.Background()
	assetID := id.NewAssetID()
	key := "legatum:allocations:" + assetID.String()

	s.Require().NoError(s.store.CreateIfWithinCapacity(ctx, s.newAllocation(assetID, "10")))
	s.Require().NoError(s.redis.Client.Set(ctx, key, "not-json", 0).Err())

	listed, err := s.store.ListByAsset(ctx, assetID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
}
