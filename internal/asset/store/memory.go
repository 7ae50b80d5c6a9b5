// Package store persists crypto asset snapshots. The in-memory implementation
// backs unit tests and local development; PostgresStore is the production
// backend.
package store

import (
	"context"
	"sync"

	"legatum/internal/asset/models"
	id "legatum/pkg/domain"
	"legatum/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded asset store.
type InMemory struct {
	mu     sync.RWMutex
	assets map[id.AssetID]*models.CryptoAsset
}

// NewInMemory constructs an empty in-memory asset store.
func NewInMemory() *InMemory {
	return &InMemory{assets: make(map[id.AssetID]*models.CryptoAsset)}
}

func (s *InMemory) Create(ctx context.Context, asset *models.CryptoAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[asset.ID]; ok {
		return sentinel.ErrDuplicate
	}
	cp := *asset
	s.assets[asset.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, assetID id.AssetID) (*models.CryptoAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.assets[assetID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *asset
	return &cp, nil
}

// Execute atomically validates and mutates an asset under the store lock.
func (s *InMemory) Execute(ctx context.Context, assetID id.AssetID, validate func(*models.CryptoAsset) error, apply func(*models.CryptoAsset)) (*models.CryptoAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	asset, ok := s.assets[assetID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(asset); err != nil {
		return nil, err
	}
	apply(asset)
	cp := *asset
	return &cp, nil
}
