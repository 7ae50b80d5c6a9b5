// Package service orchestrates crypto asset snapshot lifecycle: register,
// fetch, and balance refresh. The allocation subsystem consumes assets through
// this service and never mutates them.
package service

import (
	"context"
	"errors"
	"log/slog"

	"legatum/internal/asset/models"
	id "legatum/pkg/domain"
	dErrors "legatum/pkg/domain-errors"
	"legatum/pkg/platform/audit"
	"legatum/pkg/platform/sentinel"
	"legatum/pkg/requestcontext"
)

// Store abstracts asset persistence.
type Store interface {
	Create(ctx context.Context, asset *models.CryptoAsset) error
	FindByID(ctx context.Context, assetID id.AssetID) (*models.CryptoAsset, error)
	Execute(ctx context.Context, assetID id.AssetID, validate func(*models.CryptoAsset) error, apply func(*models.CryptoAsset)) (*models.CryptoAsset, error)
}

// Service orchestrates asset management.
type Service struct {
	assets Store
	logger *slog.Logger
	audit  audit.Publisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// New constructs a Service.
func New(assets Store, opts ...Option) *Service {
	s := &Service{assets: assets}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register records a new wallet snapshot.
func (s *Service) Register(ctx context.Context, req *models.RegisterAssetRequest) (*models.CryptoAsset, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	asset, err := models.NewCryptoAsset(
		id.NewAssetID(),
		models.WalletType(req.WalletType),
		req.WalletAddress,
		req.BalanceCrypto,
		req.BalanceUSD,
		requestcontext.Now(ctx),
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register asset")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionAssetRegistered, AssetID: asset.ID})
	return asset, nil
}

// Get fetches a wallet snapshot by id.
func (s *Service) Get(ctx context.Context, assetID id.AssetID) (*models.CryptoAsset, error) {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "asset not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load asset")
	}
	return asset, nil
}

// UpdateBalance refreshes the snapshot from the owning collaborator.
// Uses the Execute callback pattern so validate and apply run under the
// store's lock.
func (s *Service) UpdateBalance(ctx context.Context, assetID id.AssetID, req *models.UpdateBalanceRequest) (*models.CryptoAsset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	asset, err := s.assets.Execute(ctx, assetID,
		func(a *models.CryptoAsset) error { return nil },
		func(a *models.CryptoAsset) {
			// Validated above; ApplyBalance cannot fail on non-negative inputs.
			_ = a.ApplyBalance(req.BalanceCrypto, req.BalanceUSD, now)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "asset not found")
		}
		if _, ok := err.(*dErrors.Error); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update balance")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionBalanceUpdated, AssetID: asset.ID})
	return asset, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, event.Action,
			"asset_id", event.AssetID.String(),
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
