// Package service manages designated recipients. Beneficiary status is
// advisory: revoking a beneficiary surfaces a warning in listings but never
// blocks or removes existing allocations.
package service

import (
	"context"
	"errors"
	"log/slog"

	"legatum/internal/beneficiary/models"
	id "legatum/pkg/domain"
	dErrors "legatum/pkg/domain-errors"
	"legatum/pkg/platform/audit"
	"legatum/pkg/platform/sentinel"
	"legatum/pkg/requestcontext"
)

// Store abstracts beneficiary persistence.
type Store interface {
	CreateIfEmailAvailable(ctx context.Context, b *models.Beneficiary) error
	FindByID(ctx context.Context, beneficiaryID id.BeneficiaryID) (*models.Beneficiary, error)
	List(ctx context.Context) ([]*models.Beneficiary, error)
	Execute(ctx context.Context, beneficiaryID id.BeneficiaryID, validate func(*models.Beneficiary) error, apply func(*models.Beneficiary) error) (*models.Beneficiary, error)
}

// Service orchestrates beneficiary management.
type Service struct {
	beneficiaries Store
	logger        *slog.Logger
	audit         audit.Publisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// New constructs a Service.
func New(beneficiaries Store, opts ...Option) *Service {
	s := &Service{beneficiaries: beneficiaries}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a new beneficiary. Email must be unique; the store enforces
// that atomically.
func (s *Service) Register(ctx context.Context, req *models.RegisterBeneficiaryRequest) (*models.Beneficiary, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b, err := models.NewBeneficiary(
		id.NewBeneficiaryID(),
		req.Email,
		req.FirstName,
		req.LastName,
		req.RelationshipType,
		req.PriorityLevel,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.beneficiaries.CreateIfEmailAvailable(ctx, b); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "a beneficiary with this email already exists").
				WithDetail("email", b.Email)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register beneficiary")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionBeneficiaryAdded, BeneficiaryID: b.ID})
	return b, nil
}

// Get fetches a beneficiary by id.
func (s *Service) Get(ctx context.Context, beneficiaryID id.BeneficiaryID) (*models.Beneficiary, error) {
	b, err := s.beneficiaries.FindByID(ctx, beneficiaryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "beneficiary not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load beneficiary")
	}
	return b, nil
}

// List returns all beneficiaries in registration order.
func (s *Service) List(ctx context.Context) ([]*models.Beneficiary, error) {
	out, err := s.beneficiaries.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list beneficiaries")
	}
	return out, nil
}

// Revoke flips the beneficiary to revoked. Allocations already made to the
// beneficiary are untouched.
func (s *Service) Revoke(ctx context.Context, beneficiaryID id.BeneficiaryID) (*models.Beneficiary, error) {
	now := requestcontext.Now(ctx)
	b, err := s.beneficiaries.Execute(ctx, beneficiaryID,
		func(b *models.Beneficiary) error {
			if b.Status == models.StatusRevoked {
				return dErrors.New(dErrors.CodeConflict, "beneficiary is already revoked")
			}
			return nil
		},
		func(b *models.Beneficiary) error { return b.Revoke(now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "beneficiary not found")
		}
		if _, ok := err.(*dErrors.Error); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke beneficiary")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionBeneficiaryRevoked, BeneficiaryID: b.ID})
	return b, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, event.Action,
			"beneficiary_id", event.BeneficiaryID.String(),
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
