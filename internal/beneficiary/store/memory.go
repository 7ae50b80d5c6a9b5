package store

import (
	"context"
	"sync"

	"legatum/internal/beneficiary/models"
	id "legatum/pkg/domain"
	"legatum/pkg/platform/sentinel"
)

// InMemory keeps beneficiaries in a map guarded by a mutex. Used by tests and
// by deployments that run without a database.
type InMemory struct {
	mu      sync.Mutex
	byID    map[id.BeneficiaryID]*models.Beneficiary
	byEmail map[string]id.BeneficiaryID
	order   []id.BeneficiaryID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.BeneficiaryID]*models.Beneficiary),
		byEmail: make(map[string]id.BeneficiaryID),
	}
}

// CreateIfEmailAvailable inserts the beneficiary unless the email is already
// registered. Check and insert happen under one lock.
func (s *InMemory) CreateIfEmailAvailable(_ context.Context, b *models.Beneficiary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[b.Email]; exists {
		return sentinel.ErrDuplicate
	}
	cp := *b
	s.byID[b.ID] = &cp
	s.byEmail[b.Email] = b.ID
	s.order = append(s.order, b.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, beneficiaryID id.BeneficiaryID) (*models.Beneficiary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[beneficiaryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

// List returns beneficiaries in registration order.
func (s *InMemory) List(_ context.Context) ([]*models.Beneficiary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Beneficiary, 0, len(s.order))
	for _, bid := range s.order {
		cp := *s.byID[bid]
		out = append(out, &cp)
	}
	return out, nil
}

// Execute loads the beneficiary, runs validate, then apply, all under the
// store lock.
func (s *InMemory) Execute(_ context.Context, beneficiaryID id.BeneficiaryID, validate func(*models.Beneficiary) error, apply func(*models.Beneficiary) error) (*models.Beneficiary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[beneficiaryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(b); err != nil {
		return nil, err
	}
	if err := apply(b); err != nil {
		return nil, err
	}
	cp := *b
	return &cp, nil
}
