package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"legatum/internal/beneficiary/models"
	"legatum/internal/beneficiary/store"
	id "legatum/pkg/domain"
	dErrors "legatum/pkg/domain-errors"
)

type BeneficiaryServiceSuite struct {
	suite.Suite
	ctx     context.Context
	service *Service
}

func TestBeneficiaryServiceSuite(t *testing.T) {
	suite.Run(t, new(BeneficiaryServiceSuite))
}

func (s *BeneficiaryServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.service = New(store.NewInMemory())
}

func (s *BeneficiaryServiceSuite) register(email string) *models.Beneficiary {
	b, err := s.service.Register(s.ctx, &models.RegisterBeneficiaryRequest{
		Email:            email,
		FirstName:        "Ada",
		LastName:         "Lovelace",
		RelationshipType: "daughter",
		PriorityLevel:    1,
	})
	s.Require().NoError(err)
	return b
}

func (s *BeneficiaryServiceSuite) TestRegister() {
	s.Run("registers an active beneficiary", func() {
		b := s.register("ada@example.com")
		s.Equal(models.StatusActive, b.Status)
		s.False(b.ID.IsNil())
	})

	s.Run("normalizes email casing", func() {
		b := s.register("  Grace@Example.COM ")
		s.Equal("grace@example.com", b.Email)
	})

	s.Run("rejects duplicate email with conflict", func() {
		s.register("dup@example.com")
		_, err := s.service.Register(s.ctx, &models.RegisterBeneficiaryRequest{Email: "dup@example.com"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects missing and malformed email", func() {
		_, err := s.service.Register(s.ctx, &models.RegisterBeneficiaryRequest{})
		s.Require().Error(err)

		_, err = s.service.Register(s.ctx, &models.RegisterBeneficiaryRequest{Email: "not-an-email"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *BeneficiaryServiceSuite) TestLookupAndList() {
	s.Run("gets a registered beneficiary", func() {
		b := s.register("lookup@example.com")
		found, err := s.service.Get(s.ctx, b.ID)
		s.Require().NoError(err)
		s.Equal(b.Email, found.Email)
	})

	s.Run("unknown id is NotFound", func() {
		_, err := s.service.Get(s.ctx, id.NewBeneficiaryID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("lists in registration order", func() {
		first := s.register("first@example.com")
		second := s.register("second@example.com")

		listed, err := s.service.List(s.ctx)
		s.Require().NoError(err)
		s.Require().GreaterOrEqual(len(listed), 2)
		var ids []id.BeneficiaryID
		for _, b := range listed {
			ids = append(ids, b.ID)
		}
		s.Contains(ids, first.ID)
		s.Contains(ids, second.ID)
	})
}

func (s *BeneficiaryServiceSuite) TestRevoke() {
	s.Run("revokes an active beneficiary", func() {
		b := s.register("revoke@example.com")
		revoked, err := s.service.Revoke(s.ctx, b.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusRevoked, revoked.Status)
	})

	s.Run("revoking twice conflicts", func() {
		b := s.register("twice@example.com")
		_, err := s.service.Revoke(s.ctx, b.ID)
		s.Require().NoError(err)

		_, err = s.service.Revoke(s.ctx, b.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown id is NotFound", func() {
		_, err := s.service.Revoke(s.ctx, id.NewBeneficiaryID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
