package beneficiary

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"heirloom/internal/estate/models"
	"heirloom/pkg/platform/sentinel"
)

type BeneficiaryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	owner uuid.UUID
}

func (s *BeneficiaryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.owner = uuid.New()
}

func TestBeneficiaryStoreSuite(t *testing.T) {
	suite.Run(t, new(BeneficiaryStoreSuite))
}

func (s *BeneficiaryStoreSuite) newBeneficiary(name string) *models.Beneficiary {
	now := time.Now()
	return &models.Beneficiary{
		ID:           uuid.New(),
		OwnerID:      s.owner,
		FullName:     name,
		Relationship: models.RelChild,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *BeneficiaryStoreSuite) TestCreateAndFind() {
	b := s.newBeneficiary("Nadia Osei")
	s.Require().NoError(s.store.Create(s.ctx, b))

	found, err := s.store.FindByOwnerAndID(s.ctx, s.owner, b.ID)
	s.Require().NoError(err)
	s.Equal("Nadia Osei", found.FullName)
}

func (s *BeneficiaryStoreSuite) TestFindIsOwnerScoped() {
	b := s.newBeneficiary("Nadia Osei")
	s.Require().NoError(s.store.Create(s.ctx, b))

	_, err := s.store.FindByOwnerAndID(s.ctx, uuid.New(), b.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *BeneficiaryStoreSuite) TestListOnlyOwnRecords() {
	mine := s.newBeneficiary("Nadia Osei")
	s.Require().NoError(s.store.Create(s.ctx, mine))

	theirs := s.newBeneficiary("Elliot Straub")
	theirs.OwnerID = uuid.New()
	s.Require().NoError(s.store.Create(s.ctx, theirs))

	list, err := s.store.ListByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(mine.ID, list[0].ID)
}

func (s *BeneficiaryStoreSuite) TestDeleteUnknown() {
	s.Require().ErrorIs(s.store.Delete(s.ctx, s.owner, uuid.New()), sentinel.ErrNotFound)
}
