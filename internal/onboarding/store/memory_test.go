package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"heirloom/internal/onboarding/models"
	"heirloom/pkg/platform/sentinel"
)

type OnboardingStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *OnboardingStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestOnboardingStoreSuite(t *testing.T) {
	suite.Run(t, new(OnboardingStoreSuite))
}

func (s *OnboardingStoreSuite) TestEnsureStateIsIdempotent() {
	userID := uuid.New()
	s.Require().NoError(s.store.EnsureState(s.ctx, userID))

	_, err := s.store.SaveStep(s.ctx, userID, models.StepSignature, &models.SaveStepRequest{
		Signature: &models.SignaturePayload{Data: "iVBORw0KGgo="},
	}, time.Now())
	s.Require().NoError(err)

	// A second EnsureState must not wipe progress.
	s.Require().NoError(s.store.EnsureState(s.ctx, userID))
	state, err := s.store.Find(s.ctx, userID)
	s.Require().NoError(err)
	s.True(state.SignatureCompleted)
}

func (s *OnboardingStoreSuite) TestSaveStepForUnknownUser() {
	_, err := s.store.SaveStep(s.ctx, uuid.New(), models.StepPersonalInfo, &models.SaveStepRequest{
		PersonalInfo: &models.PersonalInfo{DateOfBirth: "1960-04-12"},
	}, time.Now())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *OnboardingStoreSuite) TestFindUnknownUser() {
	_, err := s.store.Find(s.ctx, uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *OnboardingStoreSuite) TestFindReturnsCopy() {
	userID := uuid.New()
	s.Require().NoError(s.store.EnsureState(s.ctx, userID))

	state, err := s.store.Find(s.ctx, userID)
	s.Require().NoError(err)
	state.PersonalInfoCompleted = true

	fresh, err := s.store.Find(s.ctx, userID)
	s.Require().NoError(err)
	s.False(fresh.PersonalInfoCompleted, "mutating a returned state must not leak into the store")
}

func (s *OnboardingStoreSuite) TestDeleteByUser() {
	userID := uuid.New()
	s.Require().NoError(s.store.EnsureState(s.ctx, userID))
	s.Require().NoError(s.store.DeleteByUser(s.ctx, userID))

	_, err := s.store.Find(s.ctx, userID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
