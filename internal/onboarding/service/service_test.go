package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"heirloom/internal/onboarding/models"
	"heirloom/internal/onboarding/store"
	dErrors "heirloom/pkg/domain-errors"
)

type OnboardingServiceSuite struct {
	suite.Suite
	store  *store.InMemory
	svc    *Service
	ctx    context.Context
	userID uuid.UUID
}

func (s *OnboardingServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.svc = New(s.store)
	s.ctx = context.Background()
	s.userID = uuid.New()
	s.Require().NoError(s.store.EnsureState(s.ctx, s.userID))
}

func TestOnboardingServiceSuite(t *testing.T) {
	suite.Run(t, new(OnboardingServiceSuite))
}

func stepRequest(step models.Step) *models.SaveStepRequest {
	switch step {
	case models.StepPersonalInfo:
		return &models.SaveStepRequest{PersonalInfo: &models.PersonalInfo{
			DateOfBirth: "1958-09-30",
			Phone:       "+1-555-0199",
			City:        "Denver",
			Country:     "US",
		}}
	case models.StepSignature:
		return &models.SaveStepRequest{Signature: &models.SignaturePayload{Data: "iVBORw0KGgo="}}
	case models.StepLegalConsent:
		return &models.SaveStepRequest{LegalConsent: &models.LegalConsentPayload{Accepted: true, Version: "2026-02"}}
	default:
		return &models.SaveStepRequest{Verification: &models.VerificationPayload{Confirmed: true}}
	}
}

// TestFullFlowInOrder walks steps 0..3 and checks the terminal state.
func (s *OnboardingServiceSuite) TestFullFlowInOrder() {
	for i := 0; i < models.StepCount; i++ {
		res, err := s.svc.SaveStep(s.ctx, s.userID, i, stepRequest(models.Step(i)))
		s.Require().NoError(err, "step %d", i)

		if i < models.StepCount-1 {
			s.Require().NotNil(res.NextStep)
			s.Equal(i+1, *res.NextStep)
			s.False(res.Completed)
		} else {
			s.Nil(res.NextStep)
			s.True(res.Completed)
		}
	}

	status, err := s.svc.Status(s.ctx, s.userID)
	s.Require().NoError(err)
	s.True(status.OnboardingCompleted)
	s.Equal("complete", status.CurrentStep)
}

// TestSavingAStepOnlySetsThatFlag covers the isolation property per step.
func (s *OnboardingServiceSuite) TestSavingAStepOnlySetsThatFlag() {
	for i := 0; i < models.StepCount; i++ {
		userID := uuid.New()
		s.Require().NoError(s.store.EnsureState(s.ctx, userID))

		_, err := s.svc.SaveStep(s.ctx, userID, i, stepRequest(models.Step(i)))
		s.Require().NoError(err)

		state, err := s.store.Find(s.ctx, userID)
		s.Require().NoError(err)
		for j := models.Step(0); j < models.StepCount; j++ {
			s.Equal(j == models.Step(i), state.StepDone(j),
				"saving step %d must only complete step %d, step %d mismatch", i, i, j)
		}
	}
}

func (s *OnboardingServiceSuite) TestCurrentStepIsLowestIncomplete() {
	// Complete steps out of order: 2 then 0. Current must be 1.
	_, err := s.svc.SaveStep(s.ctx, s.userID, 2, stepRequest(models.StepLegalConsent))
	s.Require().NoError(err)
	_, err = s.svc.SaveStep(s.ctx, s.userID, 0, stepRequest(models.StepPersonalInfo))
	s.Require().NoError(err)

	status, err := s.svc.Status(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal("signature", status.CurrentStep)
	s.False(status.OnboardingCompleted)
}

func (s *OnboardingServiceSuite) TestOutOfRangeStepRejectedWithoutStateChange() {
	for _, idx := range []int{-1, 4, 17} {
		_, err := s.svc.SaveStep(s.ctx, s.userID, idx, stepRequest(models.StepPersonalInfo))
		s.Require().Error(err, "index %d", idx)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	}

	state, err := s.store.Find(s.ctx, s.userID)
	s.Require().NoError(err)
	for i := models.Step(0); i < models.StepCount; i++ {
		s.False(state.StepDone(i), "no step may be marked complete after rejected saves")
	}
}

func (s *OnboardingServiceSuite) TestInvalidPayloadRejected() {
	_, err := s.svc.SaveStep(s.ctx, s.userID, 1, &models.SaveStepRequest{})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.SaveStep(s.ctx, s.userID, 1, nil)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *OnboardingServiceSuite) TestResubmissionIsIdempotent() {
	_, err := s.svc.SaveStep(s.ctx, s.userID, 0, stepRequest(models.StepPersonalInfo))
	s.Require().NoError(err)
	first, err := s.store.Find(s.ctx, s.userID)
	s.Require().NoError(err)

	updated := stepRequest(models.StepPersonalInfo)
	updated.PersonalInfo.City = "Boulder"
	res, err := s.svc.SaveStep(s.ctx, s.userID, 0, updated)
	s.Require().NoError(err)
	s.Require().NotNil(res.NextStep)
	s.Equal(1, *res.NextStep)

	second, err := s.store.Find(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal("Boulder", second.PersonalInfo.City)
	s.Equal(first.PersonalInfoCompletedAt, second.PersonalInfoCompletedAt,
		"completion timestamp must not move on resubmission")
}

func (s *OnboardingServiceSuite) TestSaveStepForUnknownUser() {
	_, err := s.svc.SaveStep(s.ctx, uuid.New(), 0, stepRequest(models.StepPersonalInfo))
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *OnboardingServiceSuite) TestStatusForUnknownUser() {
	_, err := s.svc.Status(s.ctx, uuid.New())
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
