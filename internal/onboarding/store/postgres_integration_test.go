//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	authmodels "heirloom/internal/auth/models"
	userstore "heirloom/internal/auth/store/user"
	"heirloom/internal/onboarding/models"
	"heirloom/internal/onboarding/store"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/testutil/containers"
)

type OnboardingPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	userID   uuid.UUID
}

func TestOnboardingPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OnboardingPostgresSuite))
}

func (s *OnboardingPostgresSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *OnboardingPostgresSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "onboarding_states", "users"))

	now := time.Now()
	s.userID = uuid.New()
	users := userstore.NewPostgres(s.postgres.DB)
	s.Require().NoError(users.CreateIfEmailAvailable(ctx, &authmodels.User{
		ID:           s.userID,
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
	s.Require().NoError(s.store.EnsureState(ctx, s.userID))
}

func (s *OnboardingPostgresSuite) TestSaveStepRoundTrip() {
	ctx := context.Background()
	state, err := s.store.SaveStep(ctx, s.userID, models.StepPersonalInfo, &models.SaveStepRequest{
		PersonalInfo: &models.PersonalInfo{
			DateOfBirth: "1961-07-02",
			Phone:       "+1-555-0117",
			City:        "Madison",
			Country:     "US",
		},
	}, time.Now())
	s.Require().NoError(err)
	s.True(state.PersonalInfoCompleted)
	s.False(state.SignatureCompleted)

	found, err := s.store.Find(ctx, s.userID)
	s.Require().NoError(err)
	s.Equal("Madison", found.PersonalInfo.City)
	s.Require().NotNil(found.PersonalInfoCompletedAt)
}

// TestResubmissionKeepsTimestamp covers the set-once timestamp semantics:
// the payload is overwritten but completed_at stays at the first submission.
func (s *OnboardingPostgresSuite) TestResubmissionKeepsTimestamp() {
	ctx := context.Background()
	first := time.Now().Add(-time.Hour).Truncate(time.Millisecond)

	_, err := s.store.SaveStep(ctx, s.userID, models.StepSignature, &models.SaveStepRequest{
		Signature: &models.SignaturePayload{Data: "iVBORw0KGgo="},
	}, first)
	s.Require().NoError(err)

	state, err := s.store.SaveStep(ctx, s.userID, models.StepSignature, &models.SaveStepRequest{
		Signature: &models.SignaturePayload{Data: "R0lGODlh"},
	}, time.Now())
	s.Require().NoError(err)

	s.Equal("R0lGODlh", state.Signature.Data)
	s.Require().NotNil(state.SignatureCompletedAt)
	s.WithinDuration(first, *state.SignatureCompletedAt, time.Second)
}

func (s *OnboardingPostgresSuite) TestSaveStepUnknownUser() {
	_, err := s.store.SaveStep(context.Background(), uuid.New(), models.StepVerification, &models.SaveStepRequest{
		Verification: &models.VerificationPayload{Confirmed: true},
	}, time.Now())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
