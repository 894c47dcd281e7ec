package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"heirloom/internal/auth/models"
	userstore "heirloom/internal/auth/store/user"
	"heirloom/internal/jwttoken"
	onboardingstore "heirloom/internal/onboarding/store"
	dErrors "heirloom/pkg/domain-errors"
)

type AuthServiceSuite struct {
	suite.Suite
	svc        *Service
	onboarding *onboardingstore.InMemory
	ctx        context.Context
}

func (s *AuthServiceSuite) SetupTest() {
	s.onboarding = onboardingstore.NewInMemory()
	tokens := jwttoken.NewJWTService("test-signing-key", "heirloom", "heirloom")
	s.svc = New(userstore.NewInMemory(), s.onboarding, tokens, time.Hour)
	s.ctx = context.Background()
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func signupRequest() *models.SignupRequest {
	return &models.SignupRequest{
		Email:    "rosa@example.com",
		Password: "correct horse battery",
		FullName: "Rosa Lindqvist",
	}
}

func (s *AuthServiceSuite) TestSignupIssuesTokenAndOnboardingState() {
	resp, err := s.svc.Signup(s.ctx, signupRequest())
	s.Require().NoError(err)
	s.NotEmpty(resp.AccessToken)
	s.Equal("Bearer", resp.TokenType)
	s.Require().NotNil(resp.User)

	_, err = s.onboarding.Find(s.ctx, resp.User.ID)
	s.Require().NoError(err, "signup must seed the onboarding state")
}

func (s *AuthServiceSuite) TestSignupDerivesNameWhenOmitted() {
	req := signupRequest()
	req.Email = "jane.doe@example.com"
	req.FullName = ""

	resp, err := s.svc.Signup(s.ctx, req)
	s.Require().NoError(err)
	s.Equal("Jane Doe", resp.User.FullName)
}

func (s *AuthServiceSuite) TestDuplicateEmailConflicts() {
	_, err := s.svc.Signup(s.ctx, signupRequest())
	s.Require().NoError(err)

	dup := signupRequest()
	dup.Email = "ROSA@example.com"
	_, err = s.svc.Signup(s.ctx, dup)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AuthServiceSuite) TestLogin() {
	_, err := s.svc.Signup(s.ctx, signupRequest())
	s.Require().NoError(err)

	resp, err := s.svc.Login(s.ctx, &models.LoginRequest{
		Email:    "rosa@example.com",
		Password: "correct horse battery",
	})
	s.Require().NoError(err)
	s.NotEmpty(resp.AccessToken)
}

func (s *AuthServiceSuite) TestBadCredentialsIndistinguishable() {
	_, err := s.svc.Signup(s.ctx, signupRequest())
	s.Require().NoError(err)

	_, errWrongPassword := s.svc.Login(s.ctx, &models.LoginRequest{
		Email:    "rosa@example.com",
		Password: "nope",
	})
	_, errUnknownEmail := s.svc.Login(s.ctx, &models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	s.Require().Error(errWrongPassword)
	s.Require().Error(errUnknownEmail)
	s.True(dErrors.HasCode(errWrongPassword, dErrors.CodeUnauthorized))
	s.Equal(errWrongPassword.Error(), errUnknownEmail.Error())
}

func (s *AuthServiceSuite) TestSignupValidation() {
	cases := []struct {
		name   string
		mutate func(r *models.SignupRequest)
	}{
		{"bad email", func(r *models.SignupRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *models.SignupRequest) { r.Password = "short" }},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := signupRequest()
			tc.mutate(req)
			_, err := s.svc.Signup(s.ctx, req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}
