package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"heirloom/internal/audit"
	"heirloom/internal/auth/metrics"
	"heirloom/internal/auth/models"
	"heirloom/internal/jwttoken"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/secrets"
)

type UserStore interface {
	CreateIfEmailAvailable(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// OnboardingInitializer creates the empty onboarding row at signup so the
// tracker always has state to update.
type OnboardingInitializer interface {
	EnsureState(ctx context.Context, userID uuid.UUID) error
}

// Service handles account creation and token issuance.
type Service struct {
	users      UserStore
	onboarding OnboardingInitializer
	tokens     *jwttoken.JWTService
	tokenTTL   time.Duration
	logger     *slog.Logger
	publisher  *audit.Publisher
	metrics    *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(users UserStore, onboarding OnboardingInitializer, tokens *jwttoken.JWTService, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:      users,
		onboarding: onboarding,
		tokens:     tokens,
		tokenTTL:   tokenTTL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup creates an account plus its onboarding state and returns a token.
func (s *Service) Signup(ctx context.Context, req *models.SignupRequest) (*models.TokenResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := time.Now()
	u := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.EffectiveFullName(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateIfEmailAvailable(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	if err := s.onboarding.EnsureState(ctx, u.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize onboarding")
	}

	s.publisher.Emit(ctx, audit.Event{
		UserID:   u.ID.String(),
		Action:   audit.ActionSignup,
		Entity:   "user",
		EntityID: u.ID.String(),
	})
	s.metrics.IncrementUsersCreated()

	return s.issueToken(u)
}

// Login verifies credentials and returns a fresh token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementLoginFailures()
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := secrets.Verify(req.Password, u.PasswordHash); err != nil {
		s.metrics.IncrementLoginFailures()
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	s.publisher.Emit(ctx, audit.Event{
		UserID: u.ID.String(),
		Action: audit.ActionLogin,
	})

	return s.issueToken(u)
}

func (s *Service) issueToken(u *models.User) (*models.TokenResponse, error) {
	token, err := s.tokens.GenerateAccessToken(u.ID, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		User:        u,
	}, nil
}
