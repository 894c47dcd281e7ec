package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"heirloom/internal/audit"
	"heirloom/internal/onboarding/cache"
	"heirloom/internal/onboarding/metrics"
	"heirloom/internal/onboarding/models"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
)

type Store interface {
	EnsureState(ctx context.Context, userID uuid.UUID) error
	Find(ctx context.Context, userID uuid.UUID) (*models.State, error)
	SaveStep(ctx context.Context, userID uuid.UUID, step models.Step, req *models.SaveStepRequest, now time.Time) (*models.State, error)
}

// Service combines the step completion tracker (SaveStep) with the read-only
// onboarding orchestrator (Status).
type Service struct {
	store     Store
	logger    *slog.Logger
	publisher *audit.Publisher
	metrics   *metrics.Metrics
	cache     *cache.StatusCache
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

func WithStatusCache(c *cache.StatusCache) Option {
	return func(s *Service) { s.cache = c }
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveStep validates and persists one step submission. Idempotent:
// resubmitting a completed step overwrites its payload and touches nothing
// else. Returns the next step index, or a terminal complete marker.
func (s *Service) SaveStep(ctx context.Context, userID uuid.UUID, stepIndex int, req *models.SaveStepRequest) (*models.SaveStepResult, error) {
	start := time.Now()

	step := models.Step(stepIndex)
	if !step.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("step index must be between 0 and %d", models.StepCount-1))
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "request body is required")
	}
	if err := req.ValidateFor(step); err != nil {
		return nil, err
	}

	wasComplete := false
	if prev, err := s.store.Find(ctx, userID); err == nil {
		wasComplete = prev.Completed()
	}

	state, err := s.store.SaveStep(ctx, userID, step, req, time.Now())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "onboarding state not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save step")
	}

	s.cache.Invalidate(ctx, userID.String())
	s.publisher.Emit(ctx, audit.Event{
		UserID: userID.String(),
		Action: audit.ActionStepSaved,
		Entity: "onboarding_step",
		Detail: step.String(),
	})
	s.metrics.IncrementStepSaved(step.String())
	s.metrics.ObserveSaveStep(start)

	result := &models.SaveStepResult{Completed: state.Completed()}
	if next, ok := state.CurrentStep(); ok {
		idx := int(next)
		result.NextStep = &idx
	} else if !wasComplete {
		s.metrics.IncrementCompleted()
	}
	return result, nil
}

// Status derives the orchestrator view: current step is the first incomplete
// step in fixed order, or "complete". Read-only; never mutates state.
func (s *Service) Status(ctx context.Context, userID uuid.UUID) (*models.StatusResponse, error) {
	if cached, ok := s.cache.Get(ctx, userID.String()); ok {
		s.metrics.IncrementCacheHit()
		return cached, nil
	}
	s.metrics.IncrementCacheMiss()

	state, err := s.store.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "onboarding state not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load onboarding state")
	}

	status := models.StatusFrom(state)
	s.cache.Set(ctx, userID.String(), status)
	return status, nil
}
