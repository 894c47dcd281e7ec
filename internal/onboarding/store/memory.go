package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"heirloom/internal/onboarding/models"
	"heirloom/pkg/platform/sentinel"
)

// InMemory keeps onboarding state per user behind a RWMutex. The write lock
// spans read-modify-write in SaveStep, which is what makes concurrent saves
// safe without version checks.
type InMemory struct {
	mu     sync.RWMutex
	states map[uuid.UUID]models.State
}

func NewInMemory() *InMemory {
	return &InMemory{states: make(map[uuid.UUID]models.State)}
}

// EnsureState creates an empty state row if none exists yet.
func (s *InMemory) EnsureState(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[userID]; !ok {
		s.states[userID] = models.State{UserID: userID, UpdatedAt: time.Now()}
	}
	return nil
}

func (s *InMemory) Find(_ context.Context, userID uuid.UUID) (*models.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.states[userID]; ok {
		copied := state
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

// SaveStep applies the step payload under the store lock and returns the
// updated state.
func (s *InMemory) SaveStep(_ context.Context, userID uuid.UUID, step models.Step, req *models.SaveStepRequest, now time.Time) (*models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := models.ApplyStep(&state, step, req, now); err != nil {
		return nil, err
	}
	s.states[userID] = state
	copied := state
	return &copied, nil
}

// DeleteByUser removes the state row, mirroring the FK cascade in Postgres.
func (s *InMemory) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
	return nil
}
