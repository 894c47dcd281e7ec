package allocation

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"heirloom/internal/inheritance/models"
	"heirloom/pkg/platform/sentinel"
)

// InMemory keeps allocations in a map guarded by a RWMutex.
type InMemory struct {
	mu          sync.RWMutex
	allocations map[uuid.UUID]models.RuleAllocation
}

func NewInMemory() *InMemory {
	return &InMemory{allocations: make(map[uuid.UUID]models.RuleAllocation)}
}

func (s *InMemory) Create(_ context.Context, a *models.RuleAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocations[a.ID] = *a
	return nil
}

func (s *InMemory) Update(_ context.Context, a *models.RuleAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.allocations[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.allocations[a.ID] = *a
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.RuleAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.allocations[id]; ok {
		copied := a
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByRule(_ context.Context, ruleID uuid.UUID) ([]*models.RuleAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(a models.RuleAllocation) bool { return a.RuleID == ruleID }), nil
}

func (s *InMemory) ListByAsset(_ context.Context, assetID uuid.UUID) ([]*models.RuleAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(a models.RuleAllocation) bool { return a.AssetID == assetID }), nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.allocations[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.allocations, id)
	return nil
}

// DeleteByRule mirrors the Postgres foreign-key cascade for rule deletion.
func (s *InMemory) DeleteByRule(_ context.Context, ruleID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.allocations {
		if a.RuleID == ruleID {
			delete(s.allocations, id)
		}
	}
	return nil
}

func (s *InMemory) collect(keep func(models.RuleAllocation) bool) []*models.RuleAllocation {
	var out []*models.RuleAllocation
	for _, a := range s.allocations {
		if keep(a) {
			copied := a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
