package rule

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"heirloom/internal/inheritance/models"
	"heirloom/pkg/platform/sentinel"
)

// InMemory keeps rules in a map guarded by a RWMutex.
type InMemory struct {
	mu    sync.RWMutex
	rules map[uuid.UUID]models.InheritanceRule
}

func NewInMemory() *InMemory {
	return &InMemory{rules: make(map[uuid.UUID]models.InheritanceRule)}
}

func (s *InMemory) Create(_ context.Context, r *models.InheritanceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.ID] = *r
	return nil
}

func (s *InMemory) Update(_ context.Context, r *models.InheritanceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rules[r.ID]
	if !ok || existing.OwnerID != r.OwnerID {
		return sentinel.ErrNotFound
	}
	s.rules[r.ID] = *r
	return nil
}

func (s *InMemory) FindByOwnerAndID(_ context.Context, ownerID, id uuid.UUID) (*models.InheritanceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.rules[id]; ok && r.OwnerID == ownerID {
		copied := r
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

// ListByOwner returns the owner's rules ordered by priority, then creation
// time for stable ties.
func (s *InMemory) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*models.InheritanceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.InheritanceRule
	for _, r := range s.rules {
		if r.OwnerID == ownerID {
			copied := r
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rules[id]; ok && r.OwnerID == ownerID {
		delete(s.rules, id)
		return nil
	}
	return sentinel.ErrNotFound
}
