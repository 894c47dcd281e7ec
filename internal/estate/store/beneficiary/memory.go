package beneficiary

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"heirloom/internal/estate/models"
	"heirloom/pkg/platform/sentinel"
)

// InMemory keeps beneficiaries in a map guarded by a RWMutex.
type InMemory struct {
	mu            sync.RWMutex
	beneficiaries map[uuid.UUID]models.Beneficiary
}

func NewInMemory() *InMemory {
	return &InMemory{beneficiaries: make(map[uuid.UUID]models.Beneficiary)}
}

func (s *InMemory) Create(_ context.Context, b *models.Beneficiary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beneficiaries[b.ID] = *b
	return nil
}

func (s *InMemory) Update(_ context.Context, b *models.Beneficiary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.beneficiaries[b.ID]
	if !ok || existing.OwnerID != b.OwnerID {
		return sentinel.ErrNotFound
	}
	s.beneficiaries[b.ID] = *b
	return nil
}

func (s *InMemory) FindByOwnerAndID(_ context.Context, ownerID, id uuid.UUID) (*models.Beneficiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.beneficiaries[id]; ok && b.OwnerID == ownerID {
		copied := b
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*models.Beneficiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Beneficiary
	for _, b := range s.beneficiaries {
		if b.OwnerID == ownerID {
			copied := b
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.beneficiaries[id]; ok && b.OwnerID == ownerID {
		delete(s.beneficiaries, id)
		return nil
	}
	return sentinel.ErrNotFound
}
