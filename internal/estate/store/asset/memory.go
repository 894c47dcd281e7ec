package asset

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"heirloom/internal/estate/models"
	"heirloom/pkg/platform/sentinel"
)

// InMemory keeps assets in a map guarded by a RWMutex.
type InMemory struct {
	mu     sync.RWMutex
	assets map[uuid.UUID]models.Asset
}

func NewInMemory() *InMemory {
	return &InMemory{assets: make(map[uuid.UUID]models.Asset)}
}

func (s *InMemory) Create(_ context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[a.ID] = *a
	return nil
}

// Update replaces the stored row only when it belongs to the given owner.
func (s *InMemory) Update(_ context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.assets[a.ID]
	if !ok || existing.OwnerID != a.OwnerID {
		return sentinel.ErrNotFound
	}
	s.assets[a.ID] = *a
	return nil
}

func (s *InMemory) FindByOwnerAndID(_ context.Context, ownerID, id uuid.UUID) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.assets[id]; ok && a.OwnerID == ownerID {
		copied := a
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Asset
	for _, a := range s.assets {
		if a.OwnerID == ownerID {
			copied := a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// LockForAllocation matches the Postgres store's signature. The memory
// allocation path serializes through a tx.Serial runner, so a plain read
// suffices here.
func (s *InMemory) LockForAllocation(ctx context.Context, ownerID, id uuid.UUID) (*models.Asset, error) {
	return s.FindByOwnerAndID(ctx, ownerID, id)
}

func (s *InMemory) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.assets[id]; ok && a.OwnerID == ownerID {
		delete(s.assets, id)
		return nil
	}
	return sentinel.ErrNotFound
}
