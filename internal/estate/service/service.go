package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"heirloom/internal/audit"
	"heirloom/internal/estate/metrics"
	"heirloom/internal/estate/models"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
)

type AssetStore interface {
	Create(ctx context.Context, a *models.Asset) error
	Update(ctx context.Context, a *models.Asset) error
	FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*models.Asset, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Asset, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type BeneficiaryStore interface {
	Create(ctx context.Context, b *models.Beneficiary) error
	Update(ctx context.Context, b *models.Beneficiary) error
	FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*models.Beneficiary, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Beneficiary, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// Service owns asset and beneficiary CRUD. Every operation is scoped to the
// owner; another user's records are indistinguishable from absent ones.
type Service struct {
	assets        AssetStore
	beneficiaries BeneficiaryStore
	logger        *slog.Logger
	publisher     *audit.Publisher
	metrics       *metrics.Metrics
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
func New(assets AssetStore, beneficiaries BeneficiaryStore, opts ...Option) *Service {
	s := &Service{
		assets:        assets,
		beneficiaries: beneficiaries,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAsset validates and stores a new asset for the owner.
func (s *Service) CreateAsset(ctx context.Context, ownerID uuid.UUID, req *models.AssetRequest) (*models.Asset, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	a := &models.Asset{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Type:        req.Type,
		Name:        req.Name,
		Description: req.Description,
		Value:       req.Value,
		Currency:    req.Currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.assets.Create(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create asset")
	}

	s.publisher.Emit(ctx, audit.Event{
		UserID:   ownerID.String(),
		Action:   audit.ActionAssetCreated,
		Entity:   "asset",
		EntityID: a.ID.String(),
	})
	s.metrics.IncrementAssetsCreated()
	return a, nil
}

// UpdateAsset replaces the mutable fields of an owned asset.
func (s *Service) UpdateAsset(ctx context.Context, ownerID, id uuid.UUID, req *models.AssetRequest) (*models.Asset, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.assets.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		return nil, assetLoadError(err)
	}
	a.Type = req.Type
	a.Name = req.Name
	a.Description = req.Description
	a.Value = req.Value
	a.Currency = req.Currency
	a.UpdatedAt = time.Now()

	if err := s.assets.Update(ctx, a); err != nil {
		return nil, assetLoadError(err)
	}

	s.publisher.Emit(ctx, audit.Event{
		UserID:   ownerID.String(),
		Action:   audit.ActionAssetUpdated,
		Entity:   "asset",
		EntityID: a.ID.String(),
	})
	return a, nil
}

func (s *Service) GetAsset(ctx context.Context, ownerID, id uuid.UUID) (*models.Asset, error) {
	a, err := s.assets.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		return nil, assetLoadError(err)
	}
	return a, nil
}

func (s *Service) ListAssets(ctx context.Context, ownerID uuid.UUID) ([]*models.Asset, error) {
	out, err := s.assets.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list assets")
	}
	return out, nil
}

// DeleteAsset removes an owned asset. Allocations referencing it cascade away
// with it.
func (s *Service) DeleteAsset(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.assets.Delete(ctx, ownerID, id); err != nil {
		return assetLoadError(err)
	}
	s.publisher.Emit(ctx, audit.Event{
		UserID:   ownerID.String(),
		Action:   audit.ActionAssetDeleted,
		Entity:   "asset",
		EntityID: id.String(),
	})
	return nil
}

// CreateBeneficiary validates and stores a new beneficiary for the owner.
func (s *Service) CreateBeneficiary(ctx context.Context, ownerID uuid.UUID, req *models.BeneficiaryRequest) (*models.Beneficiary, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	b := &models.Beneficiary{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		FullName:     req.FullName,
		Relationship: req.Relationship,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.beneficiaries.Create(ctx, b); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create beneficiary")
	}

	s.publisher.Emit(ctx, audit.Event{
		UserID:   ownerID.String(),
		Action:   audit.ActionBeneficiaryCreated,
		Entity:   "beneficiary",
		EntityID: b.ID.String(),
	})
	s.metrics.IncrementBeneficiariesCreated()
	return b, nil
}

func (s *Service) UpdateBeneficiary(ctx context.Context, ownerID, id uuid.UUID, req *models.BeneficiaryRequest) (*models.Beneficiary, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b, err := s.beneficiaries.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		return nil, beneficiaryLoadError(err)
	}
	b.FullName = req.FullName
	b.Relationship = req.Relationship
	b.Email = req.Email
	b.Phone = req.Phone
	b.Address = req.Address
	b.UpdatedAt = time.Now()

	if err := s.beneficiaries.Update(ctx, b); err != nil {
		return nil, beneficiaryLoadError(err)
	}

	s.publisher.Emit(ctx, audit.Event{
		UserID:   ownerID.String(),
		Action:   audit.ActionBeneficiaryUpdated,
		Entity:   "beneficiary",
		EntityID: b.ID.String(),
	})
	return b, nil
}

func (s *Service) GetBeneficiary(ctx context.Context, ownerID, id uuid.UUID) (*models.Beneficiary, error) {
	b, err := s.beneficiaries.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		return nil, beneficiaryLoadError(err)
	}
	return b, nil
}

func (s *Service) ListBeneficiaries(ctx context.Context, ownerID uuid.UUID) ([]*models.Beneficiary, error) {
	out, err := s.beneficiaries.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list beneficiaries")
	}
	return out, nil
}

func (s *Service) DeleteBeneficiary(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.beneficiaries.Delete(ctx, ownerID, id); err != nil {
		return beneficiaryLoadError(err)
	}
	s.publisher.Emit(ctx, audit.Event{
		UserID:   ownerID.String(),
		Action:   audit.ActionBeneficiaryDeleted,
		Entity:   "beneficiary",
		EntityID: id.String(),
	})
	return nil
}

func assetLoadError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "asset not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "asset store failure")
}

func beneficiaryLoadError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "beneficiary not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "beneficiary store failure")
}
