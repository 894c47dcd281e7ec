package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"heirloom/internal/audit"
	estate "heirloom/internal/estate/models"
	"heirloom/internal/inheritance/metrics"
	"heirloom/internal/inheritance/models"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/platform/tx"
)

// epsilon absorbs float64 representation error in percentage and amount
// sums. Allocations are advisory figures, not ledger entries.
const epsilon = 1e-9

type RuleStore interface {
	Create(ctx context.Context, r *models.InheritanceRule) error
	Update(ctx context.Context, r *models.InheritanceRule) error
	FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*models.InheritanceRule, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.InheritanceRule, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type AllocationStore interface {
	Create(ctx context.Context, a *models.RuleAllocation) error
	Update(ctx context.Context, a *models.RuleAllocation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RuleAllocation, error)
	ListByRule(ctx context.Context, ruleID uuid.UUID) ([]*models.RuleAllocation, error)
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.RuleAllocation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByRule(ctx context.Context, ruleID uuid.UUID) error
}

// AssetStore is the slice of the estate asset store the engine needs.
// LockForAllocation pins the asset row for the duration of the run so
// concurrent writes on one asset serialize.
type AssetStore interface {
	FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*estate.Asset, error)
	LockForAllocation(ctx context.Context, ownerID, id uuid.UUID) (*estate.Asset, error)
}

type BeneficiaryStore interface {
	FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*estate.Beneficiary, error)
}

// Service owns inheritance rules and the allocation engine. Every allocation
// write recomputes the per-asset totals under active rules inside the runner
// and rejects writes that would overshoot, so the limits hold before and
// after every accepted mutation.
type Service struct {
	rules         RuleStore
	allocations   AllocationStore
	assets        AssetStore
	beneficiaries BeneficiaryStore
	runner        tx.Runner
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
func New(rules RuleStore, allocations AllocationStore, assets AssetStore, beneficiaries BeneficiaryStore, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		rules:         rules,
		allocations:   allocations,
		assets:        assets,
		beneficiaries: beneficiaries,
		runner:        runner,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRule validates and stores a new rule for the owner.
func (s *Service) CreateRule(ctx context.Context, ownerID uuid.UUID, req *models.RuleRequest) (*models.InheritanceRule, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	r := &models.InheritanceRule{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      req.Name,
		Priority:  req.EffectivePriority(),
		Active:    req.EffectiveActive(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.rules.Create(ctx, r); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create rule")
	}

	s.publisher.Emit(ctx, audit.Event{
		UserID:   ownerID.String(),
		Action:   audit.ActionRuleCreated,
		Entity:   "rule",
		EntityID: r.ID.String(),
	})
	return r, nil
}

// UpdateRule replaces the mutable fields of an owned rule. Deactivating a
// rule takes its allocations out of the per-asset totals without deleting
// them; re-activating re-runs the engine checks, because the freed budget
// may have been spent in the meantime.
func (s *Service) UpdateRule(ctx context.Context, ownerID, id uuid.UUID, req *models.RuleRequest) (*models.InheritanceRule, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var r *models.InheritanceRule
	err := s.runner.Run(ctx, func(ctx context.Context) error {
		var err error
		r, err = s.rules.FindByOwnerAndID(ctx, ownerID, id)
		if err != nil {
			return ruleLoadError(err)
		}
		if !r.Active && req.EffectiveActive() {
			if err := s.checkReactivation(ctx, ownerID, r.ID); err != nil {
				return err
			}
		}
		r.Name = req.Name
		r.Priority = req.EffectivePriority()
		r.Active = req.EffectiveActive()
		r.UpdatedAt = time.Now()

		if err := s.rules.Update(ctx, r); err != nil {
			return ruleLoadError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Emit(ctx, audit.Event{
		UserID:   ownerID.String(),
		Action:   audit.ActionRuleUpdated,
		Entity:   "rule",
		EntityID: r.ID.String(),
	})
	return r, nil
}

func (s *Service) GetRule(ctx context.Context, ownerID, id uuid.UUID) (*models.InheritanceRule, error) {
	r, err := s.rules.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		return nil, ruleLoadError(err)
	}
	return r, nil
}

func (s *Service) ListRules(ctx context.Context, ownerID uuid.UUID) ([]*models.InheritanceRule, error) {
	out, err := s.rules.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rules")
	}
	return out, nil
}

// DeleteRule removes an owned rule and its allocations atomically.
func (s *Service) DeleteRule(ctx context.Context, ownerID, id uuid.UUID) error {
	err := s.runner.Run(ctx, func(ctx context.Context) error {
		if _, err := s.rules.FindByOwnerAndID(ctx, ownerID, id); err != nil {
			return ruleLoadError(err)
		}
		if err := s.allocations.DeleteByRule(ctx, id); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete rule allocations")
		}
		if err := s.rules.Delete(ctx, ownerID, id); err != nil {
			return ruleLoadError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Emit(ctx, audit.Event{
		UserID:   ownerID.String(),
		Action:   audit.ActionRuleDeleted,
		Entity:   "rule",
		EntityID: id.String(),
	})
	return nil
}

// ListAllocations returns the allocations under an owned rule.
func (s *Service) ListAllocations(ctx context.Context, ownerID, ruleID uuid.UUID) ([]*models.RuleAllocation, error) {
	if _, err := s.rules.FindByOwnerAndID(ctx, ownerID, ruleID); err != nil {
		return nil, ruleLoadError(err)
	}
	out, err := s.allocations.ListByRule(ctx, ruleID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
	}
	return out, nil
}

// CreateAllocation runs the engine checks and stores a new allocation under
// an owned rule.
func (s *Service) CreateAllocation(ctx context.Context, ownerID, ruleID uuid.UUID, req *models.AllocationRequest) (*models.RuleAllocation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created *models.RuleAllocation
	err := s.runner.Run(ctx, func(ctx context.Context) error {
		rule, err := s.rules.FindByOwnerAndID(ctx, ownerID, ruleID)
		if err != nil {
			return ruleLoadError(err)
		}
		asset, err := s.assets.LockForAllocation(ctx, ownerID, req.AssetID)
		if err != nil {
			return assetLoadError(err)
		}
		if _, err := s.beneficiaries.FindByOwnerAndID(ctx, ownerID, req.BeneficiaryID); err != nil {
			return beneficiaryLoadError(err)
		}
		if rule.Active {
			if err := s.checkLimits(ctx, ownerID, asset, uuid.Nil, req); err != nil {
				return err
			}
		}

		now := time.Now()
		created = &models.RuleAllocation{
			ID:            uuid.New(),
			RuleID:        ruleID,
			AssetID:       req.AssetID,
			BeneficiaryID: req.BeneficiaryID,
			Percentage:    req.Percentage,
			Amount:        req.Amount,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.allocations.Create(ctx, created); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create allocation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Emit(ctx, audit.Event{
		UserID:   ownerID.String(),
		Action:   audit.ActionAllocationCreated,
		Entity:   "allocation",
		EntityID: created.ID.String(),
	})
	s.metrics.IncrementAccepted()
	return created, nil
}

// UpdateAllocation re-runs the engine checks with the existing allocation
// excluded from the totals, then replaces it.
func (s *Service) UpdateAllocation(ctx context.Context, ownerID, id uuid.UUID, req *models.AllocationRequest) (*models.RuleAllocation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *models.RuleAllocation
	err := s.runner.Run(ctx, func(ctx context.Context) error {
		a, rule, err := s.ownedAllocation(ctx, ownerID, id)
		if err != nil {
			return err
		}
		asset, err := s.assets.LockForAllocation(ctx, ownerID, req.AssetID)
		if err != nil {
			return assetLoadError(err)
		}
		if _, err := s.beneficiaries.FindByOwnerAndID(ctx, ownerID, req.BeneficiaryID); err != nil {
			return beneficiaryLoadError(err)
		}
		if rule.Active {
			if err := s.checkLimits(ctx, ownerID, asset, a.ID, req); err != nil {
				return err
			}
		}

		a.AssetID = req.AssetID
		a.BeneficiaryID = req.BeneficiaryID
		a.Percentage = req.Percentage
		a.Amount = req.Amount
		a.UpdatedAt = time.Now()
		if err := s.allocations.Update(ctx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update allocation")
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Emit(ctx, audit.Event{
		UserID:   ownerID.String(),
		Action:   audit.ActionAllocationUpdated,
		Entity:   "allocation",
		EntityID: updated.ID.String(),
	})
	s.metrics.IncrementAccepted()
	return updated, nil
}

// DeleteAllocation removes an allocation reachable through an owned rule.
func (s *Service) DeleteAllocation(ctx context.Context, ownerID, id uuid.UUID) error {
	err := s.runner.Run(ctx, func(ctx context.Context) error {
		if _, _, err := s.ownedAllocation(ctx, ownerID, id); err != nil {
			return err
		}
		if err := s.allocations.Delete(ctx, id); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete allocation")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Emit(ctx, audit.Event{
		UserID:   ownerID.String(),
		Action:   audit.ActionAllocationDeleted,
		Entity:   "allocation",
		EntityID: id.String(),
	})
	return nil
}

// ValidateAllocation is the dry-run check: it reports whether the proposed
// allocation would be accepted and how much of the asset is already spoken
// for, without writing anything. The proposal is treated as belonging to an
// active rule.
func (s *Service) ValidateAllocation(ctx context.Context, ownerID uuid.UUID, req *models.AllocationRequest) (*models.ValidationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	asset, err := s.assets.FindByOwnerAndID(ctx, ownerID, req.AssetID)
	if err != nil {
		return nil, assetLoadError(err)
	}
	if _, err := s.beneficiaries.FindByOwnerAndID(ctx, ownerID, req.BeneficiaryID); err != nil {
		return nil, beneficiaryLoadError(err)
	}

	percentSum, amountSum, err := s.assetTotals(ctx, ownerID, req.AssetID, uuid.Nil, uuid.Nil)
	if err != nil {
		return nil, err
	}

	result := &models.ValidationResult{
		Valid:            true,
		PercentAllocated: percentSum,
		AmountAllocated:  amountSum,
		AssetValue:       asset.Value,
	}
	remaining := 100 - percentSum
	result.PercentRemaining = &remaining

	if req.Percentage != nil && percentSum+*req.Percentage > 100+epsilon {
		result.Valid = false
		result.Reason = "percentage allocations for this asset would exceed 100%"
	}
	if req.Amount != nil && asset.Value > 0 && amountSum+*req.Amount > asset.Value+epsilon {
		result.Valid = false
		result.Reason = "amount allocations for this asset would exceed its value"
	}
	return result, nil
}

// checkReactivation verifies the per-asset limits would still hold once the
// rule's allocations rejoin the totals. Every asset the rule touches is
// locked so the check serializes with concurrent allocation writes.
func (s *Service) checkReactivation(ctx context.Context, ownerID, ruleID uuid.UUID) error {
	allocs, err := s.allocations.ListByRule(ctx, ruleID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
	}

	checked := make(map[uuid.UUID]bool, len(allocs))
	for _, a := range allocs {
		if checked[a.AssetID] {
			continue
		}
		checked[a.AssetID] = true

		asset, err := s.assets.LockForAllocation(ctx, ownerID, a.AssetID)
		if err != nil {
			return assetLoadError(err)
		}
		percentSum, amountSum, err := s.assetTotals(ctx, ownerID, a.AssetID, uuid.Nil, ruleID)
		if err != nil {
			return err
		}
		if percentSum > 100+epsilon {
			s.metrics.IncrementRejected("percent_limit")
			return dErrors.New(dErrors.CodeValidation, "re-activating the rule would push percentage allocations for an asset past 100%")
		}
		if asset.Value > 0 && amountSum > asset.Value+epsilon {
			s.metrics.IncrementRejected("amount_limit")
			return dErrors.New(dErrors.CodeValidation, "re-activating the rule would push amount allocations for an asset past its value")
		}
	}
	return nil
}

// checkLimits enforces the per-asset limits for a proposed write, excluding
// the allocation being replaced from the totals.
func (s *Service) checkLimits(ctx context.Context, ownerID uuid.UUID, asset *estate.Asset, excludeID uuid.UUID, req *models.AllocationRequest) error {
	percentSum, amountSum, err := s.assetTotals(ctx, ownerID, asset.ID, excludeID, uuid.Nil)
	if err != nil {
		return err
	}
	if req.Percentage != nil && percentSum+*req.Percentage > 100+epsilon {
		s.metrics.IncrementRejected("percent_limit")
		return dErrors.New(dErrors.CodeValidation, "percentage allocations for this asset would exceed 100%")
	}
	if req.Amount != nil && asset.Value > 0 && amountSum+*req.Amount > asset.Value+epsilon {
		s.metrics.IncrementRejected("amount_limit")
		return dErrors.New(dErrors.CodeValidation, "amount allocations for this asset would exceed its value")
	}
	return nil
}

// assetTotals sums percentage and amount allocations on one asset across the
// owner's active rules, skipping excludeID. includeRule counts as active
// regardless of its stored flag, for re-activation checks.
func (s *Service) assetTotals(ctx context.Context, ownerID, assetID, excludeID, includeRule uuid.UUID) (float64, float64, error) {
	rules, err := s.rules.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rules")
	}
	active := make(map[uuid.UUID]bool, len(rules))
	for _, r := range rules {
		active[r.ID] = r.Active || r.ID == includeRule
	}

	allocs, err := s.allocations.ListByAsset(ctx, assetID)
	if err != nil {
		return 0, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
	}

	var percentSum, amountSum float64
	for _, a := range allocs {
		if a.ID == excludeID || !active[a.RuleID] {
			continue
		}
		if a.Percentage != nil {
			percentSum += *a.Percentage
		}
		if a.Amount != nil {
			amountSum += *a.Amount
		}
	}
	return percentSum, amountSum, nil
}

// ownedAllocation loads an allocation and proves ownership through its rule.
// A foreign or missing allocation is reported identically.
func (s *Service) ownedAllocation(ctx context.Context, ownerID, id uuid.UUID) (*models.RuleAllocation, *models.InheritanceRule, error) {
	a, err := s.allocations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "allocation not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "allocation store failure")
	}
	rule, err := s.rules.FindByOwnerAndID(ctx, ownerID, a.RuleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "allocation not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "rule store failure")
	}
	return a, rule, nil
}

func ruleLoadError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "rule not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "rule store failure")
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
