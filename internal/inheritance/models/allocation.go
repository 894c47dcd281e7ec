package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "heirloom/pkg/domain-errors"
)

// RuleAllocation assigns a share of one asset to one beneficiary under a
// rule. Exactly one of Percentage or Amount is set; the store enforces the
// same with a CHECK constraint.
type RuleAllocation struct {
	ID            uuid.UUID `json:"id"`
	RuleID        uuid.UUID `json:"rule_id"`
	AssetID       uuid.UUID `json:"asset_id"`
	BeneficiaryID uuid.UUID `json:"beneficiary_id"`
	Percentage    *float64  `json:"percentage,omitempty"`
	Amount        *float64  `json:"amount,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AllocationRequest is the create/update/validate payload for allocations.
type AllocationRequest struct {
	AssetID       uuid.UUID `json:"asset_id"`
	BeneficiaryID uuid.UUID `json:"beneficiary_id"`
	Percentage    *float64  `json:"percentage"`
	Amount        *float64  `json:"amount"`
}

func (r *AllocationRequest) Validate() error {
	if r.AssetID == uuid.Nil {
		return dErrors.New(dErrors.CodeValidation, "asset_id is required")
	}
	if r.BeneficiaryID == uuid.Nil {
		return dErrors.New(dErrors.CodeValidation, "beneficiary_id is required")
	}
	if (r.Percentage == nil) == (r.Amount == nil) {
		return dErrors.New(dErrors.CodeValidation, "exactly one of percentage or amount must be set")
	}
	if r.Percentage != nil && (*r.Percentage <= 0 || *r.Percentage > 100) {
		return dErrors.New(dErrors.CodeValidation, "percentage must be greater than 0 and at most 100")
	}
	if r.Amount != nil && *r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be greater than 0")
	}
	return nil
}

// ValidationResult is the response of the dry-run allocation check.
type ValidationResult struct {
	Valid            bool     `json:"valid"`
	Reason           string   `json:"reason,omitempty"`
	PercentAllocated float64  `json:"percent_allocated"`
	PercentRemaining *float64 `json:"percent_remaining,omitempty"`
	AmountAllocated  float64  `json:"amount_allocated"`
	AssetValue       float64  `json:"asset_value"`
}
