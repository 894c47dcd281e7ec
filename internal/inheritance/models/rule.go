package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "heirloom/pkg/domain-errors"
)

// DefaultPriority is assigned when a rule request omits priority. Lower
// numbers sort first in listings.
const DefaultPriority = 100

// InheritanceRule is a named, prioritized container of allocations belonging
// to one user. Inactive rules keep their allocations but those allocations no
// longer count toward per-asset limits.
type InheritanceRule struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	Priority  int       `json:"priority"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RuleRequest is the create/update payload for rules. Priority and Active
// are pointers so an absent field falls back to the default rather than zero.
type RuleRequest struct {
	Name     string `json:"name"`
	Priority *int   `json:"priority"`
	Active   *bool  `json:"active"`
}

func (r *RuleRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *RuleRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 255 {
		return dErrors.New(dErrors.CodeValidation, "name must be 255 characters or less")
	}
	if r.Priority != nil && *r.Priority < 0 {
		return dErrors.New(dErrors.CodeValidation, "priority cannot be negative")
	}
	return nil
}

// EffectivePriority returns the requested priority or the default.
func (r *RuleRequest) EffectivePriority() int {
	if r.Priority != nil {
		return *r.Priority
	}
	return DefaultPriority
}

// EffectiveActive returns the requested active flag, defaulting to true.
func (r *RuleRequest) EffectiveActive() bool {
	if r.Active != nil {
		return *r.Active
	}
	return true
}
