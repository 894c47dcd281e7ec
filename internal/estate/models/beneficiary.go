package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "heirloom/pkg/domain-errors"
)

// Relationship describes how a beneficiary relates to the user.
type Relationship string

const (
	RelSpouse  Relationship = "spouse"
	RelChild   Relationship = "child"
	RelParent  Relationship = "parent"
	RelSibling Relationship = "sibling"
	RelFriend  Relationship = "friend"
	RelCharity Relationship = "charity"
	RelOther   Relationship = "other"
)

var relationships = map[Relationship]struct{}{
	RelSpouse: {}, RelChild: {}, RelParent: {}, RelSibling: {},
	RelFriend: {}, RelCharity: {}, RelOther: {},
}

func (r Relationship) Valid() bool {
	_, ok := relationships[r]
	return ok
}

// Address holds contact address fields shared by create and update payloads.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Beneficiary is a person or organization named to inherit.
type Beneficiary struct {
	ID           uuid.UUID    `json:"id"`
	OwnerID      uuid.UUID    `json:"owner_id"`
	FullName     string       `json:"full_name"`
	Relationship Relationship `json:"relationship"`
	Email        string       `json:"email,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	Address      Address      `json:"address"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// BeneficiaryRequest is the create/update payload for beneficiaries.
type BeneficiaryRequest struct {
	FullName     string       `json:"full_name"`
	Relationship Relationship `json:"relationship"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	Address      Address      `json:"address"`
}

func (r *BeneficiaryRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Relationship = Relationship(strings.ToLower(strings.TrimSpace(string(r.Relationship))))
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *BeneficiaryRequest) Validate() error {
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if len(r.FullName) > 255 {
		return dErrors.New(dErrors.CodeValidation, "full_name must be 255 characters or less")
	}
	if !r.Relationship.Valid() {
		return dErrors.New(dErrors.CodeValidation, "relationship must be one of spouse, child, parent, sibling, friend, charity, other")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	return nil
}
