package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "heirloom/pkg/domain-errors"
)

// AssetType categorizes an asset for display and reporting.
type AssetType string

const (
	AssetProperty  AssetType = "property"
	AssetFinancial AssetType = "financial"
	AssetPersonal  AssetType = "personal"
	AssetBusiness  AssetType = "business"
	AssetDigital   AssetType = "digital"
)

var assetTypes = map[AssetType]struct{}{
	AssetProperty:  {},
	AssetFinancial: {},
	AssetPersonal:  {},
	AssetBusiness:  {},
	AssetDigital:   {},
}

// Valid reports whether the type is one of the known categories.
func (t AssetType) Valid() bool {
	_, ok := assetTypes[t]
	return ok
}

// Asset is something the user owns and wants to pass on.
//
// Value is a float64 to stay wire-compatible with existing clients; treat it
// as advisory, not ledger-grade.
type Asset struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Type        AssetType `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Value       float64   `json:"value"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AssetRequest is the create/update payload for assets.
type AssetRequest struct {
	Type        AssetType `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Value       float64   `json:"value"`
	Currency    string    `json:"currency"`
}

func (r *AssetRequest) Normalize() {
	r.Type = AssetType(strings.ToLower(strings.TrimSpace(string(r.Type))))
	r.Name = strings.TrimSpace(r.Name)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = "USD"
	}
}

func (r *AssetRequest) Validate() error {
	if !r.Type.Valid() {
		return dErrors.New(dErrors.CodeValidation, "type must be one of property, financial, personal, business, digital")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 255 {
		return dErrors.New(dErrors.CodeValidation, "name must be 255 characters or less")
	}
	if r.Value < 0 {
		return dErrors.New(dErrors.CodeValidation, "value cannot be negative")
	}
	if len(r.Currency) != 3 {
		return dErrors.New(dErrors.CodeValidation, "currency must be a 3-letter code")
	}
	return nil
}
