package audit

import "time"

// Actions emitted by the estate-planning verticals.
const (
	ActionSignup             = "auth.signup"
	ActionLogin              = "auth.login"
	ActionStepSaved          = "onboarding.step_saved"
	ActionAssetCreated       = "asset.created"
	ActionAssetUpdated       = "asset.updated"
	ActionAssetDeleted       = "asset.deleted"
	ActionBeneficiaryCreated = "beneficiary.created"
	ActionBeneficiaryUpdated = "beneficiary.updated"
	ActionBeneficiaryDeleted = "beneficiary.deleted"
	ActionRuleCreated        = "rule.created"
	ActionRuleUpdated        = "rule.updated"
	ActionRuleDeleted        = "rule.deleted"
	ActionAllocationCreated  = "allocation.created"
	ActionAllocationUpdated  = "allocation.updated"
	ActionAllocationDeleted  = "allocation.deleted"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity,omitempty"`
	EntityID  string    `json:"entity_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
