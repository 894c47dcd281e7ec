package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	dErrors "heirloom/pkg/domain-errors"
)

// Step indexes the fixed four-step onboarding sequence.
type Step int

const (
	StepPersonalInfo Step = iota
	StepSignature
	StepLegalConsent
	StepVerification

	// StepCount is the number of onboarding steps.
	StepCount = 4
)

var stepNames = [StepCount]string{"personal_info", "signature", "legal_consent", "verification"}

// Valid reports whether the step index is within [0, StepCount).
func (s Step) Valid() bool {
	return s >= 0 && s < StepCount
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// PersonalInfo is the step-0 payload persisted on the state.
type PersonalInfo struct {
	DateOfBirth  string `json:"date_of_birth"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// Signature is the captured signature image plus the moment of signing.
type Signature struct {
	// Data is a base64-encoded PNG produced by the signature pad.
	Data     string     `json:"data"`
	SignedAt *time.Time `json:"signed_at,omitempty"`
}

// State is one user's onboarding progress. Completion booleans flip true
// exactly once per step; timestamps are set when the flag first flips and are
// never reset by normal flow.
type State struct {
	UserID uuid.UUID `json:"user_id"`

	PersonalInfo    PersonalInfo `json:"personal_info"`
	Signature       Signature    `json:"signature"`
	ConsentVersion  string       `json:"consent_version,omitempty"`
	VerificationRef string       `json:"verification_ref,omitempty"`

	PersonalInfoCompleted   bool       `json:"personal_info_completed"`
	PersonalInfoCompletedAt *time.Time `json:"personal_info_completed_at,omitempty"`
	SignatureCompleted      bool       `json:"signature_completed"`
	SignatureCompletedAt    *time.Time `json:"signature_completed_at,omitempty"`
	LegalConsentCompleted   bool       `json:"legal_consent_completed"`
	LegalConsentCompletedAt *time.Time `json:"legal_consent_completed_at,omitempty"`
	VerificationCompleted   bool       `json:"verification_completed"`
	VerificationCompletedAt *time.Time `json:"verification_completed_at,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// StepDone reports whether the given step's flag is set.
func (s *State) StepDone(step Step) bool {
	switch step {
	case StepPersonalInfo:
		return s.PersonalInfoCompleted
	case StepSignature:
		return s.SignatureCompleted
	case StepLegalConsent:
		return s.LegalConsentCompleted
	case StepVerification:
		return s.VerificationCompleted
	default:
		return false
	}
}

// StepCompletedAt returns the completion timestamp for the given step.
func (s *State) StepCompletedAt(step Step) *time.Time {
	switch step {
	case StepPersonalInfo:
		return s.PersonalInfoCompletedAt
	case StepSignature:
		return s.SignatureCompletedAt
	case StepLegalConsent:
		return s.LegalConsentCompletedAt
	case StepVerification:
		return s.VerificationCompletedAt
	default:
		return nil
	}
}

// Completed derives overall completion as the logical AND of the four flags.
// Kept as a pure function rather than a stored column so the invariant holds
// across every storage backend.
func (s *State) Completed() bool {
	return s.PersonalInfoCompleted &&
		s.SignatureCompleted &&
		s.LegalConsentCompleted &&
		s.VerificationCompleted
}

// CurrentStep returns the first incomplete step in fixed order. ok is false
// when all steps are complete.
func (s *State) CurrentStep() (step Step, ok bool) {
	for i := Step(0); i < StepCount; i++ {
		if !s.StepDone(i) {
			return i, true
		}
	}
	return 0, false
}

// ApplyStep writes the step payload onto the state, sets the step's flag, and
// sets its timestamp only when previously unset. Both store implementations
// funnel through this so resubmission overwrites data without moving the
// timestamp or touching other steps.
func ApplyStep(s *State, step Step, req *SaveStepRequest, now time.Time) error {
	switch step {
	case StepPersonalInfo:
		s.PersonalInfo = *req.PersonalInfo
		s.PersonalInfoCompleted = true
		if s.PersonalInfoCompletedAt == nil {
			s.PersonalInfoCompletedAt = &now
		}
	case StepSignature:
		signedAt := now
		if req.Signature.SignedAt != nil {
			signedAt = *req.Signature.SignedAt
		}
		s.Signature = Signature{Data: req.Signature.Data, SignedAt: &signedAt}
		s.SignatureCompleted = true
		if s.SignatureCompletedAt == nil {
			s.SignatureCompletedAt = &now
		}
	case StepLegalConsent:
		s.ConsentVersion = req.LegalConsent.Version
		s.LegalConsentCompleted = true
		if s.LegalConsentCompletedAt == nil {
			s.LegalConsentCompletedAt = &now
		}
	case StepVerification:
		s.VerificationRef = req.Verification.Reference
		s.VerificationCompleted = true
		if s.VerificationCompletedAt == nil {
			s.VerificationCompletedAt = &now
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "step index out of range")
	}
	s.UpdatedAt = now
	return nil
}

// SaveStepRequest is the union payload for POST /onboarding/steps/{step}.
// Exactly the member matching the step index must be present.
type SaveStepRequest struct {
	PersonalInfo *PersonalInfo        `json:"personal_info,omitempty"`
	Signature    *SignaturePayload    `json:"signature,omitempty"`
	LegalConsent *LegalConsentPayload `json:"legal_consent,omitempty"`
	Verification *VerificationPayload `json:"verification,omitempty"`
}

// SignaturePayload carries the captured signature for step 1.
type SignaturePayload struct {
	Data     string     `json:"data"`
	SignedAt *time.Time `json:"signed_at,omitempty"`
}

// LegalConsentPayload records acceptance of a specific terms version.
type LegalConsentPayload struct {
	Accepted bool   `json:"accepted"`
	Version  string `json:"version"`
}

// VerificationPayload marks identity verification done, with an optional
// reference from the external provider.
type VerificationPayload struct {
	Confirmed bool   `json:"confirmed"`
	Reference string `json:"reference,omitempty"`
}

// ValidateFor checks that the payload matches the step being saved.
func (r *SaveStepRequest) ValidateFor(step Step) error {
	switch step {
	case StepPersonalInfo:
		if r.PersonalInfo == nil {
			return dErrors.New(dErrors.CodeValidation, "personal_info payload is required for step 0")
		}
		if r.PersonalInfo.DateOfBirth == "" {
			return dErrors.New(dErrors.CodeValidation, "date_of_birth is required")
		}
		if _, err := time.Parse("2006-01-02", r.PersonalInfo.DateOfBirth); err != nil {
			return dErrors.New(dErrors.CodeValidation, "date_of_birth must be YYYY-MM-DD")
		}
	case StepSignature:
		if r.Signature == nil || r.Signature.Data == "" {
			return dErrors.New(dErrors.CodeValidation, "signature data is required for step 1")
		}
	case StepLegalConsent:
		if r.LegalConsent == nil || !r.LegalConsent.Accepted {
			return dErrors.New(dErrors.CodeValidation, "legal consent must be accepted for step 2")
		}
		if r.LegalConsent.Version == "" {
			return dErrors.New(dErrors.CodeValidation, "consent version is required")
		}
	case StepVerification:
		if r.Verification == nil || !r.Verification.Confirmed {
			return dErrors.New(dErrors.CodeValidation, "verification confirmation is required for step 3")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "step index out of range")
	}
	return nil
}

// SaveStepResult reports what comes after a successful save.
type SaveStepResult struct {
	// NextStep is nil when onboarding is complete.
	NextStep  *int `json:"next_step"`
	Completed bool `json:"completed"`
}

// StepStatus is one row of the orchestrator's status view.
type StepStatus struct {
	Index       int        `json:"index"`
	Name        string     `json:"name"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// StatusResponse is the read-only orchestrator view. CurrentStep is the name
// of the first incomplete step, or "complete".
type StatusResponse struct {
	CurrentStep         string       `json:"current_step"`
	OnboardingCompleted bool         `json:"onboarding_completed"`
	Steps               []StepStatus `json:"steps"`
}

// StatusFrom derives the orchestrator view from state. Pure; never mutates.
func StatusFrom(s *State) *StatusResponse {
	resp := &StatusResponse{
		OnboardingCompleted: s.Completed(),
		Steps:               make([]StepStatus, 0, StepCount),
	}
	for i := Step(0); i < StepCount; i++ {
		resp.Steps = append(resp.Steps, StepStatus{
			Index:       int(i),
			Name:        i.String(),
			Completed:   s.StepDone(i),
			CompletedAt: s.StepCompletedAt(i),
		})
	}
	if current, ok := s.CurrentStep(); ok {
		resp.CurrentStep = current.String()
	} else {
		resp.CurrentStep = "complete"
	}
	return resp
}
