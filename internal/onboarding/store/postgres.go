package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"heirloom/internal/onboarding/models"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/platform/tx"
)

// Postgres persists onboarding state in the onboarding_states table. Each
// step save updates only that step's columns; completion timestamps use
// COALESCE so a resubmission can never move them.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) EnsureState(ctx context.Context, userID uuid.UUID) error {
	query := `
		INSERT INTO onboarding_states (user_id, updated_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("ensure onboarding state: %w", err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, userID uuid.UUID) (*models.State, error) {
	query := selectState + ` WHERE user_id = $1`
	return scanState(tx.Resolve(ctx, s.db).QueryRowContext(ctx, query, userID))
}

// SaveStep writes the step's payload and flag. The flag column goes to TRUE
// unconditionally (idempotent); the timestamp only fills if still NULL.
func (s *Postgres) SaveStep(ctx context.Context, userID uuid.UUID, step models.Step, req *models.SaveStepRequest, now time.Time) (*models.State, error) {
	q := tx.Resolve(ctx, s.db)

	var res sql.Result
	var err error
	switch step {
	case models.StepPersonalInfo:
		p := req.PersonalInfo
		res, err = q.ExecContext(ctx, `
			UPDATE onboarding_states SET
				date_of_birth = $2, phone = $3,
				address_line1 = $4, address_line2 = $5,
				city = $6, region = $7, postal_code = $8, country = $9,
				personal_info_completed = TRUE,
				personal_info_completed_at = COALESCE(personal_info_completed_at, $10),
				updated_at = $10
			WHERE user_id = $1`,
			userID, p.DateOfBirth, p.Phone, p.AddressLine1, p.AddressLine2,
			p.City, p.Region, p.PostalCode, p.Country, now)
	case models.StepSignature:
		signedAt := now
		if req.Signature.SignedAt != nil {
			signedAt = *req.Signature.SignedAt
		}
		res, err = q.ExecContext(ctx, `
			UPDATE onboarding_states SET
				signature_data = $2,
				signature_signed_at = $3,
				signature_completed = TRUE,
				signature_completed_at = COALESCE(signature_completed_at, $4),
				updated_at = $4
			WHERE user_id = $1`,
			userID, req.Signature.Data, signedAt, now)
	case models.StepLegalConsent:
		res, err = q.ExecContext(ctx, `
			UPDATE onboarding_states SET
				consent_version = $2,
				legal_consent_completed = TRUE,
				legal_consent_completed_at = COALESCE(legal_consent_completed_at, $3),
				updated_at = $3
			WHERE user_id = $1`,
			userID, req.LegalConsent.Version, now)
	case models.StepVerification:
		res, err = q.ExecContext(ctx, `
			UPDATE onboarding_states SET
				verification_ref = $2,
				verification_completed = TRUE,
				verification_completed_at = COALESCE(verification_completed_at, $3),
				updated_at = $3
			WHERE user_id = $1`,
			userID, req.Verification.Reference, now)
	default:
		return nil, fmt.Errorf("save step: invalid step %d", step)
	}
	if err != nil {
		return nil, fmt.Errorf("save step %s: %w", step, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("save step %s: %w", step, err)
	}
	if affected == 0 {
		return nil, sentinel.ErrNotFound
	}

	return s.Find(ctx, userID)
}

const selectState = `
	SELECT user_id,
		date_of_birth, phone, address_line1, address_line2, city, region, postal_code, country,
		signature_data, signature_signed_at, consent_version, verification_ref,
		personal_info_completed, personal_info_completed_at,
		signature_completed, signature_completed_at,
		legal_consent_completed, legal_consent_completed_at,
		verification_completed, verification_completed_at,
		updated_at
	FROM onboarding_states`

func scanState(row *sql.Row) (*models.State, error) {
	var st models.State
	var signedAt sql.NullTime
	var piAt, sigAt, lcAt, vAt sql.NullTime
	err := row.Scan(&st.UserID,
		&st.PersonalInfo.DateOfBirth, &st.PersonalInfo.Phone,
		&st.PersonalInfo.AddressLine1, &st.PersonalInfo.AddressLine2,
		&st.PersonalInfo.City, &st.PersonalInfo.Region,
		&st.PersonalInfo.PostalCode, &st.PersonalInfo.Country,
		&st.Signature.Data, &signedAt, &st.ConsentVersion, &st.VerificationRef,
		&st.PersonalInfoCompleted, &piAt,
		&st.SignatureCompleted, &sigAt,
		&st.LegalConsentCompleted, &lcAt,
		&st.VerificationCompleted, &vAt,
		&st.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan onboarding state: %w", err)
	}
	st.Signature.SignedAt = nullTimePtr(signedAt)
	st.PersonalInfoCompletedAt = nullTimePtr(piAt)
	st.SignatureCompletedAt = nullTimePtr(sigAt)
	st.LegalConsentCompletedAt = nullTimePtr(lcAt)
	st.VerificationCompletedAt = nullTimePtr(vAt)
	return &st, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	copied := t.Time
	return &copied
}
