package allocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"heirloom/internal/inheritance/models"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/platform/tx"
)

// Postgres persists allocations in the rule_allocations table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, a *models.RuleAllocation) error {
	query := `
		INSERT INTO rule_allocations (id, rule_id, asset_id, beneficiary_id, percentage, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		a.ID, a.RuleID, a.AssetID, a.BeneficiaryID, a.Percentage, a.Amount, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create allocation: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, a *models.RuleAllocation) error {
	query := `
		UPDATE rule_allocations
		SET asset_id = $2, beneficiary_id = $3, percentage = $4, amount = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		a.ID, a.AssetID, a.BeneficiaryID, a.Percentage, a.Amount, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update allocation: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.RuleAllocation, error) {
	query := selectAllocation + ` WHERE id = $1`
	row := tx.Resolve(ctx, s.db).QueryRowContext(ctx, query, id)

	var a models.RuleAllocation
	err := row.Scan(&a.ID, &a.RuleID, &a.AssetID, &a.BeneficiaryID, &a.Percentage, &a.Amount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find allocation: %w", err)
	}
	return &a, nil
}

func (s *Postgres) ListByRule(ctx context.Context, ruleID uuid.UUID) ([]*models.RuleAllocation, error) {
	return s.list(ctx, selectAllocation+` WHERE rule_id = $1 ORDER BY created_at`, ruleID)
}

func (s *Postgres) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.RuleAllocation, error) {
	return s.list(ctx, selectAllocation+` WHERE asset_id = $1 ORDER BY created_at`, assetID)
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx,
		`DELETE FROM rule_allocations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	return requireRow(res)
}

// DeleteByRule exists for store interface parity; the foreign key already
// cascades when the rule row goes away.
func (s *Postgres) DeleteByRule(ctx context.Context, ruleID uuid.UUID) error {
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx,
		`DELETE FROM rule_allocations WHERE rule_id = $1`, ruleID)
	if err != nil {
		return fmt.Errorf("delete allocations by rule: %w", err)
	}
	return nil
}

func (s *Postgres) list(ctx context.Context, query string, arg any) ([]*models.RuleAllocation, error) {
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var out []*models.RuleAllocation
	for rows.Next() {
		var a models.RuleAllocation
		if err := rows.Scan(&a.ID, &a.RuleID, &a.AssetID, &a.BeneficiaryID, &a.Percentage, &a.Amount, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

const selectAllocation = `
	SELECT id, rule_id, asset_id, beneficiary_id, percentage, amount, created_at, updated_at
	FROM rule_allocations`

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
