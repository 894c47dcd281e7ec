package rule

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

// Postgres persists rules in the inheritance_rules table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, r *models.InheritanceRule) error {
	query := `
		INSERT INTO inheritance_rules (id, owner_id, name, priority, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		r.ID, r.OwnerID, r.Name, r.Priority, r.Active, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, r *models.InheritanceRule) error {
	query := `
		UPDATE inheritance_rules
		SET name = $3, priority = $4, active = $5, updated_at = $6
		WHERE id = $1 AND owner_id = $2
	`
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		r.ID, r.OwnerID, r.Name, r.Priority, r.Active, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*models.InheritanceRule, error) {
	query := selectRule + ` WHERE id = $1 AND owner_id = $2`
	row := tx.Resolve(ctx, s.db).QueryRowContext(ctx, query, id, ownerID)

	var r models.InheritanceRule
	err := row.Scan(&r.ID, &r.OwnerID, &r.Name, &r.Priority, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find rule: %w", err)
	}
	return &r, nil
}

func (s *Postgres) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.InheritanceRule, error) {
	query := selectRule + ` WHERE owner_id = $1 ORDER BY priority, created_at`
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []*models.InheritanceRule
	for rows.Next() {
		var r models.InheritanceRule
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Name, &r.Priority, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx,
		`DELETE FROM inheritance_rules WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return requireRow(res)
}

const selectRule = `
	SELECT id, owner_id, name, priority, active, created_at, updated_at
	FROM inheritance_rules`

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
