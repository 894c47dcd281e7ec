package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"heirloom/internal/estate/models"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/platform/tx"
)

// Postgres persists assets in the assets table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, a *models.Asset) error {
	query := `
		INSERT INTO assets (id, owner_id, asset_type, name, description, value, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		a.ID, a.OwnerID, a.Type, a.Name, a.Description, a.Value, a.Currency, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, a *models.Asset) error {
	query := `
		UPDATE assets
		SET asset_type = $3, name = $4, description = $5, value = $6, currency = $7, updated_at = $8
		WHERE id = $1 AND owner_id = $2
	`
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		a.ID, a.OwnerID, a.Type, a.Name, a.Description, a.Value, a.Currency, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*models.Asset, error) {
	query := selectAsset + ` WHERE id = $1 AND owner_id = $2`
	return scanAsset(tx.Resolve(ctx, s.db).QueryRowContext(ctx, query, id, ownerID))
}

func (s *Postgres) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Asset, error) {
	query := selectAsset + ` WHERE owner_id = $1 ORDER BY created_at`
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []*models.Asset
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Type, &a.Name, &a.Description, &a.Value, &a.Currency, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx,
		`DELETE FROM assets WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return requireRow(res)
}

// LockForAllocation locks the asset row for the duration of the surrounding
// transaction. The allocation engine calls this before recomputing sums so
// concurrent allocation writes on one asset serialize.
func (s *Postgres) LockForAllocation(ctx context.Context, ownerID, id uuid.UUID) (*models.Asset, error) {
	query := selectAsset + ` WHERE id = $1 AND owner_id = $2 FOR UPDATE`
	return scanAsset(tx.Resolve(ctx, s.db).QueryRowContext(ctx, query, id, ownerID))
}

const selectAsset = `
	SELECT id, owner_id, asset_type, name, description, value, currency, created_at, updated_at
	FROM assets`

func scanAsset(row *sql.Row) (*models.Asset, error) {
	var a models.Asset
	err := row.Scan(&a.ID, &a.OwnerID, &a.Type, &a.Name, &a.Description, &a.Value, &a.Currency, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan asset: %w", err)
	}
	return &a, nil
}

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
