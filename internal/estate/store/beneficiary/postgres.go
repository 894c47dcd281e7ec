package beneficiary

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

// Postgres persists beneficiaries in the beneficiaries table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, b *models.Beneficiary) error {
	query := `
		INSERT INTO beneficiaries (id, owner_id, full_name, relationship, email, phone,
			address_line1, address_line2, city, region, postal_code, country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		b.ID, b.OwnerID, b.FullName, b.Relationship, b.Email, b.Phone,
		b.Address.Line1, b.Address.Line2, b.Address.City, b.Address.Region,
		b.Address.PostalCode, b.Address.Country, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create beneficiary: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, b *models.Beneficiary) error {
	query := `
		UPDATE beneficiaries
		SET full_name = $3, relationship = $4, email = $5, phone = $6,
			address_line1 = $7, address_line2 = $8, city = $9, region = $10,
			postal_code = $11, country = $12, updated_at = $13
		WHERE id = $1 AND owner_id = $2
	`
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		b.ID, b.OwnerID, b.FullName, b.Relationship, b.Email, b.Phone,
		b.Address.Line1, b.Address.Line2, b.Address.City, b.Address.Region,
		b.Address.PostalCode, b.Address.Country, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update beneficiary: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*models.Beneficiary, error) {
	query := selectBeneficiary + ` WHERE id = $1 AND owner_id = $2`
	row := tx.Resolve(ctx, s.db).QueryRowContext(ctx, query, id, ownerID)

	var b models.Beneficiary
	if err := scanBeneficiary(row.Scan, &b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find beneficiary: %w", err)
	}
	return &b, nil
}

func (s *Postgres) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Beneficiary, error) {
	query := selectBeneficiary + ` WHERE owner_id = $1 ORDER BY created_at`
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	defer rows.Close()

	var out []*models.Beneficiary
	for rows.Next() {
		var b models.Beneficiary
		if err := scanBeneficiary(rows.Scan, &b); err != nil {
			return nil, fmt.Errorf("scan beneficiary: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx,
		`DELETE FROM beneficiaries WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete beneficiary: %w", err)
	}
	return requireRow(res)
}

const selectBeneficiary = `
	SELECT id, owner_id, full_name, relationship, email, phone,
		address_line1, address_line2, city, region, postal_code, country, created_at, updated_at
	FROM beneficiaries`

func scanBeneficiary(scan func(...any) error, b *models.Beneficiary) error {
	return scan(&b.ID, &b.OwnerID, &b.FullName, &b.Relationship, &b.Email, &b.Phone,
		&b.Address.Line1, &b.Address.Line2, &b.Address.City, &b.Address.Region,
		&b.Address.PostalCode, &b.Address.Country, &b.CreatedAt, &b.UpdatedAt)
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
