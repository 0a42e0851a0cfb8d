package customer

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Upsert finds or creates the customer for (tenant, email) in one statement.
// A concurrent first booking for the same new email lands on the conflict arm
// instead of failing on the unique index.
func (r *repository) Upsert(ctx context.Context, tenantID int, email, name, phone string) (*Customer, error) {
	query := `
		INSERT INTO customers (tenant_id, email, name, phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, email) DO UPDATE
		SET name = COALESCE(NULLIF(EXCLUDED.name, ''), customers.name),
		    phone = COALESCE(NULLIF(EXCLUDED.phone, ''), customers.phone),
		    updated_at = NOW()
		RETURNING id, tenant_id, email, name, phone, created_at, updated_at
	`

	var cust Customer
	err := r.db.GetContext(ctx, &cust, query, tenantID, email, name, phone)
	if err != nil {
		return nil, err
	}

	return &cust, nil
}

func (r *repository) GetByID(ctx context.Context, tenantID, id int) (*Customer, error) {
	query := `
		SELECT id, tenant_id, email, name, phone, created_at, updated_at
		FROM customers
		WHERE id = $1 AND tenant_id = $2
	`

	var cust Customer
	err := r.db.GetContext(ctx, &cust, query, id, tenantID)
	if err != nil {
		return nil, err
	}

	return &cust, nil
}

func (r *repository) List(ctx context.Context, tenantID int) ([]Customer, error) {
	query := `
		SELECT id, tenant_id, email, name, phone, created_at, updated_at
		FROM customers
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	var customers []Customer
	err := r.db.SelectContext(ctx, &customers, query, tenantID)
	if err != nil {
		return nil, err
	}

	return customers, nil
}

func (r *repository) Count(ctx context.Context, tenantID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM customers WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return 0, err
	}
	return count, nil
}
