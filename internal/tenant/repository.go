package tenant

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrDuplicateSlug       = errors.New("tenant slug already taken")
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrTenantAlreadyActive = errors.New("tenant already in requested state")
)

const tenantColumns = `id, slug, name, plan, deposit_percent, primary_color, secondary_color,
	stripe_customer_id, stripe_subscription_id, active, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, slug, name string, plan Plan, primaryColor, secondaryColor string) (*Tenant, error) {
	query := `
		INSERT INTO tenants (slug, name, plan, deposit_percent, primary_color, secondary_color, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING ` + tenantColumns

	var t Tenant
	err := r.db.GetContext(ctx, &t, query, slug, name, plan, DefaultDepositPercent, primaryColor, secondaryColor)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}

	return &t, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Tenant, error) {
	var t Tenant
	err := r.db.GetContext(ctx, &t, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	var t Tenant
	err := r.db.GetContext(ctx, &t, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) List(ctx context.Context) ([]Tenant, error) {
	var tenants []Tenant
	err := r.db.SelectContext(ctx, &tenants, `SELECT `+tenantColumns+` FROM tenants ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *repository) UpdateBranding(ctx context.Context, id int, name, primaryColor, secondaryColor string, depositPercent *int) (*Tenant, error) {
	query := `
		UPDATE tenants
		SET name = COALESCE(NULLIF($2, ''), name),
		    primary_color = COALESCE(NULLIF($3, ''), primary_color),
		    secondary_color = COALESCE(NULLIF($4, ''), secondary_color),
		    deposit_percent = COALESCE($5, deposit_percent),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + tenantColumns

	var t Tenant
	err := r.db.GetContext(ctx, &t, query, id, name, primaryColor, secondaryColor, depositPercent)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) UpdatePlan(ctx context.Context, id int, plan Plan) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET plan = $2, updated_at = NOW() WHERE id = $1`, id, plan)
	if err != nil {
		return err
	}
	return requireRowsAffected(result, ErrTenantNotFound)
}

func (r *repository) SetStripeRefs(ctx context.Context, id int, customerID, subscriptionID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tenants
		SET stripe_customer_id = NULLIF($2, ''),
		    stripe_subscription_id = NULLIF($3, ''),
		    updated_at = NOW()
		WHERE id = $1
	`, id, customerID, subscriptionID)
	if err != nil {
		return err
	}
	return requireRowsAffected(result, ErrTenantNotFound)
}

// SetActive deactivates a tenant instead of deleting it, so its bookings and
// payment history stay queryable.
func (r *repository) SetActive(ctx context.Context, id int, active bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tenants
		SET active = $2, updated_at = NOW()
		WHERE id = $1 AND active <> $2
	`, id, active)
	if err != nil {
		return err
	}
	return requireRowsAffected(result, ErrTenantAlreadyActive)
}

func requireRowsAffected(result sql.Result, missing error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
