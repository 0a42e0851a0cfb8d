package payment

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrDuplicateProviderEvent = errors.New("provider event already processed")
)

type Repository interface {
	Create(ctx context.Context, tenantID int, bookingID, bundleBookingID *int, amountPence int64, paymentType Type, intentID string) (*Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (*Payment, error)
	UpdateStatusByIntentID(ctx context.Context, intentID string, status Status) (*Payment, error)
	ListByTenant(ctx context.Context, tenantID int) ([]Payment, error)
	InsertProviderEvent(ctx context.Context, provider, eventID, eventType string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const paymentColumns = `id, tenant_id, booking_id, bundle_booking_id, amount_pence, type, status, intent_id, created_at, updated_at`

func (r *repository) Create(ctx context.Context, tenantID int, bookingID, bundleBookingID *int, amountPence int64, paymentType Type, intentID string) (*Payment, error) {
	query := `
		INSERT INTO payments (tenant_id, booking_id, bundle_booking_id, amount_pence, type, status, intent_id)
		VALUES ($1, $2, $3, $4, $5, 'PENDING', $6)
		RETURNING ` + paymentColumns

	var p Payment
	err := r.db.GetContext(ctx, &p, query, tenantID, bookingID, bundleBookingID, amountPence, paymentType, intentID)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *repository) GetByIntentID(ctx context.Context, intentID string) (*Payment, error) {
	var p Payment
	err := r.db.GetContext(ctx, &p, `SELECT `+paymentColumns+` FROM payments WHERE intent_id = $1`, intentID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpdateStatusByIntentID(ctx context.Context, intentID string, status Status) (*Payment, error) {
	query := `
		UPDATE payments
		SET status = $2, updated_at = NOW()
		WHERE intent_id = $1
		RETURNING ` + paymentColumns

	var p Payment
	err := r.db.GetContext(ctx, &p, query, intentID, status)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListByTenant(ctx context.Context, tenantID int) ([]Payment, error) {
	var payments []Payment
	err := r.db.SelectContext(ctx, &payments,
		`SELECT `+paymentColumns+` FROM payments WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// InsertProviderEvent records a webhook delivery; the unique index on
// (provider, event_id) turns a Stripe replay into ErrDuplicateProviderEvent.
func (r *repository) InsertProviderEvent(ctx context.Context, provider, eventID, eventType string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO provider_events (provider, event_id, event_type)
		VALUES ($1, $2, $3)
	`, provider, eventID, eventType)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateProviderEvent
		}
		return err
	}
	return nil
}
