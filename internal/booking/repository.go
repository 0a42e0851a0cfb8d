package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"coursebook/internal/course"

	"github.com/jmoiron/sqlx"
)

var (
	ErrBookingNotFound       = errors.New("booking not found")
	ErrBookingNotCancellable = errors.New("booking not found or already cancelled")
	ErrBookingNotConfirmable = errors.New("booking is not pending")
	ErrBookingNotCompletable = errors.New("booking is not confirmed")
)

const bookingColumns = `id, tenant_id, customer_id, session_id, status, total_amount_pence, deposit_amount_pence, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateWithReservation(ctx context.Context, tenantID, customerID, sessionID int, totalPence int64, depositPence *int64) (*Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := course.ReserveSpotTx(ctx, tx, sessionID); err != nil {
		return nil, err
	}

	var b Booking
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO bookings (tenant_id, customer_id, session_id, status, total_amount_pence, deposit_amount_pence)
		VALUES ($1, $2, $3, 'PENDING', $4, $5)
		RETURNING `+bookingColumns, tenantID, customerID, sessionID, totalPence, depositPence).StructScan(&b)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &b, nil
}

func (r *repository) GetByID(ctx context.Context, tenantID, id int) (*Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ConfirmByID(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'CONFIRMED', updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`, id)
	if err != nil {
		return err
	}
	return requireRows(result, ErrBookingNotConfirmable)
}

func (r *repository) CompleteByID(ctx context.Context, tenantID, id int) (*Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, `
		UPDATE bookings
		SET status = 'COMPLETED', updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND status = 'CONFIRMED'
		RETURNING `+bookingColumns, id, tenantID)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) CancelAndRelease(ctx context.Context, id int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var sessionID int
	err = tx.QueryRowxContext(ctx, `
		UPDATE bookings
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE id = $1 AND status IN ('PENDING', 'CONFIRMED')
		RETURNING session_id
	`, id).Scan(&sessionID)
	if err != nil {
		return ErrBookingNotCancellable
	}

	if err := course.ReleaseSpotTx(ctx, tx, sessionID); err != nil {
		return err
	}

	return tx.Commit()
}

const bookingDetailColumns = `
	b.id,
	b.tenant_id,
	b.customer_id,
	b.session_id,
	b.status,
	b.total_amount_pence,
	b.deposit_amount_pence,
	b.created_at,
	b.updated_at,
	co.title AS course_title,
	co.id AS course_id,
	s.start_date AS session_start,
	s.end_date AS session_end,
	cu.name AS customer_name,
	cu.email AS customer_email`

func (r *repository) ListByTenant(ctx context.Context, tenantID int) ([]BookingWithDetails, error) {
	query := `
		SELECT ` + bookingDetailColumns + `
		FROM bookings b
		JOIN course_sessions s ON b.session_id = s.id
		JOIN courses co ON s.course_id = co.id
		JOIN customers cu ON b.customer_id = cu.id
		WHERE b.tenant_id = $1
		ORDER BY b.created_at DESC
	`

	var bookings []BookingWithDetails
	err := r.db.SelectContext(ctx, &bookings, query, tenantID)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) ListBySession(ctx context.Context, tenantID, sessionID int) ([]BookingWithDetails, error) {
	query := `
		SELECT ` + bookingDetailColumns + `
		FROM bookings b
		JOIN course_sessions s ON b.session_id = s.id
		JOIN courses co ON s.course_id = co.id
		JOIN customers cu ON b.customer_id = cu.id
		WHERE b.tenant_id = $1 AND b.session_id = $2
		ORDER BY b.created_at DESC
	`

	var bookings []BookingWithDetails
	err := r.db.SelectContext(ctx, &bookings, query, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) CancelOrphanedPending(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var sessionIDs []int
	err = tx.SelectContext(ctx, &sessionIDs, `
		UPDATE bookings
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE status = 'PENDING'
		  AND created_at < $1
		  AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.booking_id = bookings.id)
		RETURNING session_id
	`, cutoff)
	if err != nil {
		return 0, err
	}

	for _, sessionID := range sessionIDs {
		if err := course.ReleaseSpotTx(ctx, tx, sessionID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return len(sessionIDs), nil
}

func requireRows(result sql.Result, missing error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
