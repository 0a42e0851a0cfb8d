package bundle

import (
	"context"
	"errors"
	"time"

	"coursebook/internal/course"

	"github.com/jmoiron/sqlx"
)

var (
	ErrBundleNotFound        = errors.New("bundle not found")
	ErrBookingNotCancellable = errors.New("bundle booking not found or already cancelled")
	ErrBookingNotConfirmable = errors.New("bundle booking is not pending")
)

const bundleBookingColumns = `id, tenant_id, customer_id, bundle_id, status, total_amount_pence, deposit_amount_pence, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBundle(ctx context.Context, tenantID int, name string, pricePence int64, courseIDs []int) (*Bundle, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var b Bundle
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO bundles (tenant_id, name, price_pence, active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, tenant_id, name, price_pence, active, created_at
	`, tenantID, name, pricePence).StructScan(&b)
	if err != nil {
		return nil, err
	}

	for _, courseID := range courseIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bundle_courses (bundle_id, course_id)
			VALUES ($1, $2)
		`, b.ID, courseID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	b.CourseIDs = courseIDs
	return &b, nil
}

func (r *repository) GetBundleByID(ctx context.Context, tenantID, id int) (*Bundle, error) {
	var b Bundle
	err := r.db.GetContext(ctx, &b, `
		SELECT id, tenant_id, name, price_pence, active, created_at
		FROM bundles
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &b.CourseIDs,
		`SELECT course_id FROM bundle_courses WHERE bundle_id = $1 ORDER BY course_id`, b.ID)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func (r *repository) ListBundles(ctx context.Context, tenantID int) ([]Bundle, error) {
	var bundles []Bundle
	err := r.db.SelectContext(ctx, &bundles, `
		SELECT id, tenant_id, name, price_pence, active, created_at
		FROM bundles
		WHERE tenant_id = $1 AND active = TRUE
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, err
	}

	for i := range bundles {
		err = r.db.SelectContext(ctx, &bundles[i].CourseIDs,
			`SELECT course_id FROM bundle_courses WHERE bundle_id = $1 ORDER BY course_id`, bundles[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return bundles, nil
}

func (r *repository) DeactivateBundle(ctx context.Context, tenantID, id int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bundles SET active = FALSE WHERE id = $1 AND tenant_id = $2 AND active = TRUE
	`, id, tenantID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBundleNotFound
	}
	return nil
}

func (r *repository) CreateBookingWithReservations(ctx context.Context, tenantID, customerID, bundleID int, sessionIDs []int, totalPence int64, depositPence *int64) (*BundleBooking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// All seats reserve inside the same transaction, so a full session rolls
	// back every earlier reservation and leaves no records behind.
	for _, sessionID := range sessionIDs {
		if err := course.ReserveSpotTx(ctx, tx, sessionID); err != nil {
			return nil, err
		}
	}

	var bb BundleBooking
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO bundle_bookings (tenant_id, customer_id, bundle_id, status, total_amount_pence, deposit_amount_pence)
		VALUES ($1, $2, $3, 'PENDING', $4, $5)
		RETURNING `+bundleBookingColumns, tenantID, customerID, bundleID, totalPence, depositPence).StructScan(&bb)
	if err != nil {
		return nil, err
	}

	for _, sessionID := range sessionIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bundle_booking_sessions (bundle_booking_id, session_id)
			VALUES ($1, $2)
		`, bb.ID, sessionID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	bb.SessionIDs = sessionIDs
	return &bb, nil
}

func (r *repository) GetBookingByID(ctx context.Context, tenantID, id int) (*BundleBooking, error) {
	var bb BundleBooking
	err := r.db.GetContext(ctx, &bb,
		`SELECT `+bundleBookingColumns+` FROM bundle_bookings WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &bb.SessionIDs,
		`SELECT session_id FROM bundle_booking_sessions WHERE bundle_booking_id = $1 ORDER BY session_id`, bb.ID)
	if err != nil {
		return nil, err
	}

	return &bb, nil
}

func (r *repository) ConfirmByID(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bundle_bookings
		SET status = 'CONFIRMED', updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotConfirmable
	}
	return nil
}

func (r *repository) CancelAndRelease(ctx context.Context, id int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE bundle_bookings
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE id = $1 AND status IN ('PENDING', 'CONFIRMED')
	`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotCancellable
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE course_sessions
		SET booked_spots = booked_spots - 1
		WHERE booked_spots > 0
		  AND id IN (SELECT session_id FROM bundle_booking_sessions WHERE bundle_booking_id = $1)
	`, id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// CancelOrphanedPending cancels PENDING bundle bookings older than the cutoff
// that never got a payment record and releases every seat they hold. The
// booking sweep has the same shape for single bookings.
func (r *repository) CancelOrphanedPending(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var bookingIDs []int
	err = tx.SelectContext(ctx, &bookingIDs, `
		UPDATE bundle_bookings
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE status = 'PENDING'
		  AND created_at < $1
		  AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.bundle_booking_id = bundle_bookings.id)
		RETURNING id
	`, cutoff)
	if err != nil {
		return 0, err
	}

	for _, id := range bookingIDs {
		_, err = tx.ExecContext(ctx, `
			UPDATE course_sessions
			SET booked_spots = booked_spots - 1
			WHERE booked_spots > 0
			  AND id IN (SELECT session_id FROM bundle_booking_sessions WHERE bundle_booking_id = $1)
		`, id)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return len(bookingIDs), nil
}
