package bundle

import (
	"context"
	"time"
)

type Repository interface {
	CreateBundle(ctx context.Context, tenantID int, name string, pricePence int64, courseIDs []int) (*Bundle, error)
	GetBundleByID(ctx context.Context, tenantID, id int) (*Bundle, error)
	ListBundles(ctx context.Context, tenantID int) ([]Bundle, error)
	DeactivateBundle(ctx context.Context, tenantID, id int) error

	// CreateBookingWithReservations reserves one seat on every session and
	// inserts the bundle booking plus its selections in a single transaction.
	// If any session is full nothing at all is written.
	CreateBookingWithReservations(ctx context.Context, tenantID, customerID, bundleID int, sessionIDs []int, totalPence int64, depositPence *int64) (*BundleBooking, error)
	GetBookingByID(ctx context.Context, tenantID, id int) (*BundleBooking, error)
	ConfirmByID(ctx context.Context, id int) error
	// CancelAndRelease cancels the bundle booking and releases every reserved
	// seat, in one transaction.
	CancelAndRelease(ctx context.Context, id int) error
	// CancelOrphanedPending is the reconciliation sweep for bundle bookings
	// stranded in PENDING without a payment record.
	CancelOrphanedPending(ctx context.Context, cutoff time.Time) (int, error)
}
