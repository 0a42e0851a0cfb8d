package booking

import (
	"context"
	"time"
)

type Repository interface {
	// CreateWithReservation reserves a seat and inserts the PENDING booking in
	// one transaction; returns course.ErrSessionFull without writing anything
	// when the session has no seats left.
	CreateWithReservation(ctx context.Context, tenantID, customerID, sessionID int, totalPence int64, depositPence *int64) (*Booking, error)
	GetByID(ctx context.Context, tenantID, id int) (*Booking, error)
	ConfirmByID(ctx context.Context, id int) error
	CompleteByID(ctx context.Context, tenantID, id int) (*Booking, error)
	// CancelAndRelease flips the booking to CANCELLED and gives its seat back,
	// in one transaction.
	CancelAndRelease(ctx context.Context, id int) error
	ListByTenant(ctx context.Context, tenantID int) ([]BookingWithDetails, error)
	ListBySession(ctx context.Context, tenantID, sessionID int) ([]BookingWithDetails, error)
	// CancelOrphanedPending sweeps PENDING bookings older than cutoff that have
	// no payment row, releasing their seats. Returns how many were cancelled.
	CancelOrphanedPending(ctx context.Context, cutoff time.Time) (int, error)
}
