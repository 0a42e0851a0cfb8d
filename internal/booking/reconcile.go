package booking

import (
	"context"
	"time"

	"coursebook/internal/logger"
	"coursebook/internal/metrics"
)

// OrphanSweeper cancels stale PENDING work that never produced a payment
// record. Both the booking and bundle repositories implement it.
type OrphanSweeper interface {
	CancelOrphanedPending(ctx context.Context, cutoff time.Time) (int, error)
}

// Reconciler periodically cancels PENDING bookings and bundle bookings that
// never got a payment record, the safety net for a crash between the booking
// insert and the payment-intent write.
type Reconciler struct {
	bookings OrphanSweeper
	bundles  OrphanSweeper
	interval time.Duration
	minAge   time.Duration
}

func NewReconciler(bookings, bundles OrphanSweeper, interval, minAge time.Duration) *Reconciler {
	return &Reconciler{bookings: bookings, bundles: bundles, interval: interval, minAge: minAge}
}

func (r *Reconciler) Start(ctx context.Context) {
	logger.Info("Booking reconciler started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Booking reconciler stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.minAge)
	sweepOne(ctx, "bookings", r.bookings, cutoff)
	sweepOne(ctx, "bundle bookings", r.bundles, cutoff)
}

func sweepOne(ctx context.Context, label string, sweeper OrphanSweeper, cutoff time.Time) {
	n, err := sweeper.CancelOrphanedPending(ctx, cutoff)
	if err != nil {
		logger.Errorf("Reconciliation sweep failed for %s: %v", label, err)
		return
	}
	if n > 0 {
		metrics.OrphanedBookingsSweptTotal.Add(float64(n))
		logger.Infof("Reconciliation sweep cancelled %d orphaned %s", n, label)
	}
}
