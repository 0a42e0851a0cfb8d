package payment

import "time"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusFailed   Status = "FAILED"
	StatusRefunded Status = "REFUNDED"
)

type Type string

const (
	TypeFull    Type = "full"
	TypeDeposit Type = "deposit"
)

// Payment mirrors one external payment intent. Exactly one of BookingID and
// BundleBookingID is set.
type Payment struct {
	ID              int       `db:"id" json:"id"`
	TenantID        int       `db:"tenant_id" json:"tenant_id"`
	BookingID       *int      `db:"booking_id" json:"booking_id,omitempty"`
	BundleBookingID *int      `db:"bundle_booking_id" json:"bundle_booking_id,omitempty"`
	AmountPence     int64     `db:"amount_pence" json:"amount_pence"`
	Type            Type      `db:"type" json:"type"`
	Status          Status    `db:"status" json:"status"`
	IntentID        string    `db:"intent_id" json:"intent_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
