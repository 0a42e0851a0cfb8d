package bundle

import (
	"time"

	"coursebook/internal/payment"
)

// Bundle is a discounted grouping of courses sold as one purchase.
type Bundle struct {
	ID         int       `db:"id" json:"id"`
	TenantID   int       `db:"tenant_id" json:"tenant_id"`
	Name       string    `db:"name" json:"name"`
	PricePence int64     `db:"price_pence" json:"price_pence"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	CourseIDs  []int     `db:"-" json:"course_ids"`
}

type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// BundleBooking covers one seat on each selected session with a single
// aggregate payment.
type BundleBooking struct {
	ID                 int           `db:"id" json:"id"`
	TenantID           int           `db:"tenant_id" json:"tenant_id"`
	CustomerID         int           `db:"customer_id" json:"customer_id"`
	BundleID           int           `db:"bundle_id" json:"bundle_id"`
	Status             BookingStatus `db:"status" json:"status"`
	TotalAmountPence   int64         `db:"total_amount_pence" json:"total_amount_pence"`
	DepositAmountPence *int64        `db:"deposit_amount_pence" json:"deposit_amount_pence,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
	SessionIDs         []int         `db:"-" json:"session_ids"`
}

type CreateBundleRequest struct {
	Name       string `json:"name" binding:"required"`
	PricePence int64  `json:"price_pence" binding:"required,min=0"`
	CourseIDs  []int  `json:"course_ids" binding:"required,min=2"`
}

type CreateBundleBookingRequest struct {
	BundleID    int    `json:"bundle_id" binding:"required"`
	SessionIDs  []int  `json:"session_ids" binding:"required,min=1"`
	Email       string `json:"email" binding:"required,email"`
	Name        string `json:"name" binding:"required"`
	Phone       string `json:"phone"`
	PaymentType string `json:"payment_type" binding:"required,oneof=full deposit"`
}

type CreateBundleBookingResponse struct {
	BundleBooking *BundleBooking   `json:"bundle_booking"`
	Payment       *payment.Payment `json:"payment"`
	ClientSecret  string           `json:"client_secret"`
}
