package booking

import (
	"time"

	"coursebook/internal/payment"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

type Booking struct {
	ID                 int       `db:"id" json:"id"`
	TenantID           int       `db:"tenant_id" json:"tenant_id"`
	CustomerID         int       `db:"customer_id" json:"customer_id"`
	SessionID          int       `db:"session_id" json:"session_id"`
	Status             Status    `db:"status" json:"status"`
	TotalAmountPence   int64     `db:"total_amount_pence" json:"total_amount_pence"`
	DepositAmountPence *int64    `db:"deposit_amount_pence" json:"deposit_amount_pence,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

type BookingWithDetails struct {
	Booking
	CourseTitle   string    `db:"course_title" json:"course_title"`
	CourseID      int       `db:"course_id" json:"course_id"`
	SessionStart  time.Time `db:"session_start" json:"session_start"`
	SessionEnd    time.Time `db:"session_end" json:"session_end"`
	CustomerName  string    `db:"customer_name" json:"customer_name"`
	CustomerEmail string    `db:"customer_email" json:"customer_email"`
}

type CreateBookingRequest struct {
	SessionID   int    `json:"session_id" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Name        string `json:"name" binding:"required"`
	Phone       string `json:"phone"`
	PaymentType string `json:"payment_type" binding:"required,oneof=full deposit"`
}

type CreateBookingResponse struct {
	Booking      *Booking         `json:"booking"`
	Payment      *payment.Payment `json:"payment"`
	ClientSecret string           `json:"client_secret"`
}
