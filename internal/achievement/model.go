package achievement

import (
	"time"

	"coursebook/internal/course"
)

// Achievement exists once per (customer, course) pair and is only ever
// upserted as completions accumulate.
type Achievement struct {
	ID         int             `db:"id" json:"id"`
	TenantID   int             `db:"tenant_id" json:"tenant_id"`
	CustomerID int             `db:"customer_id" json:"customer_id"`
	CourseID   int             `db:"course_id" json:"course_id"`
	Category   course.Category `db:"category" json:"category"`
	Level      Level           `db:"level" json:"level"`
	AwardedAt  time.Time       `db:"awarded_at" json:"awarded_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}
