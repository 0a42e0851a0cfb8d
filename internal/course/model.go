package course

import "time"

type Category string

const (
	CategoryGasSafe    Category = "GAS_SAFE"
	CategoryHeatPump   Category = "HEAT_PUMP"
	CategoryOFTEC      Category = "OFTEC"
	CategoryLPG        Category = "LPG"
	CategoryElectrical Category = "ELECTRICAL"
	CategoryPlumbing   Category = "PLUMBING"
	CategoryRenewables Category = "RENEWABLES"
)

func ValidCategory(c Category) bool {
	switch c {
	case CategoryGasSafe, CategoryHeatPump, CategoryOFTEC, CategoryLPG,
		CategoryElectrical, CategoryPlumbing, CategoryRenewables:
		return true
	}
	return false
}

type Course struct {
	ID           int       `db:"id" json:"id"`
	TenantID     int       `db:"tenant_id" json:"tenant_id"`
	Title        string    `db:"title" json:"title"`
	Category     Category  `db:"category" json:"category"`
	PricePence   int64     `db:"price_pence" json:"price_pence"`
	DurationDays int       `db:"duration_days" json:"duration_days"`
	MaxStudents  int       `db:"max_students" json:"max_students"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Session struct {
	ID             int       `db:"id" json:"id"`
	CourseID       int       `db:"course_id" json:"course_id"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	AvailableSpots int       `db:"available_spots" json:"available_spots"`
	BookedSpots    int       `db:"booked_spots" json:"booked_spots"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// SpotsRemaining is what the booking pages display next to each date.
func (s Session) SpotsRemaining() int {
	return s.AvailableSpots - s.BookedSpots
}

type SessionWithCourse struct {
	Session
	CourseTitle string   `db:"course_title" json:"course_title"`
	Category    Category `db:"category" json:"category"`
	PricePence  int64    `db:"price_pence" json:"price_pence"`
	TenantID    int      `db:"tenant_id" json:"tenant_id"`
}

type CreateCourseRequest struct {
	Title        string `json:"title" binding:"required"`
	Category     string `json:"category" binding:"required"`
	PricePence   int64  `json:"price_pence" binding:"required,min=0"`
	DurationDays int    `json:"duration_days" binding:"required,min=1"`
	MaxStudents  int    `json:"max_students" binding:"required,min=1"`
}

type CreateSessionRequest struct {
	StartDate      string `json:"start_date" binding:"required"`
	EndDate        string `json:"end_date" binding:"required"`
	AvailableSpots int    `json:"available_spots" binding:"required,min=1"`
}
