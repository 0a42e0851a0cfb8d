package course

import (
	"context"
	"time"
)

type Repository interface {
	CreateCourse(ctx context.Context, tenantID int, title string, category Category, pricePence int64, durationDays, maxStudents int) (*Course, error)
	GetCourseByID(ctx context.Context, tenantID, id int) (*Course, error)
	ListCourses(ctx context.Context, tenantID int) ([]Course, error)
	CountCourses(ctx context.Context, tenantID int) (int, error)

	CreateSession(ctx context.Context, courseID int, startDate, endDate time.Time, availableSpots int) (*Session, error)
	GetSessionByID(ctx context.Context, id int) (*SessionWithCourse, error)
	ListSessionsByCourse(ctx context.Context, courseID int, onlyFuture bool) ([]Session, error)
}
