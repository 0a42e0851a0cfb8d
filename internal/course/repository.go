package course

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrSessionFull = errors.New("session is full")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateCourse(ctx context.Context, tenantID int, title string, category Category, pricePence int64, durationDays, maxStudents int) (*Course, error) {
	query := `
		INSERT INTO courses (tenant_id, title, category, price_pence, duration_days, max_students)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, tenant_id, title, category, price_pence, duration_days, max_students, created_at
	`

	var c Course
	err := r.db.GetContext(ctx, &c, query, tenantID, title, category, pricePence, durationDays, maxStudents)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) GetCourseByID(ctx context.Context, tenantID, id int) (*Course, error) {
	query := `
		SELECT id, tenant_id, title, category, price_pence, duration_days, max_students, created_at
		FROM courses
		WHERE id = $1 AND tenant_id = $2
	`

	var c Course
	err := r.db.GetContext(ctx, &c, query, id, tenantID)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) ListCourses(ctx context.Context, tenantID int) ([]Course, error) {
	query := `
		SELECT id, tenant_id, title, category, price_pence, duration_days, max_students, created_at
		FROM courses
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	var courses []Course
	err := r.db.SelectContext(ctx, &courses, query, tenantID)
	if err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *repository) CountCourses(ctx context.Context, tenantID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM courses WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CreateSession(ctx context.Context, courseID int, startDate, endDate time.Time, availableSpots int) (*Session, error) {
	query := `
		INSERT INTO course_sessions (course_id, start_date, end_date, available_spots, booked_spots)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id, course_id, start_date, end_date, available_spots, booked_spots, created_at
	`

	var s Session
	err := r.db.GetContext(ctx, &s, query, courseID, startDate, endDate, availableSpots)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *repository) GetSessionByID(ctx context.Context, id int) (*SessionWithCourse, error) {
	query := `
		SELECT
			s.id,
			s.course_id,
			s.start_date,
			s.end_date,
			s.available_spots,
			s.booked_spots,
			s.created_at,
			c.title AS course_title,
			c.category,
			c.price_pence,
			c.tenant_id
		FROM course_sessions s
		JOIN courses c ON s.course_id = c.id
		WHERE s.id = $1
	`

	var s SessionWithCourse
	err := r.db.GetContext(ctx, &s, query, id)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *repository) ListSessionsByCourse(ctx context.Context, courseID int, onlyFuture bool) ([]Session, error) {
	query := `
		SELECT id, course_id, start_date, end_date, available_spots, booked_spots, created_at
		FROM course_sessions
		WHERE course_id = $1
	`
	if onlyFuture {
		query += ` AND start_date >= NOW()`
	}
	query += ` ORDER BY start_date ASC`

	var sessions []Session
	err := r.db.SelectContext(ctx, &sessions, query, courseID)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

// ReserveSpotTx takes one seat with a single conditional update so two
// concurrent bookings can never both take the last place. It runs inside the
// caller's transaction; booking and bundle flows share this guard.
func ReserveSpotTx(ctx context.Context, tx *sqlx.Tx, sessionID int) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE course_sessions
		SET booked_spots = booked_spots + 1
		WHERE id = $1 AND booked_spots < available_spots
	`, sessionID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionFull
	}
	return nil
}

// ReleaseSpotTx returns a seat to the pool, never dropping below zero.
func ReleaseSpotTx(ctx context.Context, tx *sqlx.Tx, sessionID int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE course_sessions
		SET booked_spots = booked_spots - 1
		WHERE id = $1 AND booked_spots > 0
	`, sessionID)
	return err
}
