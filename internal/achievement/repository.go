package achievement

import (
	"context"

	"coursebook/internal/course"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	// CompletedStats returns the customer's completed-course count and the
	// categories of those courses, the two inputs of CalculateLevel.
	CompletedStats(ctx context.Context, tenantID, customerID int) (int, []course.Category, error)
	Upsert(ctx context.Context, tenantID, customerID, courseID int, category course.Category, level Level) (*Achievement, error)
	ListByCustomer(ctx context.Context, tenantID, customerID int) ([]Achievement, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CompletedStats(ctx context.Context, tenantID, customerID int) (int, []course.Category, error) {
	var categories []course.Category
	err := r.db.SelectContext(ctx, &categories, `
		SELECT co.category
		FROM bookings b
		JOIN course_sessions s ON b.session_id = s.id
		JOIN courses co ON s.course_id = co.id
		WHERE b.tenant_id = $1 AND b.customer_id = $2 AND b.status = 'COMPLETED'
	`, tenantID, customerID)
	if err != nil {
		return 0, nil, err
	}

	return len(categories), categories, nil
}

func (r *repository) Upsert(ctx context.Context, tenantID, customerID, courseID int, category course.Category, level Level) (*Achievement, error) {
	query := `
		INSERT INTO achievements (tenant_id, customer_id, course_id, category, level)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (customer_id, course_id) DO UPDATE
		SET level = EXCLUDED.level, updated_at = NOW()
		RETURNING id, tenant_id, customer_id, course_id, category, level, awarded_at, updated_at
	`

	var a Achievement
	err := r.db.GetContext(ctx, &a, query, tenantID, customerID, courseID, category, level)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func (r *repository) ListByCustomer(ctx context.Context, tenantID, customerID int) ([]Achievement, error) {
	var achievements []Achievement
	err := r.db.SelectContext(ctx, &achievements, `
		SELECT id, tenant_id, customer_id, course_id, category, level, awarded_at, updated_at
		FROM achievements
		WHERE tenant_id = $1 AND customer_id = $2
		ORDER BY awarded_at DESC
	`, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	return achievements, nil
}
