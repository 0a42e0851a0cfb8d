package course

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dbx := sqlx.NewDb(db, "sqlmock")
	return NewRepository(dbx), mock, func() { db.Close() }
}

func TestCreateCourse(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	mock.ExpectQuery(`INSERT INTO courses.*`).
		WithArgs(1, "Gas Safe ACS Initial", CategoryGasSafe, int64(125000), 5, 8).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "title", "category", "price_pence", "duration_days", "max_students", "created_at"}).
			AddRow(10, 1, "Gas Safe ACS Initial", "GAS_SAFE", int64(125000), 5, 8, time.Now()))

	c, err := repo.CreateCourse(context.Background(), 1, "Gas Safe ACS Initial", CategoryGasSafe, 125000, 5, 8)
	assert.NoError(t, err)
	assert.Equal(t, 10, c.ID)
	assert.Equal(t, CategoryGasSafe, c.Category)
	assert.Equal(t, int64(125000), c.PricePence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newMockTx(t *testing.T) (*sqlx.Tx, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dbx := sqlx.NewDb(db, "sqlmock")
	mock.ExpectBegin()
	tx, err := dbx.Beginx()
	assert.NoError(t, err)
	return tx, mock, func() { db.Close() }
}

func TestReserveSpotTx(t *testing.T) {
	tx, mock, cleanup := newMockTx(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE course_sessions\s+SET booked_spots = booked_spots \+ 1\s+WHERE id = \$1 AND booked_spots < available_spots`).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := ReserveSpotTx(context.Background(), tx, 42)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSpotTxFullSession(t *testing.T) {
	tx, mock, cleanup := newMockTx(t)
	defer cleanup()

	// Zero rows updated means the guard lost: the session was already full.
	mock.ExpectExec(`UPDATE course_sessions.*`).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ReserveSpotTx(context.Background(), tx, 42)
	assert.ErrorIs(t, err, ErrSessionFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSpotTx(t *testing.T) {
	tx, mock, cleanup := newMockTx(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE course_sessions\s+SET booked_spots = booked_spots - 1\s+WHERE id = \$1 AND booked_spots > 0`).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := ReleaseSpotTx(context.Background(), tx, 42)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSessionByID(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	start := time.Now().Add(48 * time.Hour)
	end := start.Add(8 * time.Hour)

	mock.ExpectQuery(`SELECT(.|\n)*FROM course_sessions s(.|\n)*JOIN courses c ON s.course_id = c.id(.|\n)*`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "course_id", "start_date", "end_date", "available_spots", "booked_spots", "created_at",
			"course_title", "category", "price_pence", "tenant_id",
		}).AddRow(42, 10, start, end, 8, 3, time.Now(), "Gas Safe ACS Initial", "GAS_SAFE", int64(125000), 1))

	s, err := repo.GetSessionByID(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, 1, s.TenantID)
	assert.Equal(t, 5, s.SpotsRemaining())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory(CategoryGasSafe))
	assert.True(t, ValidCategory(CategoryRenewables))
	assert.False(t, ValidCategory(Category("FORKLIFT")))
	assert.False(t, ValidCategory(Category("")))
}
