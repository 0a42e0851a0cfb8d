package customer

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

func TestUpsertCreatesNewCustomer(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	mock.ExpectQuery(`INSERT INTO customers(.|\n)*ON CONFLICT \(tenant_id, email\) DO UPDATE(.|\n)*`).
		WithArgs(1, "sam@example.co.uk", "Sam Field", "07700900123").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "email", "name", "phone", "created_at", "updated_at"}).
			AddRow(7, 1, "sam@example.co.uk", "Sam Field", "07700900123", time.Now(), time.Now()))

	cust, err := repo.Upsert(context.Background(), 1, "sam@example.co.uk", "Sam Field", "07700900123")
	assert.NoError(t, err)
	assert.Equal(t, 7, cust.ID)
	assert.Equal(t, "Sam Field", cust.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertReturnsExistingRowOnConflict(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	// A rebooking with an empty name keeps the stored name.
	mock.ExpectQuery(`INSERT INTO customers(.|\n)*`).
		WithArgs(1, "sam@example.co.uk", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "email", "name", "phone", "created_at", "updated_at"}).
			AddRow(7, 1, "sam@example.co.uk", "Sam Field", "07700900123", time.Now(), time.Now()))

	cust, err := repo.Upsert(context.Background(), 1, "sam@example.co.uk", "", "")
	assert.NoError(t, err)
	assert.Equal(t, 7, cust.ID)
	assert.Equal(t, "Sam Field", cust.Name)
	assert.Equal(t, "07700900123", cust.Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM customers WHERE tenant_id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(49))

	count, err := repo.Count(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 49, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
