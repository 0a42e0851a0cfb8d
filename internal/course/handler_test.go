package course

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"coursebook/internal/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logger.Init()
	gin.SetMode(gin.TestMode)

	code := m.Run()
	os.Exit(code)
}

func newMockHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewHandler(sqlx.NewDb(db, "sqlmock")), mock
}

func listSessionsRequest(tenantID int, courseID string) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/tenant/courses/"+courseID+"/sessions", nil)
	c.Params = gin.Params{{Key: "courseID", Value: courseID}}
	if tenantID != 0 {
		c.Set("tenant_id", tenantID)
	}
	return w, c
}

func courseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "title", "category", "price_pence", "duration_days", "max_students", "created_at"})
}

func TestListSessionsOwnCourse(t *testing.T) {
	h, mock := newMockHandler(t)

	start := time.Now().Add(48 * time.Hour)

	mock.ExpectQuery(`SELECT(.|\n)*FROM courses(.|\n)*WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(55, 1).
		WillReturnRows(courseRows().AddRow(55, 1, "Gas Safe ACS Initial", "GAS_SAFE", int64(125000), 5, 8, time.Now()))
	mock.ExpectQuery(`SELECT id, course_id(.|\n)*FROM course_sessions(.|\n)*`).
		WithArgs(55).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "start_date", "end_date", "available_spots", "booked_spots", "created_at"}).
			AddRow(42, 55, start, start.Add(8*time.Hour), 8, 3, time.Now()))

	w, c := listSessionsRequest(1, "55")
	h.ListSessions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"course_id":55`)
	assert.Contains(t, w.Body.String(), `"spots_remaining":5`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSessionsForeignCourseNotFound(t *testing.T) {
	h, mock := newMockHandler(t)

	// The course belongs to another tenant, so the scoped lookup finds nothing
	// and the session query must never run.
	mock.ExpectQuery(`SELECT(.|\n)*FROM courses(.|\n)*WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(55, 1).
		WillReturnRows(courseRows())

	w, c := listSessionsRequest(1, "55")
	h.ListSessions(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Course not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSessionsWithoutTenantContext(t *testing.T) {
	h, _ := newMockHandler(t)

	w, c := listSessionsRequest(0, "55")
	h.ListSessions(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListSessionsInvalidCourseID(t *testing.T) {
	h, _ := newMockHandler(t)

	w, c := listSessionsRequest(1, "abc")
	h.ListSessions(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
