package course

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"coursebook/internal/auth"
	"coursebook/internal/logger"
	"coursebook/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo       Repository
	tenantRepo tenant.Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{
		repo:       NewRepository(db),
		tenantRepo: tenant.NewRepository(db),
	}
}

// CreateCourse godoc
// @Summary      Create course
// @Description  Creates a course for the tenant, subject to the plan's course limit.
// @Tags         courses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateCourseRequest  true  "Course data"
// @Success      201      {object}  Course
// @Failure      400      {object}  gin.H
// @Failure      403      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /tenant/courses [post]
func (h *Handler) CreateCourse(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := Category(req.Category)
	if !ValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown course category"})
		return
	}

	ctx := c.Request.Context()

	t, err := h.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	count, err := h.repo.CountCourses(ctx, tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !tenant.LimitsForPlan(t.Plan).AllowsCourses(count) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Course limit reached for current plan"})
		return
	}

	course, err := h.repo.CreateCourse(ctx, tenantID, req.Title, category, req.PricePence, req.DurationDays, req.MaxStudents)
	if err != nil {
		logger.Errorf("Failed to create course for tenant %d: %v", tenantID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create course"})
		return
	}

	c.JSON(http.StatusCreated, course)
}

// ListCourses godoc
// @Summary      List tenant courses
// @Tags         courses
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Course
// @Failure      500  {object}  gin.H
// @Router       /tenant/courses [get]
func (h *Handler) ListCourses(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	courses, err := h.repo.ListCourses(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch courses"})
		return
	}

	c.JSON(http.StatusOK, courses)
}

// CreateSession godoc
// @Summary      Schedule a course session
// @Tags         courses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        courseID  path      int                   true  "Course ID"
// @Param        request   body      CreateSessionRequest  true  "Session data"
// @Success      201       {object}  Session
// @Failure      400       {object}  gin.H
// @Failure      404       {object}  gin.H
// @Failure      500       {object}  gin.H
// @Router       /tenant/courses/{courseID}/sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	courseID, err := strconv.Atoi(c.Param("courseID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course ID"})
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be RFC3339"})
		return
	}
	endDate, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be RFC3339"})
		return
	}
	if !endDate.After(startDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be after start_date"})
		return
	}

	ctx := c.Request.Context()

	// Ownership check keeps one tenant from scheduling sessions on another's course.
	if _, err := h.repo.GetCourseByID(ctx, tenantID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	session, err := h.repo.CreateSession(ctx, courseID, startDate, endDate, req.AvailableSpots)
	if err != nil {
		logger.Errorf("Failed to create session for course %d: %v", courseID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// sessionView adds the derived seat count the booking pages display.
type sessionView struct {
	Session
	SpotsRemaining int `json:"spots_remaining"`
}

// ListSessions godoc
// @Summary      List sessions for a course
// @Tags         courses
// @Security     BearerAuth
// @Produce      json
// @Param        courseID  path      int     true   "Course ID"
// @Param        future    query     string  false  "Only future sessions (true/false)"
// @Success      200       {array}   Session
// @Failure      400       {object}  gin.H
// @Failure      404       {object}  gin.H
// @Failure      500       {object}  gin.H
// @Router       /tenant/courses/{courseID}/sessions [get]
func (h *Handler) ListSessions(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	courseID, err := strconv.Atoi(c.Param("courseID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course ID"})
		return
	}

	onlyFuture := c.DefaultQuery("future", "true") == "true"

	ctx := c.Request.Context()

	// The same ownership check as CreateSession, so one tenant cannot read
	// another's schedule.
	if _, err := h.repo.GetCourseByID(ctx, tenantID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	sessions, err := h.repo.ListSessionsByCourse(ctx, courseID, onlyFuture)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sessions"})
		return
	}

	views := make([]sessionView, len(sessions))
	for i, s := range sessions {
		views[i] = sessionView{Session: s, SpotsRemaining: s.SpotsRemaining()}
	}

	c.JSON(http.StatusOK, views)
}
