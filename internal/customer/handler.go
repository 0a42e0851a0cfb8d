package customer

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"coursebook/internal/auth"
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

// Create godoc
// @Summary      Register a student
// @Description  Admin entry of a student record, subject to the plan's student limit.
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateCustomerRequest  true  "Student data"
// @Success      201      {object}  Customer
// @Failure      400      {object}  gin.H
// @Failure      403      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /tenant/customers [post]
func (h *Handler) Create(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	t, err := h.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	count, err := h.repo.Count(ctx, tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !tenant.LimitsForPlan(t.Plan).AllowsStudents(count) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Student limit reached for current plan"})
		return
	}

	cust, err := h.repo.Upsert(ctx, tenantID, req.Email, req.Name, req.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}

	c.JSON(http.StatusCreated, cust)
}

// List godoc
// @Summary      List tenant students
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Customer
// @Failure      500  {object}  gin.H
// @Router       /tenant/customers [get]
func (h *Handler) List(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	customers, err := h.repo.List(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
		return
	}

	c.JSON(http.StatusOK, customers)
}

// Get godoc
// @Summary      Student detail
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        customerID  path      int  true  "Customer ID"
// @Success      200         {object}  Customer
// @Failure      404         {object}  gin.H
// @Router       /tenant/customers/{customerID} [get]
func (h *Handler) Get(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	customerID, err := strconv.Atoi(c.Param("customerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer ID"})
		return
	}

	cust, err := h.repo.GetByID(c.Request.Context(), tenantID, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, cust)
}
