package tenant

import (
	"database/sql"
	"errors"
	"net/http"

	"coursebook/internal/auth"
	"coursebook/internal/logger"
	"coursebook/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{repo: NewRepository(db)}
}

// Create godoc
// @Summary      Onboard a training centre
// @Description  Creates a new tenant with its plan and branding.
// @Tags         tenants
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateTenantRequest  true  "Tenant data"
// @Success      201      {object}  Tenant
// @Failure      400      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /admin/tenants [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan := Plan(req.Plan)
	switch plan {
	case PlanStarter, PlanProfessional, PlanEnterprise:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan must be STARTER, PROFESSIONAL or ENTERPRISE"})
		return
	}

	t, err := h.repo.Create(c.Request.Context(), req.Slug, req.Name, plan, req.PrimaryColor, req.SecondaryColor)
	if err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			c.JSON(http.StatusConflict, gin.H{"error": "Slug already taken"})
			return
		}
		logger.Errorf("Failed to create tenant %s: %v", req.Slug, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tenant"})
		return
	}

	logger.Infof("Tenant created: %s (plan %s)", t.Slug, t.Plan)
	metrics.RecordTenantCreated()
	c.JSON(http.StatusCreated, t)
}

// GetBySlug godoc
// @Summary      Tenant branding by slug
// @Description  Public lookup used by the booking pages to theme themselves.
// @Tags         tenants
// @Produce      json
// @Param        slug  path      string  true  "Tenant slug"
// @Success      200   {object}  Tenant
// @Failure      404   {object}  gin.H
// @Router       /tenants/{slug} [get]
func (h *Handler) GetBySlug(c *gin.Context) {
	t, err := h.repo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !t.Active {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
		return
	}

	c.JSON(http.StatusOK, t)
}

// List godoc
// @Summary      List all tenants
// @Tags         tenants
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Tenant
// @Failure      500  {object}  gin.H
// @Router       /admin/tenants [get]
func (h *Handler) List(c *gin.Context) {
	tenants, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tenants"})
		return
	}
	c.JSON(http.StatusOK, tenants)
}

// UpdateBranding godoc
// @Summary      Update tenant branding and deposit rate
// @Tags         tenants
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      UpdateBrandingRequest  true  "Branding fields"
// @Success      200      {object}  Tenant
// @Failure      400      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /tenant/branding [put]
func (h *Handler) UpdateBranding(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	var req UpdateBrandingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.repo.UpdateBranding(c.Request.Context(), tenantID, req.Name, req.PrimaryColor, req.SecondaryColor, req.DepositPercent)
	if err != nil {
		logger.Errorf("Failed to update branding for tenant %d: %v", tenantID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update branding"})
		return
	}

	c.JSON(http.StatusOK, t)
}

// GetLimits godoc
// @Summary      Current plan limits for the tenant
// @Tags         tenants
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Limits
// @Failure      404  {object}  gin.H
// @Router       /tenant/limits [get]
func (h *Handler) GetLimits(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	t, err := h.repo.GetByID(c.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, LimitsForPlan(t.Plan))
}
