package bundle

import (
	"errors"
	"net/http"
	"strconv"

	"coursebook/internal/auth"
	"coursebook/internal/course"
	"coursebook/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	repo    Repository
}

func NewHandler(service Service, repo Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

// CreateBundle godoc
// @Summary      Create a course bundle
// @Tags         bundles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateBundleRequest  true  "Bundle data"
// @Success      201      {object}  Bundle
// @Failure      400      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /tenant/bundles [post]
func (h *Handler) CreateBundle(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	var req CreateBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.repo.CreateBundle(c.Request.Context(), tenantID, req.Name, req.PricePence, req.CourseIDs)
	if err != nil {
		logger.Errorf("Failed to create bundle for tenant %d: %v", tenantID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create bundle"})
		return
	}

	c.JSON(http.StatusCreated, b)
}

// ListBundles godoc
// @Summary      List active bundles
// @Tags         bundles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Bundle
// @Failure      500  {object}  gin.H
// @Router       /tenant/bundles [get]
func (h *Handler) ListBundles(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	bundles, err := h.repo.ListBundles(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bundles"})
		return
	}

	c.JSON(http.StatusOK, bundles)
}

// DeactivateBundle godoc
// @Summary      Retire a bundle
// @Tags         bundles
// @Security     BearerAuth
// @Produce      json
// @Param        bundleID  path      int  true  "Bundle ID"
// @Success      200       {object}  gin.H
// @Failure      404       {object}  gin.H
// @Router       /tenant/bundles/{bundleID} [delete]
func (h *Handler) DeactivateBundle(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	bundleID, err := strconv.Atoi(c.Param("bundleID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bundle ID"})
		return
	}

	if err := h.repo.DeactivateBundle(c.Request.Context(), tenantID, bundleID); err != nil {
		if errors.Is(err, ErrBundleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bundle not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate bundle"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bundle deactivated"})
}

// CreateBooking godoc
// @Summary      Book a bundle
// @Description  Reserves a seat on every selected session and opens one aggregate payment.
// @Tags         bundles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateBundleBookingRequest  true  "Bundle booking data"
// @Success      201      {object}  CreateBundleBookingResponse
// @Failure      400      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Failure      502      {object}  gin.H
// @Router       /tenant/bundle-bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	var req CreateBundleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.CreateBooking(c.Request.Context(), tenantID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrBundleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Bundle not found"})
		case errors.Is(err, ErrSessionNotInBundle), errors.Is(err, ErrDuplicateCourse),
			errors.Is(err, ErrSelectionIncomplete), errors.Is(err, ErrSessionInPast):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, course.ErrSessionFull):
			c.JSON(http.StatusConflict, gin.H{"error": "One of the selected sessions is full"})
		case errors.Is(err, ErrPaymentProvider):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider unavailable, please try again"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create bundle booking"})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// CancelBooking godoc
// @Summary      Cancel a bundle booking
// @Tags         bundles
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Bundle booking ID"
// @Success      200        {object}  gin.H
// @Failure      400        {object}  gin.H
// @Router       /tenant/bundle-bookings/{bookingID}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	if err := h.service.CancelBooking(c.Request.Context(), tenantID, bookingID); err != nil {
		if errors.Is(err, ErrBookingNotCancellable) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Bundle booking not found or already cancelled"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel bundle booking"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bundle booking cancelled"})
}
