package booking

import (
	"errors"
	"net/http"
	"strconv"

	"coursebook/internal/auth"
	"coursebook/internal/course"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	repo    Repository
}

func NewHandler(service Service, repo Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

// Create godoc
// @Summary      Create a booking
// @Description  Books a seat on a course session and opens a payment intent.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateBookingRequest  true  "Booking data"
// @Success      201      {object}  CreateBookingResponse
// @Failure      400      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Failure      502      {object}  gin.H
// @Router       /tenant/bookings [post]
func (h *Handler) Create(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.CreateBooking(c.Request.Context(), tenantID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		case errors.Is(err, ErrSessionInPast):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot book a session that has already started"})
		case errors.Is(err, course.ErrSessionFull):
			c.JSON(http.StatusConflict, gin.H{"error": "Session is full"})
		case errors.Is(err, ErrPaymentProvider):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider unavailable, please try again"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Cancel godoc
// @Summary      Cancel a booking
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  gin.H
// @Failure      400        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Router       /tenant/bookings/{bookingID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
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
		switch {
		case errors.Is(err, ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		case errors.Is(err, ErrBookingNotCancellable):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Booking not found or already cancelled"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel booking"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled"})
}

// Complete godoc
// @Summary      Mark a booking completed
// @Description  Marks a confirmed booking delivered and refreshes the student's achievement.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  Booking
// @Failure      400        {object}  gin.H
// @Router       /tenant/bookings/{bookingID}/complete [post]
func (h *Handler) Complete(c *gin.Context) {
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

	b, err := h.service.CompleteBooking(c.Request.Context(), tenantID, bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotCompletable) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Booking is not in a confirmable state"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete booking"})
		return
	}

	c.JSON(http.StatusOK, b)
}

// List godoc
// @Summary      List tenant bookings
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   BookingWithDetails
// @Failure      500  {object}  gin.H
// @Router       /tenant/bookings [get]
func (h *Handler) List(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	bookings, err := h.repo.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// ListBySession godoc
// @Summary      List bookings for a session
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      int  true  "Session ID"
// @Success      200        {array}   BookingWithDetails
// @Failure      400        {object}  gin.H
// @Router       /tenant/sessions/{sessionID}/bookings [get]
func (h *Handler) ListBySession(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant context missing"})
		return
	}

	sessionID, err := strconv.Atoi(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}

	bookings, err := h.repo.ListBySession(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}
