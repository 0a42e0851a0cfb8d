package billing

import (
	"errors"
	"net/http"

	"coursebook/internal/api"
	"coursebook/internal/auth"
	"coursebook/internal/tenant"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type checkoutRequest struct {
	Plan string `json:"plan" binding:"required"`
}

type changePlanRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// StartCheckout godoc
// @Summary      Start a subscription checkout
// @Description  Creates a Stripe checkout session for the tenant's platform plan.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        request  body      checkoutRequest  true  "Plan to subscribe to"
// @Success      200      {object}  CheckoutSession
// @Failure      400      {object}  api.ErrorResponse
// @Failure      502      {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /tenant/billing/checkout [post]
func (h *Handler) StartCheckout(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing tenant context"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	sess, err := h.service.StartCheckout(c.Request.Context(), tenantID, tenant.Plan(req.Plan))
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownPlan):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unknown plan"})
		case errors.Is(err, ErrPlanNotConfigured):
			c.JSON(http.StatusNotImplemented, api.ErrorResponse{Error: "plan not available for checkout"})
		case errors.Is(err, ErrTenantNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "tenant not found"})
		case errors.Is(err, ErrProviderUnavailable):
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "billing provider unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to start checkout"})
		}
		return
	}

	c.JSON(http.StatusOK, sess)
}

// ChangePlan godoc
// @Summary      Change the tenant's plan
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        request  body      changePlanRequest  true  "New plan"
// @Success      200      {object}  api.MessageResponse
// @Failure      400      {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /tenant/billing/plan [put]
func (h *Handler) ChangePlan(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing tenant context"})
		return
	}

	var req changePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.service.ChangePlan(c.Request.Context(), tenantID, tenant.Plan(req.Plan)); err != nil {
		switch {
		case errors.Is(err, ErrUnknownPlan):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unknown plan"})
		case errors.Is(err, ErrTenantNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "tenant not found"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to change plan"})
		}
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "plan updated"})
}

// Cancel godoc
// @Summary      Cancel the tenant's subscription
// @Description  Cancels the Stripe subscription and deactivates the tenant. Data is kept.
// @Tags         billing
// @Produce      json
// @Success      200  {object}  api.MessageResponse
// @Failure      409  {object}  api.ErrorResponse
// @Failure      502  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /tenant/billing/subscription [delete]
func (h *Handler) Cancel(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing tenant context"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), tenantID); err != nil {
		switch {
		case errors.Is(err, ErrTenantNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "tenant not found"})
		case errors.Is(err, ErrNoSubscription):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "no subscription on record"})
		case errors.Is(err, ErrProviderUnavailable):
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "billing provider unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to cancel subscription"})
		}
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "subscription cancelled"})
}
