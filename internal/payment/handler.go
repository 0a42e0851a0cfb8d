package payment

import (
	"net/http"

	"coursebook/internal/api"
	"coursebook/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// List godoc
// @Summary      List payments
// @Tags         payments
// @Produce      json
// @Success      200  {array}   Payment
// @Failure      401  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /tenant/payments [get]
func (h *Handler) List(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing tenant context"})
		return
	}

	list, err := h.repo.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list payments"})
		return
	}

	c.JSON(http.StatusOK, list)
}
