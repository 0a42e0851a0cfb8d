package achievement

import (
	"net/http"
	"strconv"

	"coursebook/internal/api"
	"coursebook/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{repo: NewRepository(db)}
}

// ListForCustomer godoc
// @Summary      List a customer's achievements
// @Tags         achievements
// @Produce      json
// @Param        customerID  path      int  true  "Customer ID"
// @Success      200         {array}   Achievement
// @Failure      400         {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /tenant/customers/{customerID}/achievements [get]
func (h *Handler) ListForCustomer(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing tenant context"})
		return
	}

	customerID, err := strconv.Atoi(c.Param("customerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid customer id"})
		return
	}

	achievements, err := h.repo.ListByCustomer(c.Request.Context(), tenantID, customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list achievements"})
		return
	}

	c.JSON(http.StatusOK, achievements)
}
