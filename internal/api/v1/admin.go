package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/radu9120/ZeroDue-sub000/internal/api/dto"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/service"
)

type AdminHandler struct {
	businesses service.BusinessService
	log        *logger.Logger
}

func NewAdminHandler(businesses service.BusinessService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		businesses: businesses,
		log:        log,
	}
}

// @Summary Update plan
// @Description Move a business to another plan tier
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Business ID"
// @Param request body dto.UpdatePlanRequest true "Plan"
// @Success 200 {object} dto.BusinessResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /admin/businesses/{id}/plan [put]
func (h *AdminHandler) UpdatePlan(c *gin.Context) {
	var req dto.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.businesses.UpdatePlan(c.Request.Context(), c.Param("id"), req.Plan)
	if err != nil {
		c.Error(err)
		return
	}

	h.log.Infow("plan updated by admin", "business_id", resp.ID, "plan", resp.Plan)
	c.JSON(http.StatusOK, resp)
}
