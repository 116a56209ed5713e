package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/radu9120/ZeroDue-sub000/internal/api/dto"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/service"
)

type CreditHandler struct {
	service service.CreditService
	log     *logger.Logger
}

func NewCreditHandler(service service.CreditService, log *logger.Logger) *CreditHandler {
	return &CreditHandler{
		service: service,
		log:     log,
	}
}

// @Summary Get credit balance
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Business ID"
// @Success 200 {object} dto.CreditBalanceResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Router /businesses/{id}/credits [get]
func (h *CreditHandler) GetBalance(c *gin.Context) {
	resp, err := h.service.GetBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Add credits
// @Description Grant invoice credits outside the payment flow
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Business ID"
// @Param request body dto.AddCreditsRequest true "Credits"
// @Success 200 {object} dto.CreditBalanceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /admin/businesses/{id}/credits [post]
func (h *CreditHandler) AddCredits(c *gin.Context) {
	var req dto.AddCreditsRequest
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

	resp, err := h.service.AddCredits(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
