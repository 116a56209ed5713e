package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/radu9120/ZeroDue-sub000/internal/api/dto"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/service"
)

type BusinessHandler struct {
	service service.BusinessService
	log     *logger.Logger
}

func NewBusinessHandler(service service.BusinessService, log *logger.Logger) *BusinessHandler {
	return &BusinessHandler{
		service: service,
		log:     log,
	}
}

// @Summary Create a business
// @Description Create a business owned by the caller on the free plan
// @Tags Businesses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param business body dto.CreateBusinessRequest true "Business"
// @Success 201 {object} dto.BusinessResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /businesses [post]
func (h *BusinessHandler) CreateBusiness(c *gin.Context) {
	var req dto.CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateBusiness(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary List businesses
// @Description List the businesses owned by the caller
// @Tags Businesses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.BusinessResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /businesses [get]
func (h *BusinessHandler) ListBusinesses(c *gin.Context) {
	resp, err := h.service.ListBusinesses(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get a business
// @Tags Businesses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Business ID"
// @Success 200 {object} dto.BusinessResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /businesses/{id} [get]
func (h *BusinessHandler) GetBusiness(c *gin.Context) {
	resp, err := h.service.GetBusiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Delete a business
// @Description Delete a business together with its invoices and credit purchases
// @Tags Businesses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Business ID"
// @Success 204
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /businesses/{id} [delete]
func (h *BusinessHandler) DeleteBusiness(c *gin.Context) {
	if err := h.service.DeleteBusiness(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
