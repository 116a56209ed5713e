package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/radu9120/ZeroDue-sub000/internal/api/dto"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/service"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

type InvoiceHandler struct {
	admission service.AdmissionService
	invoices  service.InvoiceService
	log       *logger.Logger
}

func NewInvoiceHandler(
	admission service.AdmissionService,
	invoices service.InvoiceService,
	log *logger.Logger,
) *InvoiceHandler {
	return &InvoiceHandler{
		admission: admission,
		invoices:  invoices,
		log:       log,
	}
}

// @Summary Create an invoice
// @Description Admits the invoice against the plan limits and purchased credits.
// @Description A denial is answered with 402 and tells the client which paywall to show.
// @Tags Invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Business ID"
// @Param invoice body dto.CreateInvoiceRequest true "Invoice"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 402 {object} dto.DenialResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /businesses/{id}/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	result, err := h.admission.RequestCreation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	if !result.Admitted() {
		c.JSON(http.StatusPaymentRequired, result.Denial)
		return
	}
	c.JSON(http.StatusCreated, result.Invoice)
}

// @Summary List invoices
// @Description Invoices of a business, newest number first
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Business ID"
// @Param filter query types.InvoiceFilter false "Pagination"
// @Success 200 {object} dto.ListInvoicesResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Router /businesses/{id}/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var filter types.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}
	filter.BusinessID = c.Param("id")

	resp, err := h.invoices.ListInvoices(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get an invoice
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Business ID"
// @Param invoice_id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /businesses/{id}/invoices/{invoice_id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	resp, err := h.invoices.GetInvoice(c.Request.Context(), c.Param("id"), c.Param("invoice_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get usage
// @Description Current plan usage and credit balance, polled by the dashboard
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Business ID"
// @Success 200 {object} dto.UsageSnapshotResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Router /businesses/{id}/usage [get]
func (h *InvoiceHandler) GetUsage(c *gin.Context) {
	resp, err := h.admission.GetUsageSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
