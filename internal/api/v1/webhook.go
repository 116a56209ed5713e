package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/radu9120/ZeroDue-sub000/internal/api/dto"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/service"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

// maxWebhookBodyBytes matches the payload ceiling Stripe documents
const maxWebhookBodyBytes = 65536

type WebhookHandler struct {
	payments service.PaymentService
	log      *logger.Logger
}

func NewWebhookHandler(payments service.PaymentService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		payments: payments,
		log:      log,
	}
}

// @Summary Stripe webhook
// @Description Receives checkout and subscription events from Stripe
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string false "Stripe signature"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 401 {object} ierr.ErrorResponse
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read request body").
			Mark(ierr.ErrValidation))
		return
	}

	signature := c.GetHeader(types.HeaderStripeSig)
	if err := h.payments.HandleStripeWebhook(c.Request.Context(), payload, signature); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "processed"})
}
