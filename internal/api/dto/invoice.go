package dto

import (
	"strings"
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/domain/invoice"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/radu9120/ZeroDue-sub000/internal/validator"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest is the draft submitted for admission. The invoice
// number is always assigned by the server.
type CreateInvoiceRequest struct {
	// client_id references the client record kept by the UI
	ClientID string `json:"client_id" validate:"required"`

	// currency defaults to the business currency when empty
	Currency string `json:"currency" validate:"omitempty,len=3"`

	Amount   decimal.Decimal `json:"amount" swaggertype:"string"`
	DueDate  *time.Time      `json:"due_date,omitempty"`
	Notes    string          `json:"notes,omitempty" validate:"max=2000"`
	Metadata types.Metadata  `json:"metadata,omitempty"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Amount.IsNegative() {
		return ierr.NewError("amount must not be negative").
			WithHint("Invoice amount must not be negative").
			WithReportableDetails(map[string]any{"amount": r.Amount.String()}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *CreateInvoiceRequest) ToDraft(defaultCurrency string) invoice.Draft {
	currency := strings.ToUpper(r.Currency)
	if currency == "" {
		currency = defaultCurrency
	}
	return invoice.Draft{
		ClientID: r.ClientID,
		Currency: currency,
		Amount:   r.Amount,
		DueDate:  r.DueDate,
		Notes:    r.Notes,
		Metadata: r.Metadata,
	}
}

type InvoiceResponse struct {
	*invoice.Invoice
}

func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{Invoice: inv}
}

type ListInvoicesResponse = ListResponse[*InvoiceResponse]
