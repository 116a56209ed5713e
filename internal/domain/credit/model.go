package credit

import (
	"context"
	"time"

	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/shopspring/decimal"
)

// Purchase records a confirmed payment that granted invoice credits.
// PaymentReference is unique, which makes a redelivered confirmation a no-op.
type Purchase struct {
	ID               string          `db:"id" json:"id"`
	BusinessID       string          `db:"business_id" json:"business_id"`
	Quantity         int             `db:"quantity" json:"quantity"`
	Amount           decimal.Decimal `db:"amount" json:"amount" swaggertype:"string"`
	Currency         string          `db:"currency" json:"currency"`
	PaymentReference string          `db:"payment_reference" json:"payment_reference"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	CreatedBy        string          `db:"created_by" json:"created_by"`
}

func NewPurchase(ctx context.Context, businessID string, quantity int, reference string) *Purchase {
	return &Purchase{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CREDIT_PURCHASE),
		BusinessID:       businessID,
		Quantity:         quantity,
		Amount:           decimal.Zero,
		PaymentReference: reference,
		CreatedAt:        time.Now().UTC(),
		CreatedBy:        types.GetUserID(ctx),
	}
}

func (p *Purchase) Validate() error {
	if err := ValidateQuantity(p.Quantity); err != nil {
		return err
	}
	if p.BusinessID == "" {
		return ierr.NewError("business id is required").
			WithHint("Business ID is required").
			Mark(ierr.ErrValidation)
	}
	if p.PaymentReference == "" {
		return ierr.NewError("payment reference is required").
			WithHint("A payment reference is required to record purchased credits").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ValidateQuantity rejects non positive top ups
func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return ierr.NewError("quantity must be positive").
			WithHintf("Credit quantity must be greater than zero, got %d", quantity).
			WithReportableDetails(map[string]any{"quantity": quantity}).
			Mark(ierr.ErrInvalidQuantity)
	}
	return nil
}
