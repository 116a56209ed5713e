package dto

import (
	"github.com/radu9120/ZeroDue-sub000/internal/domain/credit"
	"github.com/radu9120/ZeroDue-sub000/internal/validator"
)

type AddCreditsRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

func (r *AddCreditsRequest) Validate() error {
	if err := credit.ValidateQuantity(r.Quantity); err != nil {
		return err
	}
	return validator.ValidateRequest(r)
}

type CreditBalanceResponse struct {
	BusinessID string `json:"business_id"`
	Balance    int    `json:"balance"`
}

// PurchaseResult reports the balance after a paid top up. Applied is false
// when the payment had already been recorded.
type PurchaseResult struct {
	BusinessID string `json:"business_id"`
	Balance    int    `json:"balance"`
	Applied    bool   `json:"applied"`
}
