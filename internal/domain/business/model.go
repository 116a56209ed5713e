package business

import (
	"context"
	"strings"

	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

// Business is the tenant root. Invoices, usage counts and credits all hang off it.
type Business struct {
	ID       string         `db:"id" json:"id"`
	OwnerID  string         `db:"owner_id" json:"owner_id"`
	Name     string         `db:"name" json:"name"`
	Email    string         `db:"email" json:"email"`
	Currency string         `db:"currency" json:"currency"`
	Plan     types.PlanTier `db:"plan" json:"plan"`

	// ExtraInvoiceCredits is the purchased overage balance, never negative
	ExtraInvoiceCredits int `db:"extra_invoice_credits" json:"extra_invoice_credits"`

	types.BaseModel
}

// New builds a business on the free plan owned by the caller in ctx
func New(ctx context.Context, name, email, currency string) *Business {
	if currency == "" {
		currency = "USD"
	}
	return &Business{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BUSINESS),
		OwnerID:   types.GetUserID(ctx),
		Name:      strings.TrimSpace(name),
		Email:     email,
		Currency:  strings.ToUpper(currency),
		Plan:      types.PlanFree,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
}

func (b *Business) Validate() error {
	if b.OwnerID == "" {
		return ierr.NewError("owner is required").
			WithHint("An authenticated owner is required to create a business").
			Mark(ierr.ErrValidation)
	}
	if b.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Business name is required").
			Mark(ierr.ErrValidation)
	}
	if b.ExtraInvoiceCredits < 0 {
		return ierr.NewError("credit balance cannot be negative").
			WithHint("Invoice credit balance cannot be negative").
			WithReportableDetails(map[string]any{"extra_invoice_credits": b.ExtraInvoiceCredits}).
			Mark(ierr.ErrValidation)
	}
	return b.Plan.Validate()
}

// IsOwnedBy reports whether userID owns the business
func (b *Business) IsOwnedBy(userID string) bool {
	return userID != "" && b.OwnerID == userID
}
