package types

import (
	"fmt"

	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
)

// InvoiceStatus is the lifecycle state of an invoice. It is owned by the UI
// layer and only defaulted here.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
	InvoiceStatusVoid    InvoiceStatus = "void"
)

func (s InvoiceStatus) Validate() error {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusVoid:
		return nil
	}
	return ierr.NewError(fmt.Sprintf("invalid invoice status: %s", s)).
		WithHint("Invalid invoice status").
		Mark(ierr.ErrValidation)
}

// InvoiceFilter lists the invoices of one business
type InvoiceFilter struct {
	BusinessID string `json:"-"`
	Limit      int    `form:"limit,default=50" json:"limit"`
	Offset     int    `form:"offset,default=0" json:"offset"`
}

const (
	FILTER_DEFAULT_LIMIT = 50
	FILTER_MAX_LIMIT     = 500
)

func NewInvoiceFilter(businessID string) *InvoiceFilter {
	return &InvoiceFilter{BusinessID: businessID, Limit: FILTER_DEFAULT_LIMIT}
}

func (f *InvoiceFilter) Validate() error {
	if f.BusinessID == "" {
		return ierr.NewError("business id is required").
			WithHint("Business ID is required").
			Mark(ierr.ErrValidation)
	}
	if f.Limit <= 0 {
		f.Limit = FILTER_DEFAULT_LIMIT
	}
	if f.Limit > FILTER_MAX_LIMIT {
		f.Limit = FILTER_MAX_LIMIT
	}
	if f.Offset < 0 {
		return ierr.NewError("offset must be non-negative").
			WithHint("Offset must be non-negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}
