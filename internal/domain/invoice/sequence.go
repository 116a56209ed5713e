package invoice

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
)

const (
	InvoiceNumberPrefix = "INV"
	invoiceNumberDigits = 4
)

// InvoiceSequence is the per business counter row
type InvoiceSequence struct {
	BusinessID string    `db:"business_id"`
	LastValue  int64     `db:"last_value"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// FormatInvoiceNumber renders a sequence value as INV0001. Values past 9999
// keep every digit, so 10000 becomes INV10000.
func FormatInvoiceNumber(seq int64) string {
	return fmt.Sprintf("%s%0*d", InvoiceNumberPrefix, invoiceNumberDigits, seq)
}

// ParseInvoiceNumber returns the numeric suffix of an invoice number
func ParseInvoiceNumber(number string) (int64, error) {
	digits, ok := strings.CutPrefix(number, InvoiceNumberPrefix)
	if !ok || len(digits) < invoiceNumberDigits {
		return 0, ierr.NewError("malformed invoice number").
			WithHintf("Invoice number %q must look like %s", number, FormatInvoiceNumber(1)).
			Mark(ierr.ErrValidation)
	}

	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq <= 0 {
		return 0, ierr.NewError("malformed invoice number").
			WithHintf("Invoice number %q must look like %s", number, FormatInvoiceNumber(1)).
			Mark(ierr.ErrValidation)
	}
	return seq, nil
}
