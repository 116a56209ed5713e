package invoice

import (
	"context"
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice is the persisted invoice row. Only the fields the admission core
// needs are typed, everything else the UI stores goes into Metadata.
type Invoice struct {
	ID             string              `db:"id" json:"id"`
	BusinessID     string              `db:"business_id" json:"business_id"`
	OwnerID        string              `db:"owner_id" json:"owner_id"`
	InvoiceNumber  string              `db:"invoice_number" json:"invoice_number"`
	SequenceNumber int64               `db:"sequence_number" json:"sequence_number"`
	ClientID       string              `db:"client_id" json:"client_id"`
	Currency       string              `db:"currency" json:"currency"`
	Amount         decimal.Decimal     `db:"amount" json:"amount" swaggertype:"string"`
	DueDate        *time.Time          `db:"due_date" json:"due_date,omitempty"`
	Notes          string              `db:"notes" json:"notes"`
	Metadata       types.Metadata      `db:"metadata" json:"metadata"`
	InvoiceStatus  types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`

	types.BaseModel
}

// Draft holds the caller supplied fields of an invoice that has not been admitted yet
type Draft struct {
	ClientID string
	Currency string
	Amount   decimal.Decimal
	DueDate  *time.Time
	Notes    string
	Metadata types.Metadata
}

// FromDraft builds the invoice row for an admitted draft. Number and
// sequence are assigned separately by the allocator.
func FromDraft(ctx context.Context, businessID, ownerID string, d Draft, now time.Time) *Invoice {
	base := types.GetDefaultBaseModel(ctx)
	base.CreatedAt = now
	base.UpdatedAt = now

	return &Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		BusinessID:    businessID,
		OwnerID:       ownerID,
		ClientID:      d.ClientID,
		Currency:      d.Currency,
		Amount:        d.Amount,
		DueDate:       d.DueDate,
		Notes:         d.Notes,
		Metadata:      d.Metadata,
		InvoiceStatus: types.InvoiceStatusDraft,
		BaseModel:     base,
	}
}

// AssignNumber sets both representations of the allocated sequence value
func (i *Invoice) AssignNumber(seq int64) {
	i.SequenceNumber = seq
	i.InvoiceNumber = FormatInvoiceNumber(seq)
}
