package postgres

import (
	"context"
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/domain/invoice"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/postgres"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

const invoiceColumns = `id, business_id, owner_id, invoice_number, sequence_number, client_id,
	currency, amount, due_date, notes, metadata, invoice_status,
	status, created_at, updated_at, created_by, updated_by`

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `
	INSERT INTO invoices (` + invoiceColumns + `)
	VALUES (
		:id, :business_id, :owner_id, :invoice_number, :sequence_number, :client_id,
		:currency, :amount, :due_date, :notes, :metadata, :invoice_status,
		:status, :created_at, :updated_at, :created_by, :updated_by
	)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, inv); err != nil {
		return postgres.ClassifyError(err, "insert invoice")
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, businessID, id string) (*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE business_id = $1 AND id = $2 AND status = $3`

	var inv invoice.Invoice
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &inv, query, businessID, id, types.StatusPublished); err != nil {
		return nil, notFoundHint(postgres.ClassifyError(err, "get invoice"), "Invoice", id)
	}
	return &inv, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	query := `
	SELECT ` + invoiceColumns + `
	FROM invoices
	WHERE business_id = $1 AND status = $2
	ORDER BY sequence_number DESC
	LIMIT $3 OFFSET $4`

	var invoices []*invoice.Invoice
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &invoices, query,
		filter.BusinessID, types.StatusPublished, filter.Limit, filter.Offset)
	if err != nil {
		return nil, postgres.ClassifyError(err, "list invoices")
	}
	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	query := `SELECT COUNT(*) FROM invoices WHERE business_id = $1 AND status = $2`

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, filter.BusinessID, types.StatusPublished); err != nil {
		return 0, postgres.ClassifyError(err, "count invoices")
	}
	return count, nil
}

func (r *invoiceRepository) CountByScope(ctx context.Context, scope types.UsageScope) (int, error) {
	column, err := scopeColumn(scope)
	if err != nil {
		return 0, err
	}

	query := `SELECT COUNT(*) FROM invoices WHERE ` + column + ` = $1`

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, scope.ID); err != nil {
		return 0, postgres.ClassifyError(err, "count invoices in scope")
	}
	return count, nil
}

func (r *invoiceRepository) CountByScopeBetween(ctx context.Context, scope types.UsageScope, start, end time.Time) (int, error) {
	column, err := scopeColumn(scope)
	if err != nil {
		return 0, err
	}

	query := `SELECT COUNT(*) FROM invoices WHERE ` + column + ` = $1 AND created_at >= $2 AND created_at < $3`

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, scope.ID, start, end); err != nil {
		return 0, postgres.ClassifyError(err, "count invoices in window")
	}
	return count, nil
}

// NextSequenceValue upserts the counter row. GREATEST against the invoices
// already stored keeps the counter ahead of rows written before it existed.
func (r *invoiceRepository) NextSequenceValue(ctx context.Context, businessID string) (int64, error) {
	query := `
	INSERT INTO invoice_sequences (business_id, last_value, created_at, updated_at)
	VALUES ($1, (SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM invoices WHERE business_id = $1), NOW(), NOW())
	ON CONFLICT (business_id) DO UPDATE
	SET last_value = GREATEST(
			invoice_sequences.last_value,
			(SELECT COALESCE(MAX(sequence_number), 0) FROM invoices WHERE business_id = EXCLUDED.business_id)
		) + 1,
		updated_at = NOW()
	RETURNING last_value`

	var lastValue int64
	if err := r.db.GetQuerier(ctx).QueryRowxContext(ctx, query, businessID).Scan(&lastValue); err != nil {
		return 0, postgres.ClassifyError(err, "advance invoice sequence")
	}

	r.logger.Debugw("advanced invoice sequence",
		"business_id", businessID,
		"last_value", lastValue,
	)
	return lastValue, nil
}

func scopeColumn(scope types.UsageScope) (string, error) {
	switch scope.Kind {
	case types.UsageScopeBusiness:
		return "business_id", nil
	case types.UsageScopeOwner:
		return "owner_id", nil
	}
	return "", ierr.NewError("unknown usage scope").
		WithHintf("Usage scope %q is not supported", scope.Kind).
		Mark(ierr.ErrValidation)
}
