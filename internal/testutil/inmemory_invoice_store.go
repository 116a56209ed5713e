package testutil

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/domain/invoice"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/samber/lo"
)

var _ invoice.Repository = (*InMemoryInvoiceStore)(nil)

// InMemoryInvoiceStore implements invoice.Repository together with the
// per business counter rows
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]

	mu        sync.Mutex
	sequences map[string]int64

	createFailures int
	createErr      error
	countFailures  int
	countErr       error
}

type invoiceSnapshot struct {
	items     any
	sequences map[string]int64
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore(copyInvoice),
		sequences:     make(map[string]int64),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	c := *inv
	c.Metadata = maps.Clone(inv.Metadata)
	if inv.DueDate != nil {
		c.DueDate = lo.ToPtr(*inv.DueDate)
	}
	return &c
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := s.nextFailure(&s.createFailures, &s.createErr); err != nil {
		return err
	}

	return s.InMemoryStore.Create(ctx, inv.ID, inv, func(existing *invoice.Invoice) error {
		if existing.BusinessID != inv.BusinessID {
			return nil
		}
		if existing.InvoiceNumber == inv.InvoiceNumber || existing.SequenceNumber == inv.SequenceNumber {
			return ierr.NewError("duplicate invoice number").
				WithHintf("Invoice number %s is already taken", inv.InvoiceNumber).
				WithReportableDetails(map[string]any{
					"business_id":    inv.BusinessID,
					"invoice_number": inv.InvoiceNumber,
				}).
				Mark(ierr.ErrSequenceConflict)
		}
		return nil
	})
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, businessID, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || inv.BusinessID != businessID {
		return nil, ierr.NewError("invoice not found").
			WithHintf("Invoice %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return inv, nil
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	items := s.InMemoryStore.List(ctx, businessFilter(filter.BusinessID), func(i, j *invoice.Invoice) bool {
		return i.SequenceNumber > j.SequenceNumber
	})

	if filter.Offset >= len(items) {
		return []*invoice.Invoice{}, nil
	}
	end := len(items)
	if filter.Limit > 0 {
		end = min(filter.Offset+filter.Limit, len(items))
	}
	return items[filter.Offset:end], nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, businessFilter(filter.BusinessID)), nil
}

func (s *InMemoryInvoiceStore) CountByScope(ctx context.Context, scope types.UsageScope) (int, error) {
	if err := s.nextFailure(&s.countFailures, &s.countErr); err != nil {
		return 0, err
	}
	return s.InMemoryStore.Count(ctx, scopeFilter(scope)), nil
}

func (s *InMemoryInvoiceStore) CountByScopeBetween(ctx context.Context, scope types.UsageScope, start, end time.Time) (int, error) {
	if err := s.nextFailure(&s.countFailures, &s.countErr); err != nil {
		return 0, err
	}
	inScope := scopeFilter(scope)
	return s.InMemoryStore.Count(ctx, func(ctx context.Context, inv *invoice.Invoice) bool {
		return inScope(ctx, inv) && !inv.CreatedAt.Before(start) && inv.CreatedAt.Before(end)
	}), nil
}

// NextSequenceValue mirrors the postgres upsert: the counter never falls
// behind the highest sequence already stored for the business.
func (s *InMemoryInvoiceStore) NextSequenceValue(ctx context.Context, businessID string) (int64, error) {
	highest := int64(0)
	for _, inv := range s.InMemoryStore.List(ctx, businessFilter(businessID), nil) {
		highest = max(highest, inv.SequenceNumber)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := max(s.sequences[businessID], highest) + 1
	s.sequences[businessID] = next
	return next, nil
}

// Sequence returns the stored counter value of a business
func (s *InMemoryInvoiceStore) Sequence(businessID string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.sequences[businessID]
	return v, ok
}

// SetSequence overwrites the counter of a business
func (s *InMemoryInvoiceStore) SetSequence(businessID string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[businessID] = value
}

// FailNextCreates makes the next n inserts fail with err
func (s *InMemoryInvoiceStore) FailNextCreates(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createFailures, s.createErr = n, err
}

// FailNextCounts makes the next n usage counts fail with err
func (s *InMemoryInvoiceStore) FailNextCounts(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countFailures, s.countErr = n, err
}

func (s *InMemoryInvoiceStore) nextFailure(remaining *int, err *error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *remaining == 0 {
		return nil
	}
	*remaining--
	return *err
}

func (s *InMemoryInvoiceStore) deleteByBusiness(ctx context.Context, businessID string) {
	s.DeleteWhere(ctx, businessFilter(businessID))

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sequences, businessID)
}

func (s *InMemoryInvoiceStore) Snapshot() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return invoiceSnapshot{
		items:     s.InMemoryStore.Snapshot(),
		sequences: maps.Clone(s.sequences),
	}
}

func (s *InMemoryInvoiceStore) Restore(snapshot any) {
	snap := snapshot.(invoiceSnapshot)
	s.InMemoryStore.Restore(snap.items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences = maps.Clone(snap.sequences)
}

// Clear removes all invoices and counters
func (s *InMemoryInvoiceStore) Clear() {
	s.InMemoryStore.Clear()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences = make(map[string]int64)
	s.createFailures, s.countFailures = 0, 0
}

func businessFilter(businessID string) FilterFunc[*invoice.Invoice] {
	return func(_ context.Context, inv *invoice.Invoice) bool {
		return inv.BusinessID == businessID
	}
}

func scopeFilter(scope types.UsageScope) FilterFunc[*invoice.Invoice] {
	return func(_ context.Context, inv *invoice.Invoice) bool {
		if scope.Kind == types.UsageScopeOwner {
			return inv.OwnerID == scope.ID
		}
		return inv.BusinessID == scope.ID
	}
}
