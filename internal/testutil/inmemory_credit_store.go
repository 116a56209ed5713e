package testutil

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/domain/business"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/credit"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
)

var _ credit.Repository = (*InMemoryCreditStore)(nil)

// InMemoryCreditStore implements credit.Repository. The balance lives on the
// business rows, purchases are kept here.
type InMemoryCreditStore struct {
	*InMemoryStore[*credit.Purchase]
	businesses *InMemoryBusinessStore
}

// NewInMemoryCreditStore creates a credit store backed by the given business store
func NewInMemoryCreditStore(businesses *InMemoryBusinessStore) *InMemoryCreditStore {
	return &InMemoryCreditStore{
		InMemoryStore: NewInMemoryStore(func(p *credit.Purchase) *credit.Purchase {
			c := *p
			return &c
		}),
		businesses: businesses,
	}
}

func (s *InMemoryCreditStore) GetBalance(ctx context.Context, businessID string) (int, error) {
	b, err := s.businesses.Get(ctx, businessID)
	if err != nil {
		return 0, err
	}
	return b.ExtraInvoiceCredits, nil
}

func (s *InMemoryCreditStore) TryConsumeOne(ctx context.Context, businessID string) (bool, error) {
	consumed := false
	_, err := s.businesses.Mutate(ctx, businessID, func(b *business.Business) (*business.Business, error) {
		if b.ExtraInvoiceCredits > 0 {
			b.ExtraInvoiceCredits--
			consumed = true
		}
		return b, nil
	})
	if err != nil {
		return false, ierr.WithError(err).
			WithHintf("Business %s was not found", businessID).
			Mark(ierr.ErrNotFound)
	}
	return consumed, nil
}

func (s *InMemoryCreditStore) AddCredits(ctx context.Context, businessID string, quantity int) (int, error) {
	if err := credit.ValidateQuantity(quantity); err != nil {
		return 0, err
	}
	b, err := s.businesses.Mutate(ctx, businessID, func(b *business.Business) (*business.Business, error) {
		b.ExtraInvoiceCredits += quantity
		return b, nil
	})
	if err != nil {
		return 0, ierr.WithError(err).
			WithHintf("Business %s was not found", businessID).
			Mark(ierr.ErrNotFound)
	}
	return b.ExtraInvoiceCredits, nil
}

func (s *InMemoryCreditStore) CreatePurchase(ctx context.Context, p *credit.Purchase) error {
	if _, err := s.businesses.Get(ctx, p.BusinessID); err != nil {
		return err
	}
	return s.InMemoryStore.Create(ctx, p.ID, p, func(existing *credit.Purchase) error {
		if existing.PaymentReference == p.PaymentReference {
			return ierr.NewError("payment already recorded").
				WithHintf("Payment %s has already been applied", p.PaymentReference).
				Mark(ierr.ErrAlreadyExists)
		}
		return nil
	})
}

func (s *InMemoryCreditStore) GetPurchaseByReference(ctx context.Context, reference string) (*credit.Purchase, error) {
	found := s.List(ctx, func(_ context.Context, p *credit.Purchase) bool {
		return p.PaymentReference == reference
	}, nil)
	if len(found) == 0 {
		return nil, ierr.NewError("purchase not found").
			WithHintf("No purchase recorded for payment %s", reference).
			Mark(ierr.ErrNotFound)
	}
	return found[0], nil
}

func (s *InMemoryCreditStore) deleteByBusiness(ctx context.Context, businessID string) {
	s.DeleteWhere(ctx, func(_ context.Context, p *credit.Purchase) bool {
		return p.BusinessID == businessID
	})
}
