package service

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/api/dto"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/admission"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/credit"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

// CreditService manages the purchased invoice credit balance of a business
type CreditService interface {
	GetBalance(ctx context.Context, businessID string) (*dto.CreditBalanceResponse, error)

	// TryConsumeOne takes one credit if the balance is positive. Inside an
	// open transaction the decrement commits or rolls back with it.
	TryConsumeOne(ctx context.Context, businessID string) (bool, error)

	AddCredits(ctx context.Context, businessID string, quantity int) (*dto.CreditBalanceResponse, error)

	// AddPurchasedCredits applies a confirmed payment exactly once per
	// payment reference
	AddPurchasedCredits(ctx context.Context, p *credit.Purchase) (*dto.PurchaseResult, error)
}

type creditService struct {
	ServiceParams
	limits admission.Limits
}

func NewCreditService(params ServiceParams) CreditService {
	return &creditService{
		ServiceParams: params,
		limits:        params.Config.Admission.Limits(),
	}
}

func (s *creditService) GetBalance(ctx context.Context, businessID string) (*dto.CreditBalanceResponse, error) {
	if _, err := s.getAuthorizedBusiness(ctx, businessID); err != nil {
		return nil, err
	}

	balance, err := s.CreditRepo.GetBalance(ctx, businessID)
	if err != nil {
		return nil, err
	}
	return &dto.CreditBalanceResponse{BusinessID: businessID, Balance: balance}, nil
}

func (s *creditService) TryConsumeOne(ctx context.Context, businessID string) (bool, error) {
	var consumed bool
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		consumed, err = s.CreditRepo.TryConsumeOne(ctx, businessID)
		return err
	})
	if err != nil {
		return false, err
	}
	return consumed, nil
}

func (s *creditService) AddCredits(ctx context.Context, businessID string, quantity int) (*dto.CreditBalanceResponse, error) {
	if err := credit.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	b, err := s.getAuthorizedBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}

	var balance int
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		balance, err = s.CreditRepo.AddCredits(ctx, businessID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidateUsage(ctx, businessID, s.limits.ScopeKind(b.Plan))
	s.publish(ctx, types.EventCreditsAdded, businessID, map[string]any{
		"quantity": quantity,
		"balance":  balance,
	})

	return &dto.CreditBalanceResponse{BusinessID: businessID, Balance: balance}, nil
}

func (s *creditService) AddPurchasedCredits(ctx context.Context, p *credit.Purchase) (*dto.PurchaseResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	b, err := s.getAuthorizedBusiness(ctx, p.BusinessID)
	if err != nil {
		return nil, err
	}

	result := &dto.PurchaseResult{BusinessID: p.BusinessID}
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		// the insert runs in a savepoint, a duplicate reference must not
		// abort the enclosing transaction
		err := s.DB.WithTx(ctx, func(ctx context.Context) error {
			return s.CreditRepo.CreatePurchase(ctx, p)
		})
		if ierr.IsAlreadyExists(err) {
			s.Logger.Infow("payment already applied, skipping credit top up",
				"business_id", p.BusinessID,
				"payment_reference", p.PaymentReference,
			)
			result.Balance, err = s.CreditRepo.GetBalance(ctx, p.BusinessID)
			return err
		}
		if err != nil {
			return err
		}

		result.Balance, err = s.CreditRepo.AddCredits(ctx, p.BusinessID, p.Quantity)
		if err != nil {
			return err
		}
		result.Applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Applied {
		s.invalidateUsage(ctx, p.BusinessID, s.limits.ScopeKind(b.Plan))
		s.publish(ctx, types.EventCreditsAdded, p.BusinessID, map[string]any{
			"quantity":          p.Quantity,
			"balance":           result.Balance,
			"payment_reference": p.PaymentReference,
		})
	}
	return result, nil
}
