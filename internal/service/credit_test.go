package service

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/radu9120/ZeroDue-sub000/internal/domain/credit"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/testutil"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/suite"
)

type CreditServiceSuite struct {
	testutil.BaseServiceTestSuite
	service CreditService
}

func TestCreditService(t *testing.T) {
	suite.Run(t, new(CreditServiceSuite))
}

func (s *CreditServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewCreditService(newTestParams(&s.BaseServiceTestSuite, s.GetConfig()))
}

func (s *CreditServiceSuite) TestTryConsumeOneStopsAtZero() {
	b := s.CreateBusiness(types.PlanFree, 1)

	first, err := s.service.TryConsumeOne(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.True(first)

	second, err := s.service.TryConsumeOne(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.False(second)

	resp, err := s.service.GetBalance(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(0, resp.Balance)
}

func (s *CreditServiceSuite) TestTryConsumeOneUnknownBusiness() {
	_, err := s.service.TryConsumeOne(s.GetContext(), "biz_missing")
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *CreditServiceSuite) TestConcurrentConsumptionNeverOverdraws() {
	b := s.CreateBusiness(types.PlanFree, 3)

	var (
		consumed atomic.Int32
		wg       conc.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Go(func() {
			ok, err := s.service.TryConsumeOne(s.GetContext(), b.ID)
			s.NoError(err)
			if ok {
				consumed.Add(1)
			}
		})
	}
	wg.Wait()

	s.Equal(int32(3), consumed.Load())
	resp, err := s.service.GetBalance(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(0, resp.Balance)
}

func (s *CreditServiceSuite) TestAddCredits() {
	b := s.CreateBusiness(types.PlanFree, 2)

	resp, err := s.service.AddCredits(s.GetContext(), b.ID, 5)
	s.Require().NoError(err)
	s.Equal(7, resp.Balance)

	published := s.GetPublisher().EventsNamed(types.EventCreditsAdded)
	s.Require().Len(published, 1)
	s.Equal(5, published[0].Payload["quantity"])
	s.Equal(7, published[0].Payload["balance"])
}

func (s *CreditServiceSuite) TestAddCreditsRejectsNonPositiveQuantity() {
	b := s.CreateBusiness(types.PlanFree, 0)

	for _, quantity := range []int{0, -3} {
		_, err := s.service.AddCredits(s.GetContext(), b.ID, quantity)
		s.Require().Error(err)
		s.True(ierr.IsInvalidQuantity(err))
	}

	resp, err := s.service.GetBalance(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(0, resp.Balance)
	s.Empty(s.GetPublisher().GetEvents())
}

func (s *CreditServiceSuite) TestAddCreditsUnknownBusiness() {
	_, err := s.service.AddCredits(s.GetContext(), "biz_missing", 1)
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *CreditServiceSuite) TestGetBalanceRequiresOwnership() {
	b := s.CreateBusiness(types.PlanFree, 4)

	_, err := s.service.GetBalance(testutil.SetupContextForUser("user_stranger"), b.ID)
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))

	resp, err := s.service.GetBalance(types.SetAdmin(testutil.SetupContextForUser("")), b.ID)
	s.Require().NoError(err)
	s.Equal(4, resp.Balance)
}

func (s *CreditServiceSuite) TestAddPurchasedCreditsIsIdempotent() {
	b := s.CreateBusiness(types.PlanFree, 1)
	purchase := credit.NewPurchase(s.GetContext(), b.ID, 10, "cs_test_123")

	first, err := s.service.AddPurchasedCredits(s.GetContext(), purchase)
	s.Require().NoError(err)
	s.True(first.Applied)
	s.Equal(11, first.Balance)

	redelivered := credit.NewPurchase(s.GetContext(), b.ID, 10, "cs_test_123")
	second, err := s.service.AddPurchasedCredits(s.GetContext(), redelivered)
	s.Require().NoError(err)
	s.False(second.Applied)
	s.Equal(11, second.Balance)

	s.Len(s.GetPublisher().EventsNamed(types.EventCreditsAdded), 1)

	stored, err := s.GetStores().CreditRepo.GetPurchaseByReference(s.GetContext(), "cs_test_123")
	s.Require().NoError(err)
	s.Equal(purchase.ID, stored.ID)
}

func (s *CreditServiceSuite) TestConcurrentRedeliveryAppliesOnce() {
	b := s.CreateBusiness(types.PlanFree, 0)

	var (
		mu      sync.Mutex
		applied int
		wg      conc.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Go(func() {
			res, err := s.service.AddPurchasedCredits(s.GetContext(), credit.NewPurchase(s.GetContext(), b.ID, 3, "cs_dup"))
			s.NoError(err)
			if err == nil && res.Applied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	s.Equal(1, applied)
	resp, err := s.service.GetBalance(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(3, resp.Balance)
}

func (s *CreditServiceSuite) TestAddPurchasedCreditsValidates() {
	b := s.CreateBusiness(types.PlanFree, 0)

	_, err := s.service.AddPurchasedCredits(s.GetContext(), credit.NewPurchase(s.GetContext(), b.ID, 0, "cs_zero"))
	s.True(ierr.IsInvalidQuantity(err))

	_, err = s.service.AddPurchasedCredits(s.GetContext(), credit.NewPurchase(s.GetContext(), b.ID, 2, ""))
	s.True(ierr.IsValidation(err))
}
