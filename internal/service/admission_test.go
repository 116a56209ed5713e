package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/api/dto"
	"github.com/radu9120/ZeroDue-sub000/internal/config"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/credit"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/testutil"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/suite"
)

func newTestParams(s *testutil.BaseServiceTestSuite, cfg *config.Configuration) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:         s.GetLogger(),
		Config:         cfg,
		DB:             s.GetDB(),
		Cache:          s.GetCache(),
		BusinessRepo:   stores.BusinessRepo,
		InvoiceRepo:    stores.InvoiceRepo,
		CreditRepo:     stores.CreditRepo,
		EventPublisher: s.GetPublisher(),
		Now:            s.GetClock().Now,
		usageGuard:     newUsageCacheGuard(),
	}
}

func newAdmissionService(params ServiceParams) AdmissionService {
	return NewAdmissionService(params, NewUsageService(params), NewSequenceService(params))
}

type AdmissionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service AdmissionService
}

func TestAdmissionService(t *testing.T) {
	suite.Run(t, new(AdmissionServiceSuite))
}

func (s *AdmissionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = newAdmissionService(newTestParams(&s.BaseServiceTestSuite, s.GetConfig()))
}

func (s *AdmissionServiceSuite) draft() dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		ClientID: "client_1",
		Amount:   decimal.NewFromInt(250),
	}
}

func (s *AdmissionServiceSuite) invoiceCount(businessID string) int {
	count, err := s.GetStores().InvoiceRepo.Count(s.GetContext(), types.NewInvoiceFilter(businessID))
	s.Require().NoError(err)
	return count
}

func (s *AdmissionServiceSuite) balance(businessID string) int {
	balance, err := s.GetStores().CreditRepo.GetBalance(s.GetContext(), businessID)
	s.Require().NoError(err)
	return balance
}

func conflictErr() error {
	return ierr.NewError("duplicate key value violates unique constraint").
		Mark(ierr.ErrSequenceConflict)
}

func transientErr() error {
	return ierr.NewError("connection reset by peer").
		Mark(ierr.ErrTransient)
}

func (s *AdmissionServiceSuite) TestFreeTierBoundary() {
	b := s.CreateBusiness(types.PlanFree, 0)

	first, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.Require().True(first.Admitted())
	s.Equal(types.AdmissionAllow, first.Outcome)
	s.Equal("INV0001", first.Invoice.InvoiceNumber)
	s.Equal("USD", first.Invoice.Currency)
	s.Equal(s.GetNow(), first.Invoice.CreatedAt)

	second, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.Require().False(second.Admitted())
	s.Equal(types.AdmissionDeny, second.Outcome)
	s.Equal(types.DenialFreeLimitReached, second.Denial.Reason)
	s.Equal(types.SignalNeedsPayment, second.Denial.Signal)
	s.Require().NotNil(second.Denial.Usage)
	s.Equal(1, second.Denial.Usage.AllTimeCount)
	s.Equal(1, *second.Denial.Usage.Limit)
	s.Equal(0, *second.Denial.Usage.Remaining)

	s.Equal(1, s.invoiceCount(b.ID))
}

func (s *AdmissionServiceSuite) TestFreeTierOverageConsumesCredit() {
	b := s.CreateBusiness(types.PlanFree, 1)
	s.SeedInvoices(b, 1, s.GetNow())

	res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.Require().True(res.Admitted())
	s.Equal(types.AdmissionAllowViaCredit, res.Outcome)
	s.Equal(1, res.CreditsUsed)
	s.Equal("INV0002", res.Invoice.InvoiceNumber)
	s.Equal(0, s.balance(b.ID))

	res, err = s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.False(res.Admitted())
	s.Equal(types.DenialFreeLimitReached, res.Denial.Reason)
	s.Equal(2, s.invoiceCount(b.ID))
}

func (s *AdmissionServiceSuite) TestTierHeadroomDoesNotTouchCredits() {
	b := s.CreateBusiness(types.PlanProfessional, 3)

	res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.Equal(types.AdmissionAllow, res.Outcome)
	s.Equal(0, res.CreditsUsed)
	s.Equal(3, s.balance(b.ID))
}

func (s *AdmissionServiceSuite) TestProfessionalMonthlyLimitResets() {
	b := s.CreateBusiness(types.PlanProfessional, 0)
	s.SeedInvoices(b, config.DefaultProfessionalMonthlyLimit, s.GetNow())

	res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.Require().False(res.Admitted())
	s.Equal(types.DenialMonthlyLimitReached, res.Denial.Reason)
	s.Equal(types.LimitPeriodMonth, res.Denial.Usage.Period)

	s.GetClock().Set(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))

	res, err = s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.Require().True(res.Admitted())
	s.Equal("INV0011", res.Invoice.InvoiceNumber)
}

func (s *AdmissionServiceSuite) TestProfessionalIgnoresPreviousMonths() {
	b := s.CreateBusiness(types.PlanProfessional, 0)
	s.SeedInvoices(b, 25, s.GetNow().AddDate(0, -1, 0))
	s.SeedInvoices(b, config.DefaultProfessionalMonthlyLimit-1, s.GetNow())

	res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.Require().True(res.Admitted())
	s.Equal("INV0035", res.Invoice.InvoiceNumber)

	res, err = s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.False(res.Admitted())
}

func (s *AdmissionServiceSuite) TestEnterpriseUnlimited() {
	b := s.CreateBusiness(types.PlanEnterprise, 0)
	s.SeedInvoices(b, 150, s.GetNow())

	res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.Require().True(res.Admitted())
	s.Equal("INV0151", res.Invoice.InvoiceNumber)
}

func (s *AdmissionServiceSuite) TestUnknownPlanTreatedAsFree() {
	b := s.CreateBusiness(types.PlanTier("legacy_gold"), 0)
	s.SeedInvoices(b, 1, s.GetNow())

	res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.False(res.Admitted())
	s.Equal(types.DenialFreeLimitReached, res.Denial.Reason)
}

func (s *AdmissionServiceSuite) TestConcurrentRequestsGetUniqueNumbers() {
	for _, n := range []int{2, 10, 50} {
		s.Run(fmt.Sprintf("n=%d", n), func() {
			b := s.CreateBusiness(types.PlanEnterprise, 0)

			var (
				mu      sync.Mutex
				numbers = make(map[string]int)
				errs    []error
				wg      conc.WaitGroup
			)
			for i := 0; i < n; i++ {
				wg.Go(func() {
					res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						errs = append(errs, err)
						return
					}
					numbers[res.Invoice.InvoiceNumber]++
				})
			}
			wg.Wait()

			s.Empty(errs)
			s.Len(numbers, n)
			for i := 1; i <= n; i++ {
				s.Equal(1, numbers[fmt.Sprintf("INV%04d", i)])
			}
			s.Equal(n, s.invoiceCount(b.ID))
		})
	}
}

func (s *AdmissionServiceSuite) TestConcurrentRequestsSpendSingleCreditOnce() {
	b := s.CreateBusiness(types.PlanFree, 1)
	s.SeedInvoices(b, 1, s.GetNow())

	var (
		mu       sync.Mutex
		admitted int
		denied   int
		wg       conc.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Go(func() {
			res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
			s.NoError(err)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Admitted() {
				admitted++
			} else {
				denied++
			}
		})
	}
	wg.Wait()

	s.Equal(1, admitted)
	s.Equal(4, denied)
	s.Equal(0, s.balance(b.ID))
	s.Equal(2, s.invoiceCount(b.ID))
}

func (s *AdmissionServiceSuite) TestConcurrentBusinessesAreIndependent() {
	businesses := []string{
		s.CreateBusiness(types.PlanFree, 0).ID,
		s.CreateBusiness(types.PlanFree, 0).ID,
		s.CreateBusiness(types.PlanFree, 0).ID,
	}

	var wg conc.WaitGroup
	for _, id := range businesses {
		id := id
		wg.Go(func() {
			res, err := s.service.RequestCreation(s.GetContext(), id, s.draft())
			s.NoError(err)
			if err == nil {
				s.True(res.Admitted())
				s.Equal("INV0001", res.Invoice.InvoiceNumber)
			}
		})
	}
	wg.Wait()
}

func (s *AdmissionServiceSuite) TestSequenceConflictIsRetried() {
	b := s.CreateBusiness(types.PlanEnterprise, 0)
	s.GetStores().InvoiceRepo.(*testutil.InMemoryInvoiceStore).FailNextCreates(2, conflictErr())

	res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.Require().True(res.Admitted())
	// the failed tries rolled back their counter advance
	s.Equal("INV0001", res.Invoice.InvoiceNumber)
}

func (s *AdmissionServiceSuite) TestSequenceConflictExhaustionIsTransient() {
	b := s.CreateBusiness(types.PlanFree, 1)
	s.SeedInvoices(b, 1, s.GetNow())
	store := s.GetStores().InvoiceRepo.(*testutil.InMemoryInvoiceStore)
	store.FailNextCreates(100, conflictErr())

	res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().Error(err)
	s.Nil(res)
	s.True(ierr.IsTransient(err))
	s.True(ierr.IsSequenceConflict(err))

	// the credit consumed by each attempt was rolled back with it
	s.Equal(1, s.balance(b.ID))
	s.Equal(1, s.invoiceCount(b.ID))
	seq, _ := store.Sequence(b.ID)
	s.Equal(int64(1), seq)
}

func (s *AdmissionServiceSuite) TestTransientCommitFailureIsRetried() {
	b := s.CreateBusiness(types.PlanFree, 0)
	s.GetDB().FailNextCommits(1, transientErr())

	res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.Require().True(res.Admitted())
	s.Equal("INV0001", res.Invoice.InvoiceNumber)
	s.Equal(1, s.invoiceCount(b.ID))
	s.Equal(1, s.GetDB().Rollbacks())
}

func (s *AdmissionServiceSuite) TestPersistentTransientFailureIsNotADenial() {
	b := s.CreateBusiness(types.PlanFree, 0)
	s.GetStores().InvoiceRepo.(*testutil.InMemoryInvoiceStore).FailNextCounts(100, transientErr())

	res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().Error(err)
	s.Nil(res)
	s.True(ierr.IsTransient(err))
	s.Equal(s.GetConfig().Backend.RetryMaxAttempts, s.GetDB().Rollbacks())
}

func (s *AdmissionServiceSuite) TestDenialIsNotRetried() {
	b := s.CreateBusiness(types.PlanFree, 0)
	s.SeedInvoices(b, 1, s.GetNow())
	before := s.GetDB().Commits()

	res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.False(res.Admitted())
	s.Equal(before+1, s.GetDB().Commits())
	s.Equal(0, s.GetDB().Rollbacks())
}

// drainedCreditRepo reports the balance as already spent when admission
// tries to take a credit
type drainedCreditRepo struct {
	credit.Repository
	mu          sync.Mutex
	consumes    int
	balanceRead int
}

func (r *drainedCreditRepo) TryConsumeOne(ctx context.Context, businessID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumes++
	return false, nil
}

func (r *drainedCreditRepo) GetBalance(ctx context.Context, businessID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balanceRead++
	return 0, nil
}

func (s *AdmissionServiceSuite) TestLostCreditIsADenial() {
	b := s.CreateBusiness(types.PlanFree, 1)
	s.SeedInvoices(b, 1, s.GetNow())

	credits := &drainedCreditRepo{Repository: s.GetStores().CreditRepo}
	params := newTestParams(&s.BaseServiceTestSuite, s.GetConfig())
	params.CreditRepo = credits
	svc := newAdmissionService(params)
	before := s.GetDB().Commits()

	res, err := svc.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.False(res.Admitted())
	s.Equal(types.AdmissionDeny, res.Outcome)
	s.Require().NotNil(res.Denial)
	s.Equal(types.DenialFreeLimitReached, res.Denial.Reason)
	s.Equal(types.SignalNeedsPayment, res.Denial.Signal)
	s.Zero(res.CreditsUsed)

	s.Equal(1, credits.consumes)
	s.Equal(1, credits.balanceRead)
	s.Equal(1, s.invoiceCount(b.ID))
	s.Equal(before+1, s.GetDB().Commits())
	s.Equal(0, s.GetDB().Rollbacks())
	s.Empty(s.GetPublisher().EventsNamed(types.EventInvoiceCreated))
}

func (s *AdmissionServiceSuite) TestNonTransientErrorIsNotRetried() {
	b := s.CreateBusiness(types.PlanEnterprise, 0)
	s.GetStores().InvoiceRepo.(*testutil.InMemoryInvoiceStore).FailNextCreates(1,
		ierr.NewError("check constraint").Mark(ierr.ErrDatabase))

	_, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().Error(err)
	s.True(ierr.IsDatabase(err))
	s.Equal(1, s.GetDB().Rollbacks())
}

func (s *AdmissionServiceSuite) TestCallerMustOwnBusiness() {
	b := s.CreateBusiness(types.PlanEnterprise, 0)
	stranger := testutil.SetupContextForUser("user_stranger")

	_, err := s.service.RequestCreation(stranger, b.ID, s.draft())
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))
	s.Equal(0, s.invoiceCount(b.ID))

	_, err = s.service.GetUsageSnapshot(stranger, b.ID)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *AdmissionServiceSuite) TestUnknownBusiness() {
	_, err := s.service.RequestCreation(s.GetContext(), "biz_missing", s.draft())
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *AdmissionServiceSuite) TestInvalidDraftIsRejected() {
	b := s.CreateBusiness(types.PlanEnterprise, 0)

	_, err := s.service.RequestCreation(s.GetContext(), b.ID, dto.CreateInvoiceRequest{})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.RequestCreation(s.GetContext(), b.ID, dto.CreateInvoiceRequest{
		ClientID: "client_1",
		Amount:   decimal.NewFromInt(-5),
	})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *AdmissionServiceSuite) TestAdmissionPublishesEventAndRefreshesSnapshot() {
	b := s.CreateBusiness(types.PlanProfessional, 2)

	snapshot, err := s.service.GetUsageSnapshot(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(0, snapshot.MonthCount)
	s.Equal(2, snapshot.CreditBalance)
	s.Equal(config.DefaultProfessionalMonthlyLimit, *snapshot.Remaining)

	res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.Require().True(res.Admitted())

	published := s.GetPublisher().EventsNamed(types.EventInvoiceCreated)
	s.Require().Len(published, 1)
	s.Equal(b.ID, published[0].BusinessID)
	s.Equal(res.Invoice.InvoiceNumber, published[0].Payload["invoice_number"])

	snapshot, err = s.service.GetUsageSnapshot(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(1, snapshot.MonthCount)
	s.Equal(1, snapshot.AllTimeCount)
	s.Equal(config.DefaultProfessionalMonthlyLimit-1, *snapshot.Remaining)
}

// racingBalanceRepo tops up the balance while a snapshot is reading it and
// hands back the value read before the top-up
type racingBalanceRepo struct {
	credit.Repository
	once   sync.Once
	onRead func()
}

func (r *racingBalanceRepo) GetBalance(ctx context.Context, businessID string) (int, error) {
	balance, err := r.Repository.GetBalance(ctx, businessID)
	r.once.Do(r.onRead)
	return balance, err
}

func (s *AdmissionServiceSuite) TestSnapshotComputedBeforeWriteIsNotCached() {
	b := s.CreateBusiness(types.PlanFree, 0)

	params := newTestParams(&s.BaseServiceTestSuite, s.GetConfig())
	credits := NewCreditService(params)
	racing := &racingBalanceRepo{
		Repository: params.CreditRepo,
		onRead: func() {
			_, err := credits.AddCredits(types.SetAdmin(s.GetContext()), b.ID, 3)
			s.NoError(err)
		},
	}
	snapshotParams := params
	snapshotParams.CreditRepo = racing
	svc := newAdmissionService(snapshotParams)

	stale, err := svc.GetUsageSnapshot(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(0, stale.CreditBalance)

	fresh, err := svc.GetUsageSnapshot(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(3, fresh.CreditBalance)

	cached, err := svc.GetUsageSnapshot(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Same(fresh, cached)
}

func (s *AdmissionServiceSuite) TestPublishFailureDoesNotFailAdmission() {
	b := s.CreateBusiness(types.PlanFree, 0)
	s.GetPublisher().FailWith(transientErr())

	res, err := s.service.RequestCreation(s.GetContext(), b.ID, s.draft())
	s.Require().NoError(err)
	s.True(res.Admitted())
	s.Equal(1, s.invoiceCount(b.ID))
}

func (s *AdmissionServiceSuite) TestCancelledContextRollsBack() {
	b := s.CreateBusiness(types.PlanFree, 1)
	s.SeedInvoices(b, 1, s.GetNow())

	ctx, cancel := context.WithCancel(s.GetContext())
	cancel()

	_, err := s.service.RequestCreation(ctx, b.ID, s.draft())
	s.Require().Error(err)
	s.True(ierr.IsTransient(err))
	s.Equal(1, s.balance(b.ID))
	s.Equal(1, s.invoiceCount(b.ID))
}

func (s *AdmissionServiceSuite) TestEnterpriseSnapshotHasNoLimit() {
	b := s.CreateBusiness(types.PlanEnterprise, 0)
	s.SeedInvoices(b, 3, s.GetNow())

	snapshot, err := s.service.GetUsageSnapshot(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(types.LimitPeriodNone, snapshot.Period)
	s.Nil(snapshot.Limit)
	s.Nil(snapshot.Remaining)
	s.Equal(3, snapshot.AllTimeCount)
}

type OwnerScopeAdmissionSuite struct {
	testutil.BaseServiceTestSuite
	service AdmissionService
}

func TestOwnerScopeAdmission(t *testing.T) {
	suite.Run(t, new(OwnerScopeAdmissionSuite))
}

func (s *OwnerScopeAdmissionSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	cfg := *s.GetConfig()
	cfg.Admission.ProfessionalScope = types.UsageScopeOwner
	cfg.Admission.ProfessionalMonthlyLimit = 2
	s.service = newAdmissionService(newTestParams(&s.BaseServiceTestSuite, &cfg))
}

func (s *OwnerScopeAdmissionSuite) TestLimitIsSharedAcrossOwnerBusinesses() {
	first := s.CreateBusiness(types.PlanProfessional, 0)
	second := s.CreateBusiness(types.PlanProfessional, 0)
	s.SeedInvoices(first, 2, s.GetNow())

	req := dto.CreateInvoiceRequest{ClientID: "client_1", Amount: decimal.NewFromInt(10)}
	res, err := s.service.RequestCreation(s.GetContext(), second.ID, req)
	s.Require().NoError(err)
	s.Require().False(res.Admitted())
	s.Equal(types.DenialMonthlyLimitReached, res.Denial.Reason)
	s.Equal(types.UsageScopeOwner, res.Denial.Usage.Scope)
}

func (s *OwnerScopeAdmissionSuite) TestFreeTierStaysPerBusiness() {
	first := s.CreateBusiness(types.PlanFree, 0)
	second := s.CreateBusiness(types.PlanFree, 0)
	s.SeedInvoices(first, 1, s.GetNow())

	req := dto.CreateInvoiceRequest{ClientID: "client_1"}
	res, err := s.service.RequestCreation(s.GetContext(), second.ID, req)
	s.Require().NoError(err)
	s.True(res.Admitted())
}

func (s *OwnerScopeAdmissionSuite) TestConcurrentSiblingsShareLimit() {
	first := s.CreateBusiness(types.PlanProfessional, 0)
	second := s.CreateBusiness(types.PlanProfessional, 0)

	var (
		mu       sync.Mutex
		admitted int
		wg       conc.WaitGroup
	)
	for i := 0; i < 6; i++ {
		id := first.ID
		if i%2 == 1 {
			id = second.ID
		}
		wg.Go(func() {
			res, err := s.service.RequestCreation(s.GetContext(), id, dto.CreateInvoiceRequest{ClientID: "client_1"})
			s.NoError(err)
			if err == nil && res.Admitted() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	s.Equal(2, admitted)
}
