package service

import (
	"testing"

	"github.com/radu9120/ZeroDue-sub000/internal/api/dto"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/credit"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/testutil"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/stretchr/testify/suite"
)

type BusinessServiceSuite struct {
	testutil.BaseServiceTestSuite
	service   BusinessService
	admission AdmissionService
}

func TestBusinessService(t *testing.T) {
	suite.Run(t, new(BusinessServiceSuite))
}

func (s *BusinessServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite, s.GetConfig())
	s.service = NewBusinessService(params)
	s.admission = newAdmissionService(params)
}

func (s *BusinessServiceSuite) TestCreateBusiness() {
	resp, err := s.service.CreateBusiness(s.GetContext(), dto.CreateBusinessRequest{
		Name:     "  Acme Studio ",
		Email:    "hello@acme.test",
		Currency: "eur",
	})
	s.Require().NoError(err)
	s.Equal("Acme Studio", resp.Name)
	s.Equal("EUR", resp.Currency)
	s.Equal(types.PlanFree, resp.Plan)
	s.Equal(types.DefaultUserID, resp.OwnerID)
	s.Equal(0, resp.ExtraInvoiceCredits)

	stored, err := s.GetStores().BusinessRepo.Get(s.GetContext(), resp.ID)
	s.Require().NoError(err)
	s.Equal(resp.ID, stored.ID)
}

func (s *BusinessServiceSuite) TestCreateBusinessValidation() {
	_, err := s.service.CreateBusiness(s.GetContext(), dto.CreateBusinessRequest{Email: "not-an-email"})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *BusinessServiceSuite) TestListBusinessesOnlyReturnsOwn() {
	s.CreateBusiness(types.PlanFree, 0)
	s.CreateBusiness(types.PlanProfessional, 0)

	other := testutil.SetupContextForUser("user_other")
	_, err := s.service.CreateBusiness(other, dto.CreateBusinessRequest{Name: "Other"})
	s.Require().NoError(err)

	mine, err := s.service.ListBusinesses(s.GetContext())
	s.Require().NoError(err)
	s.Len(mine, 2)

	theirs, err := s.service.ListBusinesses(other)
	s.Require().NoError(err)
	s.Len(theirs, 1)
}

func (s *BusinessServiceSuite) TestGetBusinessOwnership() {
	b := s.CreateBusiness(types.PlanFree, 0)

	resp, err := s.service.GetBusiness(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(b.ID, resp.ID)

	_, err = s.service.GetBusiness(testutil.SetupContextForUser("user_other"), b.ID)
	s.True(ierr.IsPermissionDenied(err))

	_, err = s.service.GetBusiness(s.GetContext(), "biz_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *BusinessServiceSuite) TestDeleteBusinessCascades() {
	b := s.CreateBusiness(types.PlanFree, 2)
	s.SeedInvoices(b, 3, s.GetNow())
	s.Require().NoError(s.GetStores().CreditRepo.CreatePurchase(s.GetContext(),
		credit.NewPurchase(s.GetContext(), b.ID, 2, "cs_cascade")))

	s.Require().NoError(s.service.DeleteBusiness(s.GetContext(), b.ID))

	_, err := s.GetStores().BusinessRepo.Get(s.GetContext(), b.ID)
	s.True(ierr.IsNotFound(err))

	count, err := s.GetStores().InvoiceRepo.Count(s.GetContext(), types.NewInvoiceFilter(b.ID))
	s.Require().NoError(err)
	s.Zero(count)

	_, ok := s.GetStores().InvoiceRepo.(*testutil.InMemoryInvoiceStore).Sequence(b.ID)
	s.False(ok)

	_, err = s.GetStores().CreditRepo.GetPurchaseByReference(s.GetContext(), "cs_cascade")
	s.True(ierr.IsNotFound(err))
}

func (s *BusinessServiceSuite) TestDeleteBusinessRequiresOwnership() {
	b := s.CreateBusiness(types.PlanFree, 0)

	err := s.service.DeleteBusiness(testutil.SetupContextForUser("user_other"), b.ID)
	s.True(ierr.IsPermissionDenied(err))

	_, err = s.GetStores().BusinessRepo.Get(s.GetContext(), b.ID)
	s.NoError(err)
}

func (s *BusinessServiceSuite) TestUpdatePlanPublishesAndRefreshesSnapshot() {
	b := s.CreateBusiness(types.PlanFree, 0)
	s.SeedInvoices(b, 1, s.GetNow())

	before, err := s.admission.GetUsageSnapshot(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(types.LimitPeriodLifetime, before.Period)
	s.Equal(0, *before.Remaining)

	resp, err := s.service.UpdatePlan(s.GetContext(), b.ID, types.PlanProfessional)
	s.Require().NoError(err)
	s.Equal(types.PlanProfessional, resp.Plan)

	after, err := s.admission.GetUsageSnapshot(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(types.PlanProfessional, after.Plan)
	s.Equal(types.LimitPeriodMonth, after.Period)
	s.Equal(9, *after.Remaining)

	published := s.GetPublisher().EventsNamed(types.EventPlanChanged)
	s.Require().Len(published, 1)
	s.Equal(types.PlanFree, published[0].Payload["previous_plan"])

	res, err := s.admission.RequestCreation(s.GetContext(), b.ID, dto.CreateInvoiceRequest{ClientID: "client_1"})
	s.Require().NoError(err)
	s.True(res.Admitted())
}

func (s *BusinessServiceSuite) TestUpdatePlanSamePlanIsNoop() {
	b := s.CreateBusiness(types.PlanEnterprise, 0)

	_, err := s.service.UpdatePlan(s.GetContext(), b.ID, types.PlanEnterprise)
	s.Require().NoError(err)
	s.Empty(s.GetPublisher().GetEvents())
}

func (s *BusinessServiceSuite) TestUpdatePlanRejectsUnknownTier() {
	b := s.CreateBusiness(types.PlanFree, 0)

	_, err := s.service.UpdatePlan(s.GetContext(), b.ID, types.PlanTier("platinum"))
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}
