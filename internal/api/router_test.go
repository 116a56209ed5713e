package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/radu9120/ZeroDue-sub000/internal/api/dto"
	v1 "github.com/radu9120/ZeroDue-sub000/internal/api/v1"
	"github.com/radu9120/ZeroDue-sub000/internal/auth"
	"github.com/radu9120/ZeroDue-sub000/internal/config"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/service"
	"github.com/radu9120/ZeroDue-sub000/internal/testutil"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/stretchr/testify/suite"
)

const (
	testAuthSecret = "router-test-secret"
	testAdminKey   = "router-test-admin"
)

type RouterSuite struct {
	testutil.BaseServiceTestSuite
	router *gin.Engine
	tokens *auth.JWTAuth
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.BaseServiceTestSuite.SetupSuite()
}

func (s *RouterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	cfg := *s.GetConfig()
	cfg.Auth = config.AuthConfig{Secret: testAuthSecret, AdminAPIKey: testAdminKey}
	s.tokens = auth.NewJWTAuth(&cfg)

	stores := s.GetStores()
	params := service.ServiceParams{
		Logger:         s.GetLogger(),
		Config:         &cfg,
		DB:             s.GetDB(),
		Cache:          s.GetCache(),
		BusinessRepo:   stores.BusinessRepo,
		InvoiceRepo:    stores.InvoiceRepo,
		CreditRepo:     stores.CreditRepo,
		EventPublisher: s.GetPublisher(),
		Now:            s.GetClock().Now,
	}

	businesses := service.NewBusinessService(params)
	credits := service.NewCreditService(params)
	admission := service.NewAdmissionService(params, service.NewUsageService(params), service.NewSequenceService(params))

	handlers := Handlers{
		Health:   v1.NewHealthHandler(s.GetDB(), s.GetLogger()),
		Business: v1.NewBusinessHandler(businesses, s.GetLogger()),
		Invoice:  v1.NewInvoiceHandler(admission, service.NewInvoiceService(params), s.GetLogger()),
		Credit:   v1.NewCreditHandler(credits, s.GetLogger()),
		Admin:    v1.NewAdminHandler(businesses, s.GetLogger()),
		Webhook:  v1.NewWebhookHandler(service.NewPaymentService(params, credits, businesses), s.GetLogger()),
	}
	s.router = NewRouter(handlers, &cfg, s.GetLogger(), auth.NewProvider(&cfg), nil)
}

func (s *RouterSuite) bearer(userID string) string {
	token, err := s.tokens.GenerateToken(userID, time.Hour)
	s.Require().NoError(err)
	return "Bearer " + token
}

func (s *RouterSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) asOwner() map[string]string {
	return map[string]string{types.HeaderAuthorization: s.bearer(types.DefaultUserID)}
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v))
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp dto.HealthResponse
	s.decode(w, &resp)
	s.Equal("ok", resp.Database)
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestRequestIDIsPropagated() {
	w := s.do(http.MethodGet, "/health", nil, map[string]string{types.HeaderRequestID: "req-123"})
	s.Equal("req-123", w.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestAuthenticationRequired() {
	w := s.do(http.MethodGet, "/v1/businesses", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	var resp ierr.ErrorResponse
	s.decode(w, &resp)
	s.False(resp.Success)
	s.Equal("Unauthorized", resp.Error.Display)

	w = s.do(http.MethodGet, "/v1/businesses", nil, map[string]string{types.HeaderAuthorization: "Bearer nope"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterSuite) TestCreateBusinessAndInvoice() {
	w := s.do(http.MethodPost, "/v1/businesses", dto.CreateBusinessRequest{Name: "Studio"}, s.asOwner())
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var b dto.BusinessResponse
	s.decode(w, &b)
	s.Equal(types.PlanFree, b.Plan)

	draft := dto.CreateInvoiceRequest{ClientID: "client_1"}

	w = s.do(http.MethodPost, "/v1/businesses/"+b.ID+"/invoices", draft, s.asOwner())
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var inv dto.InvoiceResponse
	s.decode(w, &inv)
	s.Equal("INV0001", inv.InvoiceNumber)

	w = s.do(http.MethodPost, "/v1/businesses/"+b.ID+"/invoices", draft, s.asOwner())
	s.Require().Equal(http.StatusPaymentRequired, w.Code, w.Body.String())
	var denial dto.DenialResponse
	s.decode(w, &denial)
	s.True(denial.Denied)
	s.Equal(types.DenialFreeLimitReached, denial.Reason)
	s.Equal(types.SignalNeedsPayment, denial.Signal)

	w = s.do(http.MethodGet, "/v1/businesses/"+b.ID+"/invoices", nil, s.asOwner())
	s.Require().Equal(http.StatusOK, w.Code)
	var list dto.ListInvoicesResponse
	s.decode(w, &list)
	s.Len(list.Items, 1)
	s.Equal(1, list.Pagination.Total)

	w = s.do(http.MethodGet, "/v1/businesses/"+b.ID+"/invoices/"+inv.ID, nil, s.asOwner())
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/v1/businesses/"+b.ID+"/usage", nil, s.asOwner())
	s.Require().Equal(http.StatusOK, w.Code)
	var usage dto.UsageSnapshotResponse
	s.decode(w, &usage)
	s.Equal(1, usage.AllTimeCount)
}

func (s *RouterSuite) TestOwnershipEnforced() {
	b := s.CreateBusiness(types.PlanFree, 0)
	stranger := map[string]string{types.HeaderAuthorization: s.bearer("user_stranger")}

	w := s.do(http.MethodGet, "/v1/businesses/"+b.ID, nil, stranger)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/v1/businesses/"+b.ID+"/invoices", dto.CreateInvoiceRequest{ClientID: "c"}, stranger)
	s.Equal(http.StatusForbidden, w.Code)
	s.Zero(s.invoiceCount(b.ID))
}

func (s *RouterSuite) TestInvalidDraftRejected() {
	b := s.CreateBusiness(types.PlanFree, 0)

	w := s.do(http.MethodPost, "/v1/businesses/"+b.ID+"/invoices", map[string]any{"client_id": ""}, s.asOwner())
	s.Equal(http.StatusBadRequest, w.Code)
	s.Zero(s.invoiceCount(b.ID))
}

func (s *RouterSuite) TestUnknownBusiness() {
	w := s.do(http.MethodGet, "/v1/businesses/biz_missing/credits", nil, s.asOwner())
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestAdminRoutes() {
	b := s.CreateBusiness(types.PlanFree, 0)
	admin := map[string]string{types.HeaderAPIKey: testAdminKey}

	// a user token is not enough
	w := s.do(http.MethodPut, "/v1/admin/businesses/"+b.ID+"/plan", dto.UpdatePlanRequest{Plan: types.PlanProfessional}, s.asOwner())
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, "/v1/admin/businesses/"+b.ID+"/plan", dto.UpdatePlanRequest{Plan: types.PlanProfessional}, map[string]string{types.HeaderAPIKey: "wrong"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPut, "/v1/admin/businesses/"+b.ID+"/plan", dto.UpdatePlanRequest{Plan: types.PlanProfessional}, admin)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/admin/businesses/"+b.ID+"/credits", dto.AddCreditsRequest{Quantity: 4}, admin)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var balance dto.CreditBalanceResponse
	s.decode(w, &balance)
	s.Equal(4, balance.Balance)

	w = s.do(http.MethodPost, "/v1/admin/businesses/"+b.ID+"/credits", dto.AddCreditsRequest{Quantity: -1}, admin)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/v1/businesses/"+b.ID+"/credits", nil, s.asOwner())
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &balance)
	s.Equal(4, balance.Balance)

	w = s.do(http.MethodPut, "/v1/admin/businesses/"+b.ID+"/plan", dto.UpdatePlanRequest{Plan: "gold"}, admin)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestDeleteBusiness() {
	b := s.CreateBusiness(types.PlanFree, 0)

	w := s.do(http.MethodDelete, "/v1/businesses/"+b.ID, nil, s.asOwner())
	s.Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/v1/businesses/"+b.ID, nil, s.asOwner())
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestStripeWebhookIsPublic() {
	b := s.CreateBusiness(types.PlanFree, 0)
	payload := map[string]any{
		"id":   "evt_1",
		"type": types.StripeEventCheckoutSessionCompleted,
		"data": map[string]any{"object": map[string]any{
			"id":             "cs_router",
			"object":         "checkout.session",
			"payment_status": "paid",
			"amount_total":   500,
			"currency":       "usd",
			"metadata": map[string]string{
				types.MetadataBusinessID: b.ID,
				types.MetadataPurpose:    types.PurposeInvoiceCredits,
				types.MetadataQuantity:   "2",
			},
		}},
	}

	w := s.do(http.MethodPost, "/v1/webhooks/stripe", payload, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	balance, err := s.GetStores().CreditRepo.GetBalance(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(2, balance)
}

func (s *RouterSuite) invoiceCount(businessID string) int {
	count, err := s.GetStores().InvoiceRepo.Count(s.GetContext(), types.NewInvoiceFilter(businessID))
	s.Require().NoError(err)
	return count
}
