package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/cache"
	"github.com/radu9120/ZeroDue-sub000/internal/config"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/business"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/credit"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/invoice"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/radu9120/ZeroDue-sub000/internal/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	BusinessRepo business.Repository
	InvoiceRepo  invoice.Repository
	CreditRepo   credit.Repository
}

// Clock is a settable time source shared by a test and the services under test
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	publisher *InMemoryPublisherService
	db        *MockPostgresClient
	cache     cache.Cache
	logger    *logger.Logger
	config    *config.Configuration
	clock     *Clock
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	// Initialize validator
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	cfg.Backend.Timeout = 2 * time.Second
	cfg.Backend.RetryInitialInterval = time.Millisecond

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.clock = NewClock(time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC))
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	businesses := NewInMemoryBusinessStore()
	invoices := NewInMemoryInvoiceStore()
	credits := NewInMemoryCreditStore(businesses)
	businesses.Cascade(invoices, credits)

	s.stores = Stores{
		BusinessRepo: businesses,
		InvoiceRepo:  invoices,
		CreditRepo:   credits,
	}

	s.db = NewMockPostgresClient(s.logger, businesses, invoices, credits)
	s.publisher = NewInMemoryEventPublisher()
	s.cache = cache.NewInMemoryCache(s.config, s.logger)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.BusinessRepo.(*InMemoryBusinessStore).Clear()
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.CreditRepo.(*InMemoryCreditStore).Clear()
	s.publisher.Clear()
	s.cache.Flush(context.Background())
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetPublisher returns the test event publisher
func (s *BaseServiceTestSuite) GetPublisher() *InMemoryPublisherService {
	return s.publisher
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetClock returns the clock shared with the services under test
func (s *BaseServiceTestSuite) GetClock() *Clock {
	return s.clock
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.clock.Now().UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}

// CreateBusiness stores a business owned by the context user
func (s *BaseServiceTestSuite) CreateBusiness(plan types.PlanTier, credits int) *business.Business {
	b := business.New(s.ctx, "Acme "+types.GenerateUUID()[:6], "billing@acme.test", "USD")
	b.Plan = plan
	b.ExtraInvoiceCredits = credits
	b.CreatedAt = s.GetNow()
	s.Require().NoError(s.stores.BusinessRepo.Create(s.ctx, b))
	return b
}

// SeedInvoices stores n invoices for the business created at the given time,
// advancing the business counter as admission would
func (s *BaseServiceTestSuite) SeedInvoices(b *business.Business, n int, createdAt time.Time) []*invoice.Invoice {
	invoices := make([]*invoice.Invoice, 0, n)
	err := s.db.WithTx(s.ctx, func(ctx context.Context) error {
		for i := 0; i < n; i++ {
			seq, err := s.stores.InvoiceRepo.NextSequenceValue(ctx, b.ID)
			if err != nil {
				return err
			}
			inv := invoice.FromDraft(ctx, b.ID, b.OwnerID, invoice.Draft{
				Currency: b.Currency,
				Amount:   decimal.NewFromInt(100),
			}, createdAt)
			inv.AssignNumber(seq)
			if err := s.stores.InvoiceRepo.Create(ctx, inv); err != nil {
				return err
			}
			invoices = append(invoices, inv)
		}
		return nil
	})
	s.Require().NoError(err)
	return invoices
}
