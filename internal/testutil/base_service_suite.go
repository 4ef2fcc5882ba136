package testutil

import (
	"context"

	"github.com/stretchr/testify/suite"
	"github.com/towerbill/towerbill/internal/config"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/types"
)

// Stores bundles the in-memory repositories used by service tests.
type Stores struct {
	BuildingRepo     *InMemoryBuildingStore
	ApartmentRepo    *InMemoryApartmentStore
	TariffRepo       *InMemoryTariffStore
	ReadingRepo      *InMemoryReadingStore
	InvoiceRepo      *InMemoryInvoiceStore
	BillingRunRepo   *InMemoryBillingRunStore
	SubscriptionRepo *InMemorySubscriptionStore
}

// BaseServiceTestSuite provides common setup for service layer tests: fresh
// in-memory stores, a fake transactional client and a test context.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	cfg    *config.Configuration
	log    *logger.Logger
	db     *FakeDBClient
	stores Stores
}

// SetupTest initializes fresh state before each test.
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = types.SetUserID(context.Background(), "user_test")
	s.cfg = config.GetDefaultConfig()
	s.log = logger.GetLogger()
	s.db = NewFakeDBClient()
	s.stores = Stores{
		BuildingRepo:     NewInMemoryBuildingStore(),
		ApartmentRepo:    NewInMemoryApartmentStore(),
		TariffRepo:       NewInMemoryTariffStore(),
		ReadingRepo:      NewInMemoryReadingStore(),
		InvoiceRepo:      NewInMemoryInvoiceStore(),
		BillingRunRepo:   NewInMemoryBillingRunStore(),
		SubscriptionRepo: NewInMemorySubscriptionStore(),
	}
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.cfg
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.log
}

func (s *BaseServiceTestSuite) GetDB() *FakeDBClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}
