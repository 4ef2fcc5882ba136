// Package service provides the business logic of the billing engine.
package service

import (
	"github.com/towerbill/towerbill/internal/cache"
	"github.com/towerbill/towerbill/internal/config"
	"github.com/towerbill/towerbill/internal/domain/apartment"
	"github.com/towerbill/towerbill/internal/domain/billingrun"
	"github.com/towerbill/towerbill/internal/domain/building"
	"github.com/towerbill/towerbill/internal/domain/invoice"
	"github.com/towerbill/towerbill/internal/domain/reading"
	"github.com/towerbill/towerbill/internal/domain/subscription"
	"github.com/towerbill/towerbill/internal/domain/tariff"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/postgres"
)

// ServiceParams bundles the dependencies shared by all services. Services
// embed it and pick what they need.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache

	BuildingRepo     building.Repository
	ApartmentRepo    apartment.Repository
	TariffRepo       tariff.Repository
	ReadingRepo      reading.Repository
	InvoiceRepo      invoice.Repository
	BillingRunRepo   billingrun.Repository
	SubscriptionRepo subscription.Repository
}
