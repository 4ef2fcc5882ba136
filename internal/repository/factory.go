// Package repository wires the persistence implementations behind the domain
// repository interfaces.
package repository

import (
	"github.com/towerbill/towerbill/internal/domain/apartment"
	"github.com/towerbill/towerbill/internal/domain/billingrun"
	"github.com/towerbill/towerbill/internal/domain/building"
	"github.com/towerbill/towerbill/internal/domain/invoice"
	"github.com/towerbill/towerbill/internal/domain/reading"
	"github.com/towerbill/towerbill/internal/domain/subscription"
	"github.com/towerbill/towerbill/internal/domain/tariff"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/postgres"
	pgrepo "github.com/towerbill/towerbill/internal/repository/postgres"
)

// Repositories is the full set of domain repositories backed by postgres.
type Repositories struct {
	Building     building.Repository
	Apartment    apartment.Repository
	Tariff       tariff.Repository
	Reading      reading.Repository
	Invoice      invoice.Repository
	BillingRun   billingrun.Repository
	Subscription subscription.Repository
}

func NewRepositories(client *postgres.Client, log *logger.Logger) *Repositories {
	return &Repositories{
		Building:     pgrepo.NewBuildingRepository(client, log),
		Apartment:    pgrepo.NewApartmentRepository(client, log),
		Tariff:       pgrepo.NewTariffRepository(client, log),
		Reading:      pgrepo.NewReadingRepository(client, log),
		Invoice:      pgrepo.NewInvoiceRepository(client, log),
		BillingRun:   pgrepo.NewBillingRunRepository(client, log),
		Subscription: pgrepo.NewSubscriptionRepository(client, log),
	}
}
