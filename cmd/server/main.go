package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/towerbill/towerbill/internal/api/v1"
	"github.com/towerbill/towerbill/internal/cache"
	"github.com/towerbill/towerbill/internal/config"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/postgres"
	"github.com/towerbill/towerbill/internal/repository"
	"github.com/towerbill/towerbill/internal/rest"
	"github.com/towerbill/towerbill/internal/service"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		panic(err)
	}

	client, err := postgres.NewClient(cfg, log)
	if err != nil {
		log.Fatalw("failed to connect to postgres", "error", err)
	}
	defer client.Close()

	repos := repository.NewRepositories(client, log)

	params := service.ServiceParams{
		Logger:           log,
		Config:           cfg,
		DB:               client,
		Cache:            cache.NewInMemoryCache(),
		BuildingRepo:     repos.Building,
		ApartmentRepo:    repos.Apartment,
		TariffRepo:       repos.Tariff,
		ReadingRepo:      repos.Reading,
		InvoiceRepo:      repos.Invoice,
		BillingRunRepo:   repos.BillingRun,
		SubscriptionRepo: repos.Subscription,
	}

	handlers := rest.Handlers{
		Building:     v1.NewBuildingHandler(service.NewBuildingService(params), log),
		Apartment:    v1.NewApartmentHandler(service.NewApartmentService(params), log),
		Tariff:       v1.NewTariffHandler(service.NewFeeCatalogService(params), log),
		MeterReading: v1.NewMeterReadingHandler(service.NewMeterReadingService(params), log),
		Invoice: v1.NewInvoiceHandler(
			service.NewInvoiceGeneratorService(params),
			service.NewInvoiceLedgerService(params),
			log,
		),
		Subscription: v1.NewSubscriptionHandler(service.NewSubscriptionBillerService(params), log),
	}

	router := rest.NewRouter(cfg, log, handlers)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("starting server", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("forced shutdown", "error", err)
	}
}
