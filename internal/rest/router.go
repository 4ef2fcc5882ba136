package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	v1 "github.com/towerbill/towerbill/internal/api/v1"
	"github.com/towerbill/towerbill/internal/config"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/rest/middleware"
)

// Handlers bundles the HTTP handlers mounted by the router.
type Handlers struct {
	Building     *v1.BuildingHandler
	Apartment    *v1.ApartmentHandler
	Tariff       *v1.TariffHandler
	MeterReading *v1.MeterReadingHandler
	Invoice      *v1.InvoiceHandler
	Subscription *v1.SubscriptionHandler
}

// NewRouter builds the gin engine with the common middleware chain and all
// v1 routes.
func NewRouter(cfg *config.Configuration, log *logger.Logger, h Handlers) *gin.Engine {
	if cfg.Deployment.Mode == config.ModeProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(log),
		middleware.ErrorHandler,
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/v1")
	{
		buildings := api.Group("/buildings")
		{
			buildings.POST("", h.Building.CreateBuilding)
			buildings.GET("", h.Building.ListBuildings)
			buildings.GET("/:id", h.Building.GetBuilding)
			buildings.PUT("/:id", h.Building.UpdateBuilding)
		}

		apartments := api.Group("/apartments")
		{
			apartments.POST("", h.Apartment.CreateApartment)
			apartments.GET("", h.Apartment.ListApartments)
			apartments.GET("/:id", h.Apartment.GetApartment)
			apartments.PUT("/:id", h.Apartment.UpdateApartment)
		}

		tariffs := api.Group("/tariffs")
		{
			tariffs.POST("", h.Tariff.CreateTariff)
			tariffs.GET("", h.Tariff.ListTariffs)
			tariffs.GET("/:id", h.Tariff.GetTariff)
		}

		readings := api.Group("/meter-readings")
		{
			readings.POST("", h.MeterReading.SubmitReading)
			readings.GET("", h.MeterReading.ListReadings)
		}

		invoices := api.Group("/invoices")
		{
			invoices.POST("/generate", h.Invoice.GenerateInvoices)
			invoices.POST("/sweep-overdue", h.Invoice.SweepOverdue)
			invoices.GET("", h.Invoice.ListInvoices)
			invoices.GET("/:id", h.Invoice.GetInvoice)
			invoices.POST("/:id/status", h.Invoice.UpdateInvoiceStatus)
		}

		runs := api.Group("/billing-runs")
		{
			runs.GET("", h.Invoice.GetBillingRun)
			runs.POST("/reopen", h.Invoice.ReopenPeriod)
		}

		subscriptions := api.Group("/subscriptions")
		{
			subscriptions.POST("", h.Subscription.CreateSubscription)
			subscriptions.GET("", h.Subscription.ListSubscriptions)
			subscriptions.GET("/:id", h.Subscription.GetSubscription)
			subscriptions.POST("/:id/payments", h.Subscription.RecordPayment)
			subscriptions.POST("/:id/approve", h.Subscription.Approve)
			subscriptions.POST("/:id/renew", h.Subscription.Renew)
			subscriptions.POST("/sweep-expired", h.Subscription.SweepExpired)
		}
	}

	return router
}
