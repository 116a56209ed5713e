package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/radu9120/ZeroDue-sub000/internal/api/v1"
	"github.com/radu9120/ZeroDue-sub000/internal/auth"
	"github.com/radu9120/ZeroDue-sub000/internal/config"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/rest/middleware"
	"github.com/radu9120/ZeroDue-sub000/internal/sentry"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	Health   *v1.HealthHandler
	Business *v1.BusinessHandler
	Invoice  *v1.InvoiceHandler
	Credit   *v1.CreditHandler
	Admin    *v1.AdminHandler
	Webhook  *v1.WebhookHandler
}

func NewRouter(
	handlers Handlers,
	cfg *config.Configuration,
	logger *logger.Logger,
	authProvider auth.Provider,
	sentrySvc *sentry.Service,
) *gin.Engine {
	router := gin.Default()

	router.Use(
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.PyroscopeMiddleware(cfg),
		middleware.ErrorHandler(logger, sentrySvc),
	)

	router.GET("/health", handlers.Health.Health)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1Public := router.Group("/v1")
	v1Public.POST("/webhooks/stripe", handlers.Webhook.HandleStripeWebhook)

	v1Private := router.Group("/v1")
	v1Private.Use(
		middleware.AuthenticateMiddleware(cfg, authProvider, logger),
		middleware.SentryScopeMiddleware,
	)
	registerV1Routes(v1Private, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	businesses := router.Group("/businesses")
	{
		businesses.POST("", handlers.Business.CreateBusiness)
		businesses.GET("", handlers.Business.ListBusinesses)
		businesses.GET("/:id", handlers.Business.GetBusiness)
		businesses.DELETE("/:id", handlers.Business.DeleteBusiness)

		businesses.POST("/:id/invoices", handlers.Invoice.CreateInvoice)
		businesses.GET("/:id/invoices", handlers.Invoice.ListInvoices)
		businesses.GET("/:id/invoices/:invoice_id", handlers.Invoice.GetInvoice)
		businesses.GET("/:id/usage", handlers.Invoice.GetUsage)
		businesses.GET("/:id/credits", handlers.Credit.GetBalance)
	}

	admin := router.Group("/admin", middleware.RequireAdmin)
	{
		admin.PUT("/businesses/:id/plan", handlers.Admin.UpdatePlan)
		admin.POST("/businesses/:id/credits", handlers.Credit.AddCredits)
	}
}
