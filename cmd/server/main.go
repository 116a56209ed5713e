package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	_ "github.com/radu9120/ZeroDue-sub000/docs/swagger"
	"github.com/radu9120/ZeroDue-sub000/internal/api"
	v1 "github.com/radu9120/ZeroDue-sub000/internal/api/v1"
	"github.com/radu9120/ZeroDue-sub000/internal/auth"
	"github.com/radu9120/ZeroDue-sub000/internal/cache"
	"github.com/radu9120/ZeroDue-sub000/internal/config"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/postgres"
	"github.com/radu9120/ZeroDue-sub000/internal/publisher"
	"github.com/radu9120/ZeroDue-sub000/internal/pyroscope"
	"github.com/radu9120/ZeroDue-sub000/internal/repository"
	"github.com/radu9120/ZeroDue-sub000/internal/sentry"
	"github.com/radu9120/ZeroDue-sub000/internal/service"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/radu9120/ZeroDue-sub000/internal/validator"
	"go.uber.org/fx"
)

// @title ZeroDue API
// @version 1.0
// @description Invoice admission, usage and credits for ZeroDue businesses
// @BasePath /v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key

const shutdownTimeout = 10 * time.Second

func init() {
	// Timestamps are stored in UTC, the usage window applies its own zone
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Invoke(validator.NewValidator),
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			cache.NewInMemoryCache,
			auth.NewProvider,
		),
		sentry.Module(),
		pyroscope.Module(),
		postgres.Module(),
		repository.Module(),
		publisher.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewUsageService,
			service.NewSequenceService,
			service.NewCreditService,
			service.NewBusinessService,
			service.NewInvoiceService,
			service.NewAdmissionService,
			service.NewPaymentService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			migrateOnStart,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	db postgres.IClient,
	logger *logger.Logger,
	businessService service.BusinessService,
	invoiceService service.InvoiceService,
	admissionService service.AdmissionService,
	creditService service.CreditService,
	paymentService service.PaymentService,
) api.Handlers {
	return api.Handlers{
		Health:   v1.NewHealthHandler(db, logger),
		Business: v1.NewBusinessHandler(businessService, logger),
		Invoice:  v1.NewInvoiceHandler(admissionService, invoiceService, logger),
		Credit:   v1.NewCreditHandler(creditService, logger),
		Admin:    v1.NewAdminHandler(businessService, logger),
		Webhook:  v1.NewWebhookHandler(paymentService, logger),
	}
}

func migrateOnStart(lc fx.Lifecycle, cfg *config.Configuration, db *postgres.DB, log *logger.Logger) {
	if !cfg.Postgres.AutoMigrate {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("applying database migrations")
			return db.Migrate(ctx)
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, db, log)
	case types.ModeAWSLambdaAPI:
		startAWSLambdaAPI(lc, r, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	db *postgres.DB,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server", "address", cfg.Server.Address, "mode", cfg.Deployment.Mode)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			err := srv.Shutdown(shutdownCtx)
			db.Close()
			return err
		},
	})
}

func startAWSLambdaAPI(lc fx.Lifecycle, r *gin.Engine, log *logger.Logger) {
	ginLambda := ginadapter.New(r)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting AWS Lambda handler")
			go lambda.Start(ginLambda.ProxyWithContext)
			return nil
		},
	})
}
