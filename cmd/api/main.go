package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"bms/docs"
	"bms/internal/auth"
	"bms/internal/config"
	"bms/internal/database"
	"bms/internal/database/migration"
	handlers "bms/internal/http/handler"
	"bms/internal/http/middleware"
	"bms/internal/logger"
	"bms/internal/metrics"
	"bms/internal/otel"
	"bms/internal/repository/postgres"
	"bms/internal/service"
	"bms/internal/storage"
)

// @title       BMS Document API
// @version     1.0
// @description Tenant document upload and landlord review.
// @BasePath    /
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present) and CONFIG_FILE
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", time.UTC).WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.Log.Level, cfg.Location())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migration.Run(cfg.Database, log); err != nil {
			log.WithError(err).Fatal("failed to migrate database")
		}
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize object storage")
	}

	authn, err := auth.New(cfg.Auth)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize authentication")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	docMetrics, err := metrics.NewDocumentMetrics(reg)
	if err != nil {
		log.WithError(err).Fatal("failed to register document metrics")
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.WithError(err).Fatal("failed to register http metrics")
	}

	docSvc := service.NewDocumentService(
		objStore,
		postgres.NewDocumentPostgres(db),
		postgres.NewLeasePostgres(db),
		postgres.NewDocumentTypePostgres(db),
		service.WithLogger(log),
		service.WithMetrics(docMetrics),
	)

	// Bodies are streamed so an oversize upload is answered with a JSON envelope instead of a
	// dropped connection. BodyLimit below enforces the ceiling from Content-Length.
	bodyLimit := int(cfg.Upload.BodyLimitBytes())
	app := fiber.New(fiber.Config{
		ErrorHandler:                 handlers.ErrorHandler(),
		BodyLimit:                    bodyLimit,
		StreamRequestBody:            true,
		DisablePreParseMultipartForm: true,
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())
	app.Use(middleware.DebugErrors(!cfg.IsProduction()))
	app.Use(middleware.BodyLimit(bodyLimit))

	app.Get("/metrics", handlers.Metrics(reg))
	handlers.RegisterRoutes(app, db, objStore, docSvc, authn)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithField("addr", addr).Info("http server listening")
		if err := app.Listen(addr); err != nil {
			log.WithError(err).Error("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
