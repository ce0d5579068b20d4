package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/telcobill/backend/internal/application/billing"
	"github.com/telcobill/backend/internal/application/reconcile"
	stagingapp "github.com/telcobill/backend/internal/application/staging"
	"github.com/telcobill/backend/internal/infrastructure/archive"
	"github.com/telcobill/backend/internal/infrastructure/config"
	"github.com/telcobill/backend/internal/infrastructure/logger"
	"github.com/telcobill/backend/internal/infrastructure/notify"
	"github.com/telcobill/backend/internal/infrastructure/persistence"
	"github.com/telcobill/backend/internal/interfaces/http/handler"
	"github.com/telcobill/backend/internal/interfaces/http/middleware"
	"github.com/telcobill/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting billing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories. The ledger repository runs on its own
	// session so its writes commit independently of any merge transaction.
	subscriberRepo := persistence.NewGormSubscriberRepository(db.DB)
	planRepo := persistence.NewGormPlanRepository(db.DB)
	assignmentRepo := persistence.NewGormAssignmentRepository(db.DB)
	usageRepo := persistence.NewGormCDRRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	stagingRepo := persistence.NewGormStagingRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.Session())

	// Extract source provider and archiver
	sourceProvider := stagingapp.NewCSVSourceProvider(cfg.Extract)
	var archiver stagingapp.Archiver
	switch cfg.Archive.Backend {
	case "s3":
		s3arch, err := archive.NewS3Archiver(&cfg.Archive, log)
		if err != nil {
			log.Fatal("Failed to initialize S3 archiver", zap.Error(err))
		}
		if err := s3arch.EnsureBucket(context.Background()); err != nil {
			log.Fatal("Failed to ensure archive bucket", zap.Error(err))
		}
		archiver = stagingapp.ArchiverFunc(func(ctx context.Context, sourceName string) error {
			return s3arch.Archive(ctx, sourceProvider.SourcePath(sourceName))
		})
	default:
		localArch := archive.NewLocalArchiver(cfg.Archive.Dir, log)
		archiver = stagingapp.ArchiverFunc(func(ctx context.Context, sourceName string) error {
			return localArch.Archive(ctx, sourceProvider.SourcePath(sourceName))
		})
	}

	notifier := notify.NewLogNotifier(log)

	// Initialize application services
	loaderService := stagingapp.NewLoaderService(
		sourceProvider, stagingRepo, subscriberRepo, ledgerRepo, ledgerRepo,
		archiver, log, cfg.Loader.BatchSize)
	reconcileService := reconcile.NewService(
		persistence.NewGormTransactionScope(db.DB), stagingRepo,
		ledgerRepo, ledgerRepo, ledgerRepo, log)
	billingService := billingapp.NewBillingService(
		subscriberRepo, planRepo, assignmentRepo, usageRepo, invoiceRepo,
		ledgerRepo, ledgerRepo, notifier, log, cfg.Billing.CheckpointSize)
	paymentService := billingapp.NewPaymentService(
		invoiceRepo, paymentRepo, ledgerRepo, notifier, log)

	// Initialize HTTP layer
	r := router.NewRouter(log, handler.NewSystemHandler(db))
	r.Register(handler.NewLoadHandler(loaderService))
	r.Register(handler.NewReconcileHandler(reconcileService))
	r.Register(handler.NewBillingHandler(billingService, invoiceRepo))
	r.Register(handler.NewPaymentHandler(paymentService))
	r.Register(handler.NewLedgerHandler(ledgerRepo, ledgerRepo))
	engine := r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
