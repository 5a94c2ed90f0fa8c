package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/audit"
	auditPostgres "github.com/frahmantamala/contacthub/internal/audit/postgres"
	"github.com/frahmantamala/contacthub/internal/auth"
	authPostgres "github.com/frahmantamala/contacthub/internal/auth/postgres"
	"github.com/frahmantamala/contacthub/internal/branding"
	brandingPostgres "github.com/frahmantamala/contacthub/internal/branding/postgres"
	"github.com/frahmantamala/contacthub/internal/category"
	categoryPostgres "github.com/frahmantamala/contacthub/internal/category/postgres"
	"github.com/frahmantamala/contacthub/internal/contact"
	contactPostgres "github.com/frahmantamala/contacthub/internal/contact/postgres"
	"github.com/frahmantamala/contacthub/internal/core/events"
	"github.com/frahmantamala/contacthub/internal/customfield"
	customfieldPostgres "github.com/frahmantamala/contacthub/internal/customfield/postgres"
	"github.com/frahmantamala/contacthub/internal/division"
	divisionPostgres "github.com/frahmantamala/contacthub/internal/division/postgres"
	"github.com/frahmantamala/contacthub/internal/importer"
	"github.com/frahmantamala/contacthub/internal/report"
	reportPostgres "github.com/frahmantamala/contacthub/internal/report/postgres"
	"github.com/frahmantamala/contacthub/internal/storage"
	"github.com/frahmantamala/contacthub/internal/transport"
	"github.com/frahmantamala/contacthub/internal/transport/rest"
	"github.com/frahmantamala/contacthub/internal/transport/swagger"
	"github.com/frahmantamala/contacthub/internal/upload"
	uploadPostgres "github.com/frahmantamala/contacthub/internal/upload/postgres"
	"github.com/frahmantamala/contacthub/internal/user"
	userPostgres "github.com/frahmantamala/contacthub/internal/user/postgres"
	"github.com/frahmantamala/contacthub/pkg/logger"
)

const sessionPurgeInterval = time.Hour

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server and the import workers`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	GormDB     *gorm.DB
	DB         *sqlx.DB
	Router     *chi.Mux
	Logger     *slog.Logger
	Registry   *prometheus.Registry
	EventBus   *events.EventBus
	Dispatcher *importer.Dispatcher
	Runner     *importer.Runner
	Auth       *auth.Service
}

func startHTTPServer() error {
	deps, err := initializeDependencies()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	lg := deps.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if n, err := deps.Runner.RecoverInterrupted(ctx); err != nil {
		lg.Error("failed to recover interrupted imports", "error", err)
	} else if n > 0 {
		lg.Warn("marked interrupted imports as failed", "count", n)
	}
	deps.Dispatcher.Start()
	go purgeSessions(ctx, deps.Auth, lg)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		lg.Info("starting HTTP server", "address", addr)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		lg.Info("received signal, shutting down")
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("server shutdown error", "error", err)
	}
	if err := deps.Dispatcher.Shutdown(shutdownCtx); err != nil {
		lg.Error("import dispatcher shutdown error", "error", err)
	}
	deps.EventBus.Wait()
	if err := deps.DB.Close(); err != nil {
		lg.Error("database close error", "error", err)
	}

	lg.Info("server stopped")
	return nil
}

func purgeSessions(ctx context.Context, svc *auth.Service, lg *slog.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpiredSessions(ctx)
			if err != nil {
				lg.Warn("failed to purge expired sessions", "error", err)
				continue
			}
			lg.Debug("purged expired sessions", "count", n)
		}
	}
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	if _, err := swagger.Load(context.Background()); err != nil {
		return nil, err
	}

	gormDB, db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	files, err := storage.NewLocal(cfg.Storage.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	bus := events.NewEventBus(lg)

	auditService := audit.NewService(auditPostgres.NewAuditRepository(gormDB), lg)
	bus.Subscribe(events.EventTypeImportCompleted, auditService.HandleImportEvent)
	bus.Subscribe(events.EventTypeImportFailed, auditService.HandleImportEvent)

	authService := auth.NewService(authPostgres.NewRepository(gormDB), auditService, auth.Config{
		BCryptCost: cfg.Security.BCryptCost,
		SessionTTL: cfg.Security.SessionTTL,
	}, lg)
	cookies := auth.NewCookieManager(cfg.Security.CookieName, cfg.Security.SessionSecret, cfg.Security.CookieSecure, cfg.Security.SessionTTL)

	divisionService := division.NewService(divisionPostgres.NewDivisionRepository(gormDB), auditService, lg)
	userService := user.NewService(userPostgres.NewUserRepository(gormDB), authService, divisionService, auditService, lg)
	categoryService := category.NewService(categoryPostgres.NewCategoryRepository(gormDB), divisionService, auditService, lg)
	fieldService := customfield.NewService(customfieldPostgres.NewCustomFieldRepository(gormDB), divisionService, auditService, lg)
	brandingService := branding.NewService(brandingPostgres.NewBrandingRepository(gormDB), divisionService, auditService, lg)

	uploads := uploadPostgres.NewUploadRepository(gormDB)
	contacts := contactPostgres.NewContactRepository(gormDB)

	runner := importer.NewRunner(uploads, contacts, files, fieldService, bus, importer.NewMetrics(registry), lg)
	dispatcher := importer.NewDispatcher(importer.Config{
		MaxWorkers:   cfg.Import.MaxWorkers,
		JobQueueSize: cfg.Import.JobQueueSize,
		StartDelay:   cfg.Import.StartDelay,
	}, runner.Process, lg)

	uploadService := upload.NewService(uploads, files, divisionService, fieldService, dispatcher, auditService, lg, cfg.Storage.MaxUploadBytes)
	contactService := contact.NewService(contacts, divisionService, categoryService, fieldService, auditService, lg)
	reportService := report.NewService(reportPostgres.NewReportRepository(db), lg)

	base := transport.NewBaseHandler(lg)
	router := chi.NewRouter()
	err = rest.RegisterAllRoutes(router, rest.Handlers{
		Health:      rest.NewHealthHandler(base, db, cfg.Storage.UploadDir),
		Auth:        auth.NewHandler(base, authService, cookies),
		User:        user.NewHandler(base, userService),
		Division:    division.NewHandler(base, divisionService),
		Category:    category.NewHandler(base, categoryService),
		CustomField: customfield.NewHandler(base, fieldService),
		Upload:      upload.NewHandler(base, uploadService),
		Contact:     contact.NewHandler(base, contactService),
		Report:      report.NewHandler(base, reportService),
		Branding:    branding.NewHandler(base, brandingService),
		Audit:       audit.NewHandler(base, auditService),
	}, rest.Options{
		Config:   cfg,
		RBAC:     auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg),
		Registry: registry,
		Logger:   lg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}

	return &Dependencies{
		Config:     cfg,
		GormDB:     gormDB,
		DB:         db,
		Router:     router,
		Logger:     lg,
		Registry:   registry,
		EventBus:   bus,
		Dispatcher: dispatcher,
		Runner:     runner,
		Auth:       authService,
	}, nil
}

// initDB opens one pool shared by gorm repositories and sqlx report queries.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger:  gormLogger.Default.LogMode(gormLogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access db pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return gormDB, sqlx.NewDb(sqlDB, "pgx"), nil
}
