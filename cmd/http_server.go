package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/viaviktor/rfisys/internal"
	"github.com/viaviktor/rfisys/internal/accessrequest"
	accessrequestpg "github.com/viaviktor/rfisys/internal/accessrequest/postgres"
	"github.com/viaviktor/rfisys/internal/auth"
	authpg "github.com/viaviktor/rfisys/internal/auth/postgres"
	"github.com/viaviktor/rfisys/internal/core/events"
	"github.com/viaviktor/rfisys/internal/mail"
	"github.com/viaviktor/rfisys/internal/registration"
	registrationpg "github.com/viaviktor/rfisys/internal/registration/postgres"
	"github.com/viaviktor/rfisys/internal/stakeholder"
	stakeholderpg "github.com/viaviktor/rfisys/internal/stakeholder/postgres"
	"github.com/viaviktor/rfisys/internal/transport/rest"
	"github.com/viaviktor/rfisys/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	Router     *chi.Mux
	MailClient *mail.Client
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.MailClient.Shutdown()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	bus := events.NewEventBus(lg)

	mailClient := mail.NewClient(mail.Config{
		APIURL:      config.Mail.APIURL,
		APIKey:      config.Mail.APIKey,
		FromAddress: config.Mail.FromAddress,
		SendTimeout: config.Mail.SendTimeout,
		MaxWorkers:  config.Mail.WorkerCount,
		QueueSize:   config.Mail.QueueSize,
	}, lg)
	mail.RegisterHandlers(bus, mailClient, config.Server.BaseURL, lg)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(
		authpg.NewUserRepository(gormDB),
		authpg.NewContactRepository(gormDB),
		tokenGen,
		lg,
	)

	accessRequestService := accessrequest.NewService(
		accessrequestpg.NewRepository(gormDB), bus,
		config.Security.RegistrationTokenTTL, lg,
	)
	registrationService := registration.NewService(
		registrationpg.NewRepository(gormDB), bus,
		config.Security.RegistrationTokenTTL, config.Security.BCryptCost, lg,
	)
	stakeholderService := stakeholder.NewService(stakeholderpg.NewRepository(gormDB), lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, rest.Handlers{
		Auth:          auth.NewHandler(authService),
		AccessRequest: accessrequest.NewHandler(accessRequestService),
		Registration:  registration.NewHandler(registrationService),
		Stakeholder:   stakeholder.NewHandler(stakeholderService),
	}, config.Server.AllowedOrigins, lg)

	return &Dependencies{
		Config:     config,
		Logger:     lg,
		DB:         db,
		Router:     router,
		MailClient: mailClient,
	}, nil
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
