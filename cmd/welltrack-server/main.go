package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jssolutionshub/welltrack/internal/config"
	"github.com/jssolutionshub/welltrack/internal/domain/assessment"
	"github.com/jssolutionshub/welltrack/internal/domain/identity"
	"github.com/jssolutionshub/welltrack/internal/domain/resource"
	"github.com/jssolutionshub/welltrack/internal/domain/scheduling"
	"github.com/jssolutionshub/welltrack/internal/platform/auth"
	"github.com/jssolutionshub/welltrack/internal/platform/blobstore"
	"github.com/jssolutionshub/welltrack/internal/platform/db"
	"github.com/jssolutionshub/welltrack/internal/platform/middleware"
	"github.com/jssolutionshub/welltrack/internal/platform/notification"
	"github.com/jssolutionshub/welltrack/internal/platform/reporting"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "welltrack-server",
		Short: "WellTrack wellness management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the WellTrack API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	tokenIssuer := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTLHrs)*time.Hour)

	// Outbound mail. Without a configured relay, mail goes to the log.
	var sender notification.EmailSender = &notification.LogEmailSender{Logger: logger}
	if cfg.EmailEnable {
		logger.Warn().Str("from", cfg.EmailFrom).Msg("EMAIL_ENABLED is set but no relay is configured; using log delivery")
	} else {
		logger.Info().Msg("email delivery disabled; notifications are logged only")
	}
	notifier := notification.NewManager(sender, notification.NewTemplateEngine(), logger)

	blobs := blobstore.NewInMemoryBlobStore()

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Route groups: public carries no auth, apiV1 requires a session token.
	public := e.Group("/api/v1")
	apiV1 := e.Group("/api/v1", auth.JWTMiddleware(tokenIssuer))

	// Identity domain
	userRepo := identity.NewRepoPG(pool)
	identitySvc := identity.NewService(userRepo, tokenIssuer, notifier)
	identityHandler := identity.NewHandler(identitySvc)
	identityHandler.RegisterRoutes(public, apiV1)

	// Assessment domain
	templateRepo := assessment.NewTemplateRepoPG(pool)
	responseRepo := assessment.NewResponseRepoPG(pool)
	assessmentSvc := assessment.NewService(templateRepo, responseRepo)
	assessmentHandler := assessment.NewHandler(assessmentSvc)
	assessmentHandler.RegisterRoutes(apiV1)

	// Scheduling domain
	apptRepo := scheduling.NewRepoPG(pool)
	schedulingSvc := scheduling.NewService(apptRepo, userRepo, notifier)
	schedulingHandler := scheduling.NewHandler(schedulingSvc)
	schedulingHandler.RegisterRoutes(apiV1)

	// Resource domain
	resourceRepo := resource.NewRepoPG(pool)
	resourceSvc := resource.NewService(resourceRepo, blobs)
	resourceHandler := resource.NewHandler(resourceSvc)
	resourceHandler.RegisterRoutes(apiV1)

	// Reporting and dashboards
	reportHandler := reporting.NewHandler(pool)
	reportHandler.RegisterRoutes(apiV1)
	reportHandler.RegisterDashboardRoutes(apiV1)

	// Notification audit surface, admin only.
	notificationHandler := notification.NewHandler(notifier)
	notificationHandler.RegisterRoutes(apiV1.Group("", auth.RequireRole(auth.RoleAdmin)))

	// Start server with graceful shutdown.
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
