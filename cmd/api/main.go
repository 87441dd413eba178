package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Raymond9734/campaign-checkout/internal/config"
	"github.com/Raymond9734/campaign-checkout/internal/db"
	"github.com/Raymond9734/campaign-checkout/internal/gateway"
	"github.com/Raymond9734/campaign-checkout/internal/handler"
	"github.com/Raymond9734/campaign-checkout/internal/queue"
	"github.com/Raymond9734/campaign-checkout/internal/repository"
	"github.com/Raymond9734/campaign-checkout/internal/service"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "api",
		Short:         "campaign checkout API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			database, err := connect(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.Migrate(cmd.Context()); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func connect(cfg *config.Config) (*db.DB, error) {
	database, err := db.New(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}

func serve(migrate bool) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	logger.Info("starting campaign checkout API server")

	database, err := connect(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	logger.Info("connected to database")

	if migrate {
		if err := database.Migrate(context.Background()); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	queueClient, err := queue.NewRedisClient(queue.RedisConfig{
		URL:       cfg.Queue.RedisURL,
		QueueName: cfg.Queue.QueueName,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer queueClient.Close()

	logger.Info("connected to Redis queue")

	// Initialize repositories
	recipientRepo := repository.NewRecipientRepository(database.DB)
	authRepo := repository.NewAuthorizationRepository(database.DB)
	campaignRepo := repository.NewCampaignRepository(database.DB)

	paymentGateway := gateway.NewMockGateway(
		gateway.WithLatency(cfg.Gateway.MinLatency, cfg.Gateway.MaxLatency),
	)

	// Initialize services
	recipientSvc := service.NewRecipientService(recipientRepo, logger)
	pricingSvc := service.NewPricingService(cfg.Pricing.UnitPrice, cfg.Pricing.Currency, logger)
	paymentSvc := service.NewPaymentService(authRepo, paymentGateway, cfg.Pricing.Currency, logger)
	campaignSvc := service.NewCampaignService(campaignRepo, recipientRepo, authRepo, queueClient, logger)

	router := handler.NewRouter(handler.Handlers{
		Recipient: handler.NewRecipientHandler(recipientSvc, logger),
		Payment:   handler.NewPaymentHandler(pricingSvc, paymentSvc, logger),
		Campaign:  handler.NewCampaignHandler(campaignSvc, logger),
		Health:    handler.NewHealthHandler(database, queueClient, logger),
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.API.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening",
			slog.String("addr", addr),
			slog.String("unit_price", cfg.Pricing.UnitPrice.StringFixed(2)),
		)
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info("server stopped gracefully")
	}
	return nil
}
