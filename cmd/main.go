package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"foodflow/internal/config"
	"foodflow/internal/database"
	"foodflow/internal/logger"
	"foodflow/internal/messaging"
	"foodflow/internal/models"
	"foodflow/internal/server"
	"foodflow/internal/services/catalog"
	"foodflow/internal/services/kitchen"
	"foodflow/internal/services/notification"
	"foodflow/internal/services/order"
	"foodflow/internal/services/sales"
	"foodflow/internal/services/tracking"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "foodflow",
		Short:         "Restaurant front-of-house service: tables, orders, kitchen and sales",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "path to the YAML config file")

	load := func(service string) (*config.Config, *logger.Logger, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, logger.NewWithWriter(service, os.Stdout, cfg.Log.Level), nil
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load("foodflow-api")
			if err != nil {
				return err
			}
			return runService(log, "API server", func(ctx context.Context) error {
				return runServer(ctx, cfg, log)
			})
		},
	}

	var rollback int
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load("foodflow-migrate")
			if err != nil {
				return err
			}
			return runService(log, "migrations", func(ctx context.Context) error {
				return runMigrations(ctx, cfg, log, rollback)
			})
		},
	}
	migrate.Flags().IntVar(&rollback, "down", 0, "roll back this many migrations instead of applying")

	var prefetch int
	notify := &cobra.Command{
		Use:   "notify",
		Short: "Print order events from RabbitMQ as they happen",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load("foodflow-notify")
			if err != nil {
				return err
			}
			return runService(log, "notification subscriber", func(ctx context.Context) error {
				return runNotificationSubscriber(ctx, cfg, log, prefetch)
			})
		},
	}
	notify.Flags().IntVar(&prefetch, "prefetch", 10, "RabbitMQ prefetch count")

	root.AddCommand(serve, migrate, notify)
	return root
}

// runService runs fn until it returns or SIGINT/SIGTERM cancels its context
func runService(log *logger.Logger, name string, fn func(ctx context.Context) error) error {
	requestID := logger.GenerateRequestID()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("service_started", fmt.Sprintf("Starting %s", name), requestID, nil)
	if err := fn(ctx); err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", name), requestID, err, nil)
		return err
	}
	log.Info("service_stopped", fmt.Sprintf("%s stopped gracefully", name), requestID, nil)
	return nil
}

func runServer(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	rate, err := cfg.SurchargeRate()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	var events order.EventPublisher
	if cfg.RabbitMQ.Enabled {
		conn, err := messaging.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()
		events = messaging.NewPublisher(conn, log)
	}

	orderService := order.NewService(db, events, models.NewPricing(rate), cfg.Pricing.DefaultPaymentMethod, log)
	handler := server.NewRouter(log, db, cfg.Server.RequestTimeout,
		order.NewHandler(orderService, log),
		tracking.NewHandler(tracking.NewService(db, log), log),
		kitchen.NewHandler(kitchen.NewService(db, log), log),
		sales.NewHandler(sales.NewLedger(db, loc, log), log),
		catalog.NewHandler(catalog.NewService(db, log), log),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_listening", fmt.Sprintf("API listening on port %d", cfg.Server.Port), requestID, map[string]interface{}{
			"port":           cfg.Server.Port,
			"surcharge_rate": rate.String(),
			"timezone":       loc.String(),
			"events_enabled": events != nil,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMigrations(ctx context.Context, cfg *config.Config, log *logger.Logger, rollback int) error {
	db, err := database.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if rollback > 0 {
		return db.RollbackMigrations(rollback)
	}
	return db.RunMigrations()
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}

	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "foodflow-notify", prefetch)
	return notification.NewSubscriber(consumer, log, os.Stdout).Run(ctx)
}
