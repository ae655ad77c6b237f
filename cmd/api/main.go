package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"grocollect/internal/client"
	"grocollect/internal/config"
	"grocollect/internal/logging"
	"grocollect/internal/policy"
	"grocollect/internal/ratelimit"
	"grocollect/internal/repository"
	"grocollect/internal/server"
	"grocollect/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := client.InitDBClient(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	lygosClient := client.NewLygosClient(&cfg.Lygos)
	notifier := client.NewNotifier(cfg.SMTP, cfg.SMS, logger)

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	if cfg.Environment.Name == "development" {
		ctx := context.Background()
		for name, seed := range map[string]func(context.Context) error{
			"products": productRepo.Seed,
			"slots":    slotRepo.Seed,
			"staff":    staffRepo.Seed,
		} {
			if err := seed(ctx); err != nil {
				logger.Warn("seed failed", zap.String("what", name), zap.Error(err))
			}
		}
	}

	pol := policy.Policy{
		PerishableHours:    cfg.Policy.PerishableHours,
		NonPerishableHours: cfg.Policy.NonPerishableHours,
	}
	limiter := ratelimit.New(
		time.Duration(cfg.Webhook.RateWindowSeconds)*time.Second,
		cfg.Webhook.RateMax,
	)

	orderService := service.NewOrderService(db, lygosClient, pol,
		orderRepo, productRepo, slotRepo, activityRepo, logger)
	paymentService := service.NewPaymentService(db, lygosClient, limiter,
		orderRepo, slotRepo, webhookEventRepo, activityRepo, notifier, logger)
	pickupService := service.NewPickupService(db, orderRepo, activityRepo, notifier, logger)
	authService := service.NewAuthService(staffRepo, activityRepo, cfg.JWTSecret, logger)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	sweeper := service.NewSweeper(db, orderRepo, productRepo, slotRepo, activityRepo, logger)
	go sweeper.Run(sweepCtx, time.Duration(cfg.Sweep.IntervalSeconds)*time.Second)

	srv := server.NewServer(orderService, paymentService, authService,
		pickupService, cfg.JWTSecret, logger)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	logger.Info("starting HTTP server", zap.String("addr", serverAddr))
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")
	sweepCancel()

	if err := srv.Shutdown(); err != nil {
		logger.Fatal("HTTP server shutdown error", zap.Error(err))
	}
}
