package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sigilo/config"
	"sigilo/internal/database"
	"sigilo/internal/repository"
	"sigilo/internal/router"
	"sigilo/internal/service"
	"sigilo/internal/worker"
	"sigilo/pkg/cloudinary"
	"sigilo/pkg/gateway"
	"sigilo/pkg/telegram"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gw := buildGateway(cfg)
	notifier := buildNotifier(cfg)

	productRepo := repository.NewProductRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	svc := service.NewCheckoutService(productRepo, paymentRepo, gw, notifier)

	var cloud cloudinary.Client
	if cfg.Cloudinary.CloudName != "" {
		cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
	}

	engine := router.Setup(cfg, db, svc, cloud)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	reconciler := worker.NewReconciliationWorker(paymentRepo, svc, cfg.Worker.ReconcileInterval)
	go reconciler.Run(workerCtx)

	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	stopWorker()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	log.Println("server stopped")
}

func buildGateway(cfg *config.Config) gateway.Gateway {
	switch cfg.Gateway.Provider {
	case "syncpay":
		return gateway.NewSyncPayClient(
			cfg.Gateway.SyncPayAuthURL,
			cfg.Gateway.SyncPayCashinURL,
			cfg.Gateway.SyncPayTransactionURL,
			cfg.Gateway.SyncPayClientID,
			cfg.Gateway.SyncPayClientSecret,
		)
	case "stub":
		log.Printf("[Gateway] using stub provider; charges will not settle")
		return gateway.NewStub()
	default:
		return gateway.NewPushinPayClient(cfg.Gateway.PushinPayBaseURL, cfg.Gateway.PushinPayAPIKey)
	}
}

func buildNotifier(cfg *config.Config) service.Notifier {
	if cfg.Telegram.BotToken == "" {
		log.Printf("[Notifier] TELEGRAM_BOT_TOKEN not set; secret links available via read path only")
		return service.NoopNotifier{}
	}
	return service.NewTelegramNotifier(telegram.NewClient(cfg.Telegram.BotToken), cfg.Telegram.SecretAccessURL)
}
