package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/lihuiat/x402chainpay/internal/config"
	"github.com/lihuiat/x402chainpay/internal/events"
	apphttp "github.com/lihuiat/x402chainpay/internal/http"
	"github.com/lihuiat/x402chainpay/internal/http/handlers"
	"github.com/lihuiat/x402chainpay/internal/services"
	"github.com/lihuiat/x402chainpay/internal/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores: in-memory by design, nothing survives a restart.
	grantStore := store.NewGrantStore()
	ledger := store.NewPaymentLedger(store.DefaultLedgerCap)

	// Events: in-process bus unless Redis is configured.
	var publisher events.Publisher
	var subscriber events.Subscriber
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, log)
		subscriber = events.NewRedisSubscriber(rdb, log)
		log.Info("using redis event bus")
	} else {
		bus := events.NewBus()
		publisher = bus
		subscriber = bus
	}

	// Services
	grantService := services.NewGrantService(grantStore, ledger, publisher, cfg, log)

	// Handlers
	paymentHandler := handlers.NewPaymentHandler(grantService, cfg, log)
	sessionHandler := handlers.NewSessionHandler(grantService, log)
	wsHub := handlers.NewWSHub(subscriber, log)
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, paymentHandler, sessionHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting payment API",
		zap.String("addr", addr),
		zap.String("network", cfg.Network),
		zap.String("mode", cfg.PaymentMode),
	)
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
