package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lihuiat/x402chainpay/internal/config"
	"github.com/lihuiat/x402chainpay/internal/http/dto"
	"github.com/lihuiat/x402chainpay/internal/http/handlers"
	"github.com/lihuiat/x402chainpay/internal/middleware"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	paymentHandler *handlers.PaymentHandler,
	sessionHandler *handlers.SessionHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(dto.HealthResponse{
			Status: "ok",
			Config: dto.HealthConfig{
				Network: cfg.Network,
				PayTo:   cfg.PayTo,
				Mode:    cfg.PaymentMode,
			},
		})
	})

	// Catalog
	app.Get("/payment-options", paymentHandler.PaymentOptions)

	// Purchases
	app.Post("/pay/session", paymentHandler.PaySession)
	app.Post("/pay/onetime", paymentHandler.PayOneTime)

	// Sessions
	app.Get("/session/:id", sessionHandler.Validate)
	app.Get("/sessions", sessionHandler.ListActive)

	// Ledger
	app.Get("/payments", paymentHandler.RecentPayments)

	// WebSocket payment feed
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
