package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/lihuiat/x402chainpay/internal/config"
	"github.com/lihuiat/x402chainpay/internal/http/dto"
	"github.com/lihuiat/x402chainpay/internal/models"
	"github.com/lihuiat/x402chainpay/internal/services"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	grantService *services.GrantService
	cfg          *config.Config
	log          *zap.Logger
}

func NewPaymentHandler(grantService *services.GrantService, cfg *config.Config, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{grantService: grantService, cfg: cfg, log: log}
}

// PaySession issues a 24-hour access grant.
// POST /pay/session
func (h *PaymentHandler) PaySession(c *fiber.Ctx) error {
	return h.pay(c, models.TierSession, "24-hour session activated")
}

// PayOneTime issues a 5-minute single-use grant.
// POST /pay/onetime
func (h *PaymentHandler) PayOneTime(c *fiber.Ctx) error {
	return h.pay(c, models.TierOneTime, "one-time access granted")
}

func (h *PaymentHandler) pay(c *fiber.Ctx, tier, message string) error {
	// Lenient parsing: a malformed body is treated as an empty request,
	// not rejected.
	var req dto.PayRequest
	if err := c.BodyParser(&req); err != nil {
		req = dto.PayRequest{}
	}

	grant, err := h.grantService.Purchase(c.Context(), tier, services.PurchaseRequest{
		WalletAddress:   req.WalletAddress,
		TransactionHash: req.TransactionHash,
		Metadata:        req.Metadata,
	})
	if err != nil {
		h.log.Error("purchase failed", zap.String("tier", tier), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "internal error"})
	}

	return c.JSON(dto.PayResponse{
		Success:   true,
		SessionID: grant.ID,
		Message:   message,
		Session:   dto.NewSessionView(grant),
		Payment: dto.PaymentInfo{
			AmountUSD: h.grantService.TierPrice(tier),
			Currency:  "USD",
			Network:   h.cfg.Network,
			PayTo:     h.cfg.PayTo,
			Mode:      h.cfg.PaymentMode,
		},
	})
}

// PaymentOptions returns the static purchase catalog.
// GET /payment-options
func (h *PaymentHandler) PaymentOptions(c *fiber.Ctx) error {
	return c.JSON(dto.PaymentOptionsResponse{
		Options: []dto.PaymentOption{
			{
				Name:        "24-Hour Session",
				Endpoint:    "/pay/session",
				Price:       h.grantService.TierPrice(models.TierSession),
				Description: fmt.Sprintf("Unlimited access for 24 hours (%s, %s)", h.cfg.Network, h.cfg.PaymentMode),
			},
			{
				Name:        "One-Time Access",
				Endpoint:    "/pay/onetime",
				Price:       h.grantService.TierPrice(models.TierOneTime),
				Description: "Single request, valid for 5 minutes",
			},
		},
	})
}

// RecentPayments returns the newest ledger entries, most recent first.
// GET /payments
func (h *PaymentHandler) RecentPayments(c *fiber.Ctx) error {
	payments := h.grantService.ListRecentPayments(25)
	return c.JSON(dto.PaymentsResponse{Payments: payments})
}
