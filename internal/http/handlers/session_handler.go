package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/lihuiat/x402chainpay/internal/http/dto"
	"github.com/lihuiat/x402chainpay/internal/models"
	"github.com/lihuiat/x402chainpay/internal/services"
	"go.uber.org/zap"
)

type SessionHandler struct {
	grantService *services.GrantService
	log          *zap.Logger
}

func NewSessionHandler(grantService *services.GrantService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{grantService: grantService, log: log}
}

// Validate resolves a session id. For one-time sessions the first
// successful call consumes the grant, so this endpoint is not idempotent
// for that tier.
// GET /session/:id
func (h *SessionHandler) Validate(c *fiber.Ctx) error {
	id := c.Params("id")

	grant, err := h.grantService.Validate(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrGrantNotFound):
			// Unknown id is the only validation failure that 404s;
			// expired and consumed grants are found-but-invalid.
			return c.Status(fiber.StatusNotFound).JSON(dto.ValidateResponse{
				Valid: false,
				Error: "Session not found",
			})
		case errors.Is(err, models.ErrGrantExpired):
			return c.JSON(dto.ValidateResponse{Valid: false, Error: "Session expired"})
		case errors.Is(err, models.ErrGrantConsumed):
			return c.JSON(dto.ValidateResponse{Valid: false, Error: "One-time access already used"})
		default:
			h.log.Error("session validation failed", zap.String("session_id", id), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ValidateResponse{
				Valid: false,
				Error: "internal error",
			})
		}
	}

	view := dto.NewSessionView(grant)
	return c.JSON(dto.ValidateResponse{Valid: true, Session: &view})
}

// ListActive returns a snapshot of currently valid sessions.
// GET /sessions
func (h *SessionHandler) ListActive(c *fiber.Ctx) error {
	grants := h.grantService.ListActive()
	sessions := make([]dto.SessionView, 0, len(grants))
	for _, g := range grants {
		sessions = append(sessions, dto.NewSessionView(g))
	}
	return c.JSON(dto.SessionsResponse{Sessions: sessions})
}
