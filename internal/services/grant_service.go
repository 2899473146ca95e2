package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lihuiat/x402chainpay/internal/config"
	"github.com/lihuiat/x402chainpay/internal/events"
	"github.com/lihuiat/x402chainpay/internal/models"
	"github.com/lihuiat/x402chainpay/internal/store"
	"go.uber.org/zap"
)

// GrantService orchestrates grant issuance and validation. It is the only
// writer of the grant store and the ledger.
type GrantService struct {
	grants    *store.GrantStore
	ledger    *store.PaymentLedger
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
	now       func() time.Time
}

func NewGrantService(
	grants *store.GrantStore,
	ledger *store.PaymentLedger,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *GrantService {
	return &GrantService{
		grants:    grants,
		ledger:    ledger,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// PurchaseRequest carries the optional provenance a buyer attaches to a
// purchase. Nothing in it is verified in simulated mode.
type PurchaseRequest struct {
	WalletAddress   string
	TransactionHash string
	Metadata        map[string]any
}

// Purchase issues a fresh grant for the tier and records the issuance in
// the ledger. In simulated mode it always succeeds.
func (s *GrantService) Purchase(ctx context.Context, tier string, req PurchaseRequest) (*models.AccessGrant, error) {
	lifetime, err := models.TierLifetime(tier)
	if err != nil {
		return nil, fmt.Errorf("purchase: %w", err)
	}

	now := s.now()
	grant := &models.AccessGrant{
		ID:              models.NewGrantID(),
		Tier:            tier,
		CreatedAt:       now,
		ExpiresAt:       now.Add(lifetime),
		WalletAddress:   req.WalletAddress,
		TransactionHash: req.TransactionHash,
		Metadata:        req.Metadata,
	}
	s.grants.Insert(grant)

	entry := models.LedgerEntry{
		ID:              uuid.New().String(),
		GrantID:         grant.ID,
		Tier:            tier,
		AmountUSD:       s.TierPrice(tier),
		WalletAddress:   req.WalletAddress,
		TransactionHash: req.TransactionHash,
		Metadata:        req.Metadata,
		CreatedAt:       now,
	}
	s.ledger.Append(entry)

	_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
		Type: events.EventPaymentReceived,
		Payload: map[string]any{
			"sessionId":     grant.ID,
			"type":          tier,
			"amountUsd":     entry.AmountUSD,
			"walletAddress": req.WalletAddress,
		},
	})

	s.log.Info("grant issued",
		zap.String("session_id", grant.ID),
		zap.String("tier", tier),
		zap.String("wallet", req.WalletAddress),
	)

	return grant, nil
}

// Validate resolves a grant id against the store's current state. For a
// still-valid one-time grant this is a mutating read: the call that first
// observes it flips the consumed flag and gets the success snapshot, so
// every later call deterministically gets ErrGrantConsumed. Timed grants
// validate repeatedly without side effects. Unknown ids never mutate
// anything.
func (s *GrantService) Validate(_ context.Context, id string) (*models.AccessGrant, error) {
	return s.grants.ConsumeOnce(id, s.now())
}

// ListActive returns a point-in-time snapshot of currently valid grants.
func (s *GrantService) ListActive() []*models.AccessGrant {
	return s.grants.AllValid(s.now())
}

// ListRecentPayments returns the newest ledger entries, most recent first.
func (s *GrantService) ListRecentPayments(limit int) []models.LedgerEntry {
	return s.ledger.Recent(limit)
}

// TierPrice returns the catalog price for a tier in USD.
func (s *GrantService) TierPrice(tier string) float64 {
	if tier == models.TierOneTime {
		return s.cfg.OneTimePriceUSD
	}
	return s.cfg.SessionPriceUSD
}
