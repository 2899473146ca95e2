package dto

import (
	"time"

	"github.com/lihuiat/x402chainpay/internal/models"
)

type HealthConfig struct {
	Network string `json:"network"`
	PayTo   string `json:"payTo"`
	Mode    string `json:"mode"`
}

type HealthResponse struct {
	Status string       `json:"status"`
	Config HealthConfig `json:"config"`
}

type PaymentOption struct {
	Name        string  `json:"name"`
	Endpoint    string  `json:"endpoint"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

type PaymentOptionsResponse struct {
	Options []PaymentOption `json:"options"`
}

// SessionView is the redacted grant representation handed to clients.
type SessionView struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	CreatedAt       time.Time      `json:"createdAt"`
	ExpiresAt       time.Time      `json:"expiresAt"`
	ValidFor        string         `json:"validFor"`
	WalletAddress   string         `json:"walletAddress,omitempty"`
	TransactionHash string         `json:"transactionHash,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

type PaymentInfo struct {
	AmountUSD float64 `json:"amountUsd"`
	Currency  string  `json:"currency"`
	Network   string  `json:"network"`
	PayTo     string  `json:"payTo"`
	Mode      string  `json:"mode"`
}

type PayResponse struct {
	Success   bool        `json:"success"`
	SessionID string      `json:"sessionId"`
	Message   string      `json:"message"`
	Session   SessionView `json:"session"`
	Payment   PaymentInfo `json:"payment"`
}

type ValidateResponse struct {
	Valid   bool         `json:"valid"`
	Session *SessionView `json:"session,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type SessionsResponse struct {
	Sessions []SessionView `json:"sessions"`
}

type PaymentsResponse struct {
	Payments []models.LedgerEntry `json:"payments"`
}

// NewSessionView redacts a grant for the wire: the consumed flag and
// anything else internal stays server-side.
func NewSessionView(g *models.AccessGrant) SessionView {
	return SessionView{
		ID:              g.ID,
		Type:            g.Tier,
		CreatedAt:       g.CreatedAt,
		ExpiresAt:       g.ExpiresAt,
		ValidFor:        models.ValidFor(g.Tier),
		WalletAddress:   g.WalletAddress,
		TransactionHash: g.TransactionHash,
		Metadata:        g.Metadata,
	}
}
