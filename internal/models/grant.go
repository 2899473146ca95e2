package models

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"maps"
	"time"
)

// Grant tiers. The wire value doubles as the session "type" field.
const (
	TierSession = "24hour"
	TierOneTime = "onetime"
)

// Tier lifetimes are fixed, not configurable.
const (
	SessionLifetime = 24 * time.Hour
	OneTimeLifetime = 5 * time.Minute
)

// Validation outcomes for a grant lookup.
var (
	ErrGrantNotFound = errors.New("session not found")
	ErrGrantExpired  = errors.New("session expired")
	ErrGrantConsumed = errors.New("one-time access already used")
	ErrUnknownTier   = errors.New("unknown grant tier")
)

// AccessGrant is a server-issued capability token. The ID alone is the
// credential; wallet address and transaction hash are provenance supplied
// by the client and never verified in simulated mode.
type AccessGrant struct {
	ID              string         `json:"id"`
	Tier            string         `json:"type"`
	CreatedAt       time.Time      `json:"createdAt"`
	ExpiresAt       time.Time      `json:"expiresAt"`
	Consumed        bool           `json:"-"`
	WalletAddress   string         `json:"walletAddress,omitempty"`
	TransactionHash string         `json:"transactionHash,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// TierLifetime returns the fixed lifetime for a tier.
func TierLifetime(tier string) (time.Duration, error) {
	switch tier {
	case TierSession:
		return SessionLifetime, nil
	case TierOneTime:
		return OneTimeLifetime, nil
	default:
		return 0, ErrUnknownTier
	}
}

// ValidFor is the human-readable lifetime shown on the wire.
func ValidFor(tier string) string {
	switch tier {
	case TierOneTime:
		return "5 minutes (single use)"
	default:
		return "24 hours"
	}
}

// ValidAt reports whether the grant grants access at the given instant.
// Expired and consumed grants stay in the store but are inert.
func (g *AccessGrant) ValidAt(now time.Time) bool {
	if now.After(g.ExpiresAt) {
		return false
	}
	if g.Tier == TierOneTime && g.Consumed {
		return false
	}
	return true
}

// Clone returns a detached copy; mutating it (metadata included) never
// reaches the original.
func (g *AccessGrant) Clone() *AccessGrant {
	cp := *g
	cp.Metadata = maps.Clone(g.Metadata)
	return &cp
}

// LedgerEntry records one issuance event. Entries are append-only and
// independent of grant validity, so they survive expiry and consumption.
type LedgerEntry struct {
	ID              string         `json:"id"`
	GrantID         string         `json:"grantId"`
	Tier            string         `json:"type"`
	AmountUSD       float64        `json:"amountUsd"`
	WalletAddress   string         `json:"walletAddress,omitempty"`
	TransactionHash string         `json:"transactionHash,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// Clone returns a detached copy with its own metadata map.
func (e LedgerEntry) Clone() LedgerEntry {
	e.Metadata = maps.Clone(e.Metadata)
	return e
}

// NewGrantID returns a fresh opaque capability token: 128 bits of
// crypto/rand, hex-encoded. Collisions are treated as negligible.
func NewGrantID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return "sess_" + hex.EncodeToString(b)
}
