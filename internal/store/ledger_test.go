package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/lihuiat/x402chainpay/internal/models"
)

func ledgerEntry(i int, createdAt time.Time) models.LedgerEntry {
	return models.LedgerEntry{
		ID:        fmt.Sprintf("entry-%d", i),
		GrantID:   fmt.Sprintf("sess_%d", i),
		Tier:      models.TierSession,
		AmountUSD: 1,
		CreatedAt: createdAt,
	}
}

func TestLedgerEvictsOldestPastCap(t *testing.T) {
	base := time.Now()
	l := NewPaymentLedger(DefaultLedgerCap)

	for i := 0; i < DefaultLedgerCap+1; i++ {
		l.Append(ledgerEntry(i, base.Add(time.Duration(i)*time.Second)))
	}

	if l.Len() != DefaultLedgerCap {
		t.Fatalf("len = %d, want %d", l.Len(), DefaultLedgerCap)
	}
	if l.Contains("sess_0") {
		t.Error("oldest entry still present after eviction")
	}
	if !l.Contains(fmt.Sprintf("sess_%d", DefaultLedgerCap)) {
		t.Error("newest entry missing")
	}
}

func TestLedgerRecentOrderAndLimit(t *testing.T) {
	base := time.Now()
	l := NewPaymentLedger(DefaultLedgerCap)

	for i := 0; i < 40; i++ {
		l.Append(ledgerEntry(i, base.Add(time.Duration(i)*time.Second)))
	}

	recent := l.Recent(25)
	if len(recent) != 25 {
		t.Fatalf("Recent(25) returned %d entries", len(recent))
	}
	if recent[0].GrantID != "sess_39" {
		t.Errorf("newest first: got %q, want sess_39", recent[0].GrantID)
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].CreatedAt.After(recent[i-1].CreatedAt) {
			t.Fatalf("entries out of order at index %d", i)
		}
	}
}

func TestLedgerRecentIsACopy(t *testing.T) {
	l := NewPaymentLedger(10)
	entry := ledgerEntry(0, time.Now())
	entry.Metadata = map[string]any{"ref": "landing"}
	l.Append(entry)

	recent := l.Recent(10)
	recent[0].GrantID = "tampered"
	recent[0].Metadata["ref"] = "tampered"

	if l.Contains("tampered") {
		t.Error("caller mutation reached the live ledger")
	}
	if !l.Contains("sess_0") {
		t.Error("original entry lost")
	}
	if l.Recent(10)[0].Metadata["ref"] != "landing" {
		t.Error("caller mutation reached the live entry's metadata")
	}
}

func TestLedgerZeroLimitReturnsAll(t *testing.T) {
	l := NewPaymentLedger(10)
	for i := 0; i < 3; i++ {
		l.Append(ledgerEntry(i, time.Now().Add(time.Duration(i)*time.Second)))
	}
	if got := len(l.Recent(0)); got != 3 {
		t.Errorf("Recent(0) returned %d entries, want 3", got)
	}
}
