package store

import (
	"sort"
	"sync"

	"github.com/lihuiat/x402chainpay/internal/models"
)

// DefaultLedgerCap bounds the payment history kept in memory.
const DefaultLedgerCap = 100

// PaymentLedger is a bounded FIFO of issuance events. Entries are immutable
// once appended; when the cap is exceeded the oldest entry is evicted.
type PaymentLedger struct {
	mu      sync.RWMutex
	entries []models.LedgerEntry
	cap     int
}

func NewPaymentLedger(capacity int) *PaymentLedger {
	if capacity <= 0 {
		capacity = DefaultLedgerCap
	}
	return &PaymentLedger{cap: capacity}
}

// Append inserts at the tail and evicts the head once length exceeds the cap.
func (l *PaymentLedger) Append(e models.LedgerEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e.Clone())
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
}

// Recent returns up to limit entries, newest first. The result is a copy;
// callers cannot reach the live sequence through it.
func (l *PaymentLedger) Recent(limit int) []models.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// Copy tail-first so entries with equal timestamps stay newest-first
	// through the stable sort.
	out := make([]models.LedgerEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		out = append(out, l.entries[i].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len reports the current number of retained entries.
func (l *PaymentLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Contains reports whether an entry for the given grant id is still retained.
func (l *PaymentLedger) Contains(grantID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.entries {
		if l.entries[i].GrantID == grantID {
			return true
		}
	}
	return false
}
