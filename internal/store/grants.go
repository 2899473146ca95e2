package store

import (
	"sync"
	"time"

	"github.com/lihuiat/x402chainpay/internal/models"
)

// GrantStore is the in-memory registry of issued grants. Grants are never
// deleted; validity is a pure function of time and the consumed flag, so
// expired and consumed grants remain queryable. Only GrantService writes
// to the store.
type GrantStore struct {
	mu     sync.RWMutex
	grants map[string]*models.AccessGrant
}

func NewGrantStore() *GrantStore {
	return &GrantStore{grants: make(map[string]*models.AccessGrant)}
}

// Insert registers a freshly issued grant. IDs are 128-bit random, so
// collisions are not handled.
func (s *GrantStore) Insert(g *models.AccessGrant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[g.ID] = g.Clone()
}

// Get returns a copy of the grant, or ErrGrantNotFound. It never mutates
// the store.
func (s *GrantStore) Get(id string) (*models.AccessGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[id]
	if !ok {
		return nil, models.ErrGrantNotFound
	}
	return g.Clone(), nil
}

// ConsumeOnce is the atomic check-and-consume primitive. Under a single
// lock it resolves the grant's validity at now and, for a still-valid
// one-time grant, flips Consumed before returning the snapshot. Under
// concurrent calls on the same grant exactly one caller gets the snapshot;
// the rest get ErrGrantConsumed.
func (s *GrantStore) ConsumeOnce(id string, now time.Time) (*models.AccessGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[id]
	if !ok {
		return nil, models.ErrGrantNotFound
	}
	if now.After(g.ExpiresAt) {
		return nil, models.ErrGrantExpired
	}
	if g.Tier == models.TierOneTime {
		if g.Consumed {
			return nil, models.ErrGrantConsumed
		}
		g.Consumed = true
	}

	return g.Clone(), nil
}

// AllValid returns copies of every grant passing the validity rule at now,
// in arbitrary order.
func (s *GrantStore) AllValid(now time.Time) []*models.AccessGrant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.AccessGrant, 0, len(s.grants))
	for _, g := range s.grants {
		if g.ValidAt(now) {
			out = append(out, g.Clone())
		}
	}
	return out
}

// Len reports the total number of grants held, valid or not.
func (s *GrantStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.grants)
}
