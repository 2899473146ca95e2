package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lihuiat/x402chainpay/internal/models"
)

func newGrant(tier string, createdAt time.Time) *models.AccessGrant {
	lifetime, _ := models.TierLifetime(tier)
	return &models.AccessGrant{
		ID:        models.NewGrantID(),
		Tier:      tier,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(lifetime),
	}
}

func TestGetUnknownID(t *testing.T) {
	s := NewGrantStore()

	if _, err := s.Get("sess_missing"); !errors.Is(err, models.ErrGrantNotFound) {
		t.Fatalf("Get unknown id: got %v, want ErrGrantNotFound", err)
	}
	if _, err := s.ConsumeOnce("sess_missing", time.Now()); !errors.Is(err, models.ErrGrantNotFound) {
		t.Fatalf("ConsumeOnce unknown id: got %v, want ErrGrantNotFound", err)
	}
	if s.Len() != 0 {
		t.Fatalf("store mutated by failed lookup: len=%d", s.Len())
	}
}

func TestConsumeOnceOutcomes(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		tier    string
		at      time.Time
		prepare func(*GrantStore, string)
		wantErr error
	}{
		{name: "timed valid", tier: models.TierSession, at: now.Add(time.Hour)},
		{name: "timed at expiry boundary", tier: models.TierSession, at: now.Add(models.SessionLifetime)},
		{name: "timed expired", tier: models.TierSession, at: now.Add(25 * time.Hour), wantErr: models.ErrGrantExpired},
		{name: "onetime fresh", tier: models.TierOneTime, at: now.Add(time.Minute)},
		{name: "onetime expired", tier: models.TierOneTime, at: now.Add(6 * time.Minute), wantErr: models.ErrGrantExpired},
		{
			name: "onetime already consumed",
			tier: models.TierOneTime,
			at:   now.Add(time.Minute),
			prepare: func(s *GrantStore, id string) {
				_, _ = s.ConsumeOnce(id, now.Add(30*time.Second))
			},
			wantErr: models.ErrGrantConsumed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewGrantStore()
			g := newGrant(tt.tier, now)
			s.Insert(g)
			if tt.prepare != nil {
				tt.prepare(s, g.ID)
			}

			got, err := s.ConsumeOnce(g.ID, tt.at)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ConsumeOnce() err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got.ID != g.ID {
				t.Errorf("snapshot id = %q, want %q", got.ID, g.ID)
			}
		})
	}
}

func TestTimedGrantValidatesRepeatedly(t *testing.T) {
	now := time.Now()
	s := NewGrantStore()
	g := newGrant(models.TierSession, now)
	s.Insert(g)

	for i := 0; i < 10; i++ {
		if _, err := s.ConsumeOnce(g.ID, now.Add(time.Hour)); err != nil {
			t.Fatalf("validation %d: %v", i, err)
		}
	}
}

func TestOneTimeConsumedExactlyOnce(t *testing.T) {
	now := time.Now()
	s := NewGrantStore()
	g := newGrant(models.TierOneTime, now)
	s.Insert(g)

	if _, err := s.ConsumeOnce(g.ID, now.Add(time.Second)); err != nil {
		t.Fatalf("first validation: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := s.ConsumeOnce(g.ID, now.Add(2*time.Second)); !errors.Is(err, models.ErrGrantConsumed) {
			t.Fatalf("validation %d: got %v, want ErrGrantConsumed", i+2, err)
		}
	}
}

func TestConcurrentConsumeSingleWinner(t *testing.T) {
	now := time.Now()
	s := NewGrantStore()
	g := newGrant(models.TierOneTime, now)
	s.Insert(g)

	const n = 64
	var wg sync.WaitGroup
	results := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ConsumeOnce(g.ID, now.Add(time.Second))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	valid, consumed := 0, 0
	for err := range results {
		switch {
		case err == nil:
			valid++
		case errors.Is(err, models.ErrGrantConsumed):
			consumed++
		default:
			t.Fatalf("unexpected outcome: %v", err)
		}
	}
	if valid != 1 {
		t.Errorf("winners = %d, want exactly 1", valid)
	}
	if consumed != n-1 {
		t.Errorf("rejected = %d, want %d", consumed, n-1)
	}
}

func TestAllValidFiltersInertGrants(t *testing.T) {
	now := time.Now()
	s := NewGrantStore()

	live := newGrant(models.TierSession, now)
	s.Insert(live)

	expired := newGrant(models.TierSession, now.Add(-48*time.Hour))
	s.Insert(expired)

	used := newGrant(models.TierOneTime, now)
	s.Insert(used)
	if _, err := s.ConsumeOnce(used.ID, now); err != nil {
		t.Fatalf("consume: %v", err)
	}

	valid := s.AllValid(now.Add(time.Minute))
	if len(valid) != 1 {
		t.Fatalf("AllValid returned %d grants, want 1", len(valid))
	}
	if valid[0].ID != live.ID {
		t.Errorf("AllValid returned %q, want %q", valid[0].ID, live.ID)
	}
	// Expired and consumed grants remain queryable.
	if s.Len() != 3 {
		t.Errorf("store len = %d, want 3", s.Len())
	}
}

func TestGetReturnsCopy(t *testing.T) {
	now := time.Now()
	s := NewGrantStore()
	g := newGrant(models.TierOneTime, now)
	s.Insert(g)

	cp, err := s.Get(g.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	cp.Consumed = true

	if _, err := s.ConsumeOnce(g.ID, now.Add(time.Second)); err != nil {
		t.Fatalf("mutating the Get copy leaked into the store: %v", err)
	}
}

func TestSnapshotMetadataDetached(t *testing.T) {
	now := time.Now()
	s := NewGrantStore()

	g := newGrant(models.TierSession, now)
	g.Metadata = map[string]any{"ref": "landing"}
	s.Insert(g)

	// The caller's map is not shared with the store.
	g.Metadata["ref"] = "caller-side"
	stored, err := s.Get(g.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Metadata["ref"] != "landing" {
		t.Fatalf("insert shared the caller's metadata map: %v", stored.Metadata)
	}

	// Nor are snapshot maps shared back into the store.
	stored.Metadata["ref"] = "tampered"
	snapshot, err := s.ConsumeOnce(g.ID, now.Add(time.Second))
	if err != nil {
		t.Fatalf("ConsumeOnce: %v", err)
	}
	if snapshot.Metadata["ref"] != "landing" {
		t.Errorf("snapshot metadata mutated through a previous copy: %v", snapshot.Metadata)
	}

	snapshot.Metadata["ref"] = "tampered-again"
	again, _ := s.Get(g.ID)
	if again.Metadata["ref"] != "landing" {
		t.Errorf("store metadata mutated through a snapshot: %v", again.Metadata)
	}
}
