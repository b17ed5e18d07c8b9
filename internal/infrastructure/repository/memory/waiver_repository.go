package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/astralfield/roster-engine/internal/domain/waiver"
)

type WaiverRepository struct {
	mu    sync.RWMutex
	items map[string]waiver.Claim
}

func NewWaiverRepository() *WaiverRepository {
	return &WaiverRepository{items: make(map[string]waiver.Claim)}
}

func (r *WaiverRepository) Create(_ context.Context, claim waiver.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[claim.ID]; exists {
		return fmt.Errorf("claim %s already exists", claim.ID)
	}
	r.items[claim.ID] = cloneClaim(claim)
	return nil
}

func (r *WaiverRepository) GetByID(_ context.Context, claimID string) (waiver.Claim, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	claim, ok := r.items[claimID]
	if !ok {
		return waiver.Claim{}, false, nil
	}

	return cloneClaim(claim), true, nil
}

func (r *WaiverRepository) Update(_ context.Context, claim waiver.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[claim.ID]; !exists {
		return fmt.Errorf("claim %s not found", claim.ID)
	}
	r.items[claim.ID] = cloneClaim(claim)
	return nil
}

func (r *WaiverRepository) ListPendingByLeague(_ context.Context, leagueID string) ([]waiver.Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pending := make([]waiver.Claim, 0)
	for _, claim := range r.items {
		if claim.LeagueID == leagueID && claim.Status == waiver.StatusPending {
			pending = append(pending, cloneClaim(claim))
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].ID < pending[j].ID
	})

	return pending, nil
}

func cloneClaim(c waiver.Claim) waiver.Claim {
	copied := c
	if c.ProcessedAt != nil {
		processed := *c.ProcessedAt
		copied.ProcessedAt = &processed
	}
	return copied
}
