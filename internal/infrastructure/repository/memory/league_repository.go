package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/astralfield/roster-engine/internal/domain/league"
)

type LeagueRepository struct {
	mu    sync.RWMutex
	items map[string]league.League
}

func NewLeagueRepository() *LeagueRepository {
	return &LeagueRepository{items: make(map[string]league.League)}
}

func (r *LeagueRepository) List(_ context.Context) ([]league.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	leagues := make([]league.League, 0, len(r.items))
	for _, lg := range r.items {
		leagues = append(leagues, cloneLeague(lg))
	}
	sort.Slice(leagues, func(i, j int) bool { return leagues[i].ID < leagues[j].ID })

	return leagues, nil
}

func (r *LeagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lg, ok := r.items[leagueID]
	if !ok {
		return league.League{}, false, nil
	}

	return cloneLeague(lg), true, nil
}

func (r *LeagueRepository) Upsert(_ context.Context, lg league.League) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[lg.ID] = cloneLeague(lg)
	return nil
}

func cloneLeague(lg league.League) league.League {
	copied := lg
	if lg.Settings.PositionCaps != nil {
		caps := make(map[string]int, len(lg.Settings.PositionCaps))
		for pos, limit := range lg.Settings.PositionCaps {
			caps[pos] = limit
		}
		copied.Settings.PositionCaps = caps
	}
	return copied
}
