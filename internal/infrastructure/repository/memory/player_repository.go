package memory

import (
	"context"
	"sync"

	"github.com/astralfield/roster-engine/internal/domain/player"
)

type PlayerRepository struct {
	mu    sync.RWMutex
	items map[string]player.Player
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{items: make(map[string]player.Player)}
}

func (r *PlayerRepository) GetByID(_ context.Context, leagueID, playerID string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[playerKey(leagueID, playerID)]
	if !ok {
		return player.Player{}, false, nil
	}

	return p, true, nil
}

func (r *PlayerRepository) GetByIDs(_ context.Context, leagueID string, playerIDs []string) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]player.Player, 0, len(playerIDs))
	for _, playerID := range playerIDs {
		if p, ok := r.items[playerKey(leagueID, playerID)]; ok {
			players = append(players, p)
		}
	}

	return players, nil
}

func (r *PlayerRepository) Upsert(_ context.Context, p player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[playerKey(p.LeagueID, p.ID)] = p
	return nil
}

func playerKey(leagueID, playerID string) string {
	return leagueID + "::" + playerID
}
