package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, leagueID, playerID string) (Player, bool, error)
	GetByIDs(ctx context.Context, leagueID string, playerIDs []string) ([]Player, error)
}
