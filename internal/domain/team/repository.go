package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	ListByLeague(ctx context.Context, leagueID string) ([]Team, error)
	GetByID(ctx context.Context, leagueID, teamID string) (Team, bool, error)
	// DemoteToLastPriority moves the team to the back of the waiver order and
	// shifts every team behind it up by one, keeping the order strict and
	// gapless. The re-rank is a single atomic operation.
	DemoteToLastPriority(ctx context.Context, leagueID, teamID string) error
}
