package trade

import (
	"context"
	"time"
)

// Repository describes proposal persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, proposal Proposal) error
	GetByID(ctx context.Context, tradeID string) (Proposal, bool, error)
	Update(ctx context.Context, proposal Proposal) error
	// ListActiveByLeague returns proposals in a non-terminal state.
	ListActiveByLeague(ctx context.Context, leagueID string) ([]Proposal, error)
	// ExistsActiveBetween reports whether a non-terminal proposal between
	// the same ordered initiator/responder pair was created after the given
	// cutoff. Backs the duplicate-proposal cooldown guard.
	ExistsActiveBetween(ctx context.Context, leagueID, initiatorTeamID, responderTeamID string, since time.Time) (bool, error)
}
