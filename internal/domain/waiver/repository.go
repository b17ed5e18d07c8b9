package waiver

import "context"

// Repository describes claim persistence needs from use cases. Resolution
// updates each claim individually so a crash mid-cycle leaves already
// resolved claims final.
type Repository interface {
	Create(ctx context.Context, claim Claim) error
	GetByID(ctx context.Context, claimID string) (Claim, bool, error)
	Update(ctx context.Context, claim Claim) error
	ListPendingByLeague(ctx context.Context, leagueID string) ([]Claim, error)
}
