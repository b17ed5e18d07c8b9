package roster

import "context"

// Ledger is the authoritative ownership record. It is the single shared
// mutable resource of the transaction engine: trade execution and waiver
// resolution both mutate ownership exclusively through Transfer.
type Ledger interface {
	// OwnerOf reports the current owner of a player, if any.
	OwnerOf(ctx context.Context, leagueID, playerID string) (string, bool, error)
	ListByTeam(ctx context.Context, leagueID, teamID string) ([]Ownership, error)
	ListPicksByTeam(ctx context.Context, leagueID, teamID string) ([]Pick, error)
	// Transfer re-validates, inside one atomic scope, that every from-side
	// still holds its asset and that FAAB balances stay non-negative. Any
	// stale precondition fails the whole request with ErrOwnershipConflict
	// and applies nothing.
	Transfer(ctx context.Context, leagueID string, req TransferRequest) error
}
