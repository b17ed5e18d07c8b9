package audit

import "context"

// Repository is the append-only transaction history.
type Repository interface {
	Append(ctx context.Context, entry Entry) error
	ListBySubject(ctx context.Context, subjectID string) ([]Entry, error)
	ListByLeague(ctx context.Context, leagueID string, limit int) ([]Entry, error)
}
