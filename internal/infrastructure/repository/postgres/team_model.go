package postgres

import "time"

type teamTableModel struct {
	ID             int64     `db:"id"`
	PublicID       string    `db:"public_id"`
	LeaguePublicID string    `db:"league_public_id"`
	Name           string    `db:"name"`
	OwnerUserID    string    `db:"owner_user_id"`
	WaiverPriority int       `db:"waiver_priority"`
	FAABBalance    int64     `db:"faab_balance"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
