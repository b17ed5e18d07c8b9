package postgres

import (
	"database/sql"
	"time"
)

type tradeTableModel struct {
	ID               int64          `db:"id"`
	PublicID         string         `db:"public_id"`
	LeaguePublicID   string         `db:"league_public_id"`
	Status           string         `db:"status"`
	Participants     []byte         `db:"participants"`
	Message          sql.NullString `db:"message"`
	VetoVotes        int            `db:"veto_votes"`
	VetoVoters       []byte         `db:"veto_voters"`
	VetoThreshold    int            `db:"veto_threshold"`
	SupersededBy     sql.NullString `db:"superseded_by"`
	FailureReason    sql.NullString `db:"failure_reason"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	ExpiresAt        time.Time      `db:"expires_at"`
	ReviewPeriodEnds *time.Time     `db:"review_period_ends"`
	ProcessedAt      *time.Time     `db:"processed_at"`
}

// tradeParticipantModel is the JSONB shape of one participant.
type tradeParticipantModel struct {
	TeamID     string             `json:"team_id"`
	Give       tradeManifestModel `json:"give"`
	Receive    tradeManifestModel `json:"receive"`
	Accepted   bool               `json:"accepted"`
	AcceptedAt *time.Time         `json:"accepted_at,omitempty"`
}

type tradeManifestModel struct {
	Players []string         `json:"players,omitempty"`
	Picks   []tradePickModel `json:"picks,omitempty"`
	FAAB    int64            `json:"faab,omitempty"`
}

type tradePickModel struct {
	Year           int    `json:"year"`
	Round          int    `json:"round"`
	OriginalTeamID string `json:"original_team_id"`
	Conditional    bool   `json:"conditional,omitempty"`
}
