package postgres

import (
	"time"
)

type leagueTableModel struct {
	ID          int64     `db:"id"`
	PublicID    string    `db:"public_id"`
	Name        string    `db:"name"`
	Season      string    `db:"season"`
	CurrentWeek int       `db:"current_week"`
	Settings    []byte    `db:"settings"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// leagueSettingsModel is the JSONB shape of the settings column.
type leagueSettingsModel struct {
	RosterLimit       int            `json:"roster_limit"`
	PositionCaps      map[string]int `json:"position_caps,omitempty"`
	TradeDeadlineWeek int            `json:"trade_deadline_week"`
	FAABBudget        int64          `json:"faab_budget"`
	ReviewWindowSec   int64          `json:"review_window_sec"`
	VetoThreshold     int            `json:"veto_threshold"`
	WaiverPolicy      string         `json:"waiver_policy"`
	TradeCooldownSec  int64          `json:"trade_cooldown_sec"`
	StandardTTLSec    int64          `json:"standard_trade_ttl_sec"`
	MultiTeamTTLSec   int64          `json:"multi_team_trade_ttl_sec"`
}
