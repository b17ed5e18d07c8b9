package league

import (
	"fmt"
	"time"
)

// WaiverPolicy selects how a league orders competing waiver claims.
type WaiverPolicy string

const (
	// WaiverPolicyPriorityThenBid orders claims by waiver priority first,
	// breaking ties by bid amount and submission time.
	WaiverPolicyPriorityThenBid WaiverPolicy = "priority_then_bid"
	// WaiverPolicyBidOnly ignores priority and orders claims by bid amount,
	// breaking ties by submission time.
	WaiverPolicyBidOnly WaiverPolicy = "bid_only"
)

func (p WaiverPolicy) Valid() bool {
	return p == WaiverPolicyPriorityThenBid || p == WaiverPolicyBidOnly
}

// MaxTradeTTL caps every proposal lifetime regardless of configuration.
const MaxTradeTTL = 7 * 24 * time.Hour

// Settings holds the per-league rules consumed by the transaction engine.
type Settings struct {
	RosterLimit       int
	PositionCaps      map[string]int
	TradeDeadlineWeek int
	FAABBudget        int64
	ReviewWindow      time.Duration
	VetoThreshold     int
	WaiverPolicy      WaiverPolicy
	TradeCooldown     time.Duration
	StandardTradeTTL  time.Duration
	MultiTeamTradeTTL time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		RosterLimit: 16,
		PositionCaps: map[string]int{
			"QB": 3, "RB": 6, "WR": 6, "TE": 3, "K": 2, "DST": 2,
		},
		TradeDeadlineWeek: 11,
		FAABBudget:        100,
		ReviewWindow:      24 * time.Hour,
		VetoThreshold:     4,
		WaiverPolicy:      WaiverPolicyPriorityThenBid,
		TradeCooldown:     24 * time.Hour,
		StandardTradeTTL:  48 * time.Hour,
		MultiTeamTradeTTL: 72 * time.Hour,
	}
}

// TradeTTL returns the lifetime for a new proposal with the given
// participant count, clamped to MaxTradeTTL.
func (s Settings) TradeTTL(participants int) time.Duration {
	ttl := s.StandardTradeTTL
	if participants > 2 {
		ttl = s.MultiTeamTradeTTL
	}
	if ttl <= 0 || ttl > MaxTradeTTL {
		ttl = MaxTradeTTL
	}
	return ttl
}

// League is a fantasy league hosted by the platform.
type League struct {
	ID          string
	Name        string
	Season      string
	CurrentWeek int
	Settings    Settings
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if l.Season == "" {
		return fmt.Errorf("league season is required")
	}
	if l.Settings.RosterLimit <= 0 {
		return fmt.Errorf("league roster limit must be greater than zero")
	}
	if l.Settings.FAABBudget < 0 {
		return fmt.Errorf("league faab budget cannot be negative")
	}
	if !l.Settings.WaiverPolicy.Valid() {
		return fmt.Errorf("league waiver policy %q is not supported", l.Settings.WaiverPolicy)
	}

	return nil
}
