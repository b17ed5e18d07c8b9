package player

import "fmt"

// Position is an on-field position used for roster cap checks.
type Position string

const (
	PositionQB  Position = "QB"
	PositionRB  Position = "RB"
	PositionWR  Position = "WR"
	PositionTE  Position = "TE"
	PositionK   Position = "K"
	PositionDST Position = "DST"
)

// Player is a real athlete claimable and tradable inside a league.
type Player struct {
	ID       string
	LeagueID string
	Name     string
	Position Position
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.LeagueID == "" {
		return fmt.Errorf("player league id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if p.Position == "" {
		return fmt.Errorf("player position is required")
	}

	return nil
}
