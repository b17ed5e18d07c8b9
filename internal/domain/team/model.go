package team

import "fmt"

// Team is a fantasy franchise inside a league.
type Team struct {
	ID             string
	LeagueID       string
	Name           string
	OwnerUserID    string
	WaiverPriority int
	FAABBalance    int64
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.LeagueID == "" {
		return fmt.Errorf("team league id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	if t.WaiverPriority <= 0 {
		return fmt.Errorf("team waiver priority must be greater than zero")
	}
	if t.FAABBalance < 0 {
		return fmt.Errorf("team faab balance cannot be negative")
	}

	return nil
}
