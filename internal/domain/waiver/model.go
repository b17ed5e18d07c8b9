package waiver

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a claim. A claim resolves to a terminal
// state within a single processing cycle and never spans cycles.
type Status string

const (
	StatusPending    Status = "pending"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusSuccessful || s == StatusFailed || s == StatusCancelled
}

// Claim is one team's bid for a free-agent player.
type Claim struct {
	ID       string
	LeagueID string
	TeamID   string
	PlayerID string
	// DropPlayerID, when set, is released to the free-agent pool on success.
	DropPlayerID string
	BidAmount    int64
	// PrioritySnapshot is the team's waiver priority captured at submission.
	PrioritySnapshot int
	Status           Status
	FailureReason    string
	CreatedAt        time.Time
	ProcessedAt      *time.Time
}

func (c Claim) ValidateBasic() error {
	if c.ID == "" {
		return fmt.Errorf("claim id is required")
	}
	if c.LeagueID == "" {
		return fmt.Errorf("claim league id is required")
	}
	if c.TeamID == "" {
		return fmt.Errorf("claim team id is required")
	}
	if c.PlayerID == "" {
		return fmt.Errorf("claim player id is required")
	}
	if c.BidAmount < 0 {
		return fmt.Errorf("claim bid amount cannot be negative")
	}
	if c.PrioritySnapshot <= 0 {
		return fmt.Errorf("claim priority snapshot must be greater than zero")
	}

	return nil
}
