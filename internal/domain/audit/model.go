package audit

import (
	"fmt"
	"time"
)

// Action identifies the recorded transition.
type Action string

const (
	ActionTradeProposed  Action = "trade.proposed"
	ActionTradeAccepted  Action = "trade.accepted"
	ActionTradeRejected  Action = "trade.rejected"
	ActionTradeCountered Action = "trade.countered"
	ActionTradeApproved  Action = "trade.approved"
	ActionTradeExecuted  Action = "trade.executed"
	ActionTradeExpired   Action = "trade.expired"
	ActionTradeVetoVote  Action = "trade.veto_vote"
	ActionTradeVetoed    Action = "trade.vetoed"
	ActionTradeFailed    Action = "trade.failed"
	ActionClaimSubmitted Action = "waiver.submitted"
	ActionClaimCancelled Action = "waiver.cancelled"
	ActionClaimResolved  Action = "waiver.resolved"
)

// Entry is one immutable line of the transaction history. Entries are
// append-only, never updated or deleted, and are used only for dispute
// resolution, never for control flow.
type Entry struct {
	ID        string
	LeagueID  string
	SubjectID string
	Action    Action
	ActorID   string
	Detail    map[string]any
	CreatedAt time.Time
}

func (e Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("audit entry id is required")
	}
	if e.LeagueID == "" {
		return fmt.Errorf("audit entry league id is required")
	}
	if e.SubjectID == "" {
		return fmt.Errorf("audit entry subject id is required")
	}
	if e.Action == "" {
		return fmt.Errorf("audit entry action is required")
	}

	return nil
}
