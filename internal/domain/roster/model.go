package roster

import (
	"errors"
	"fmt"
	"time"
)

// ErrOwnershipConflict reports that a transfer precondition went stale
// between validation and commit. The ledger applies nothing in that case.
var ErrOwnershipConflict = errors.New("ownership conflict")

// Slot marks where an owned player sits on the roster. Bench and IR slots
// are exempt from per-position caps.
type Slot string

const (
	SlotActive Slot = "active"
	SlotBench  Slot = "bench"
	SlotIR     Slot = "ir"
)

// Ownership is one row of the authoritative player-to-team mapping.
// A player is owned by at most one team per league at any instant.
type Ownership struct {
	LeagueID    string
	PlayerID    string
	TeamID      string
	Slot        Slot
	AcquiredVia string
	AcquiredAt  time.Time
}

// FreeAgent is the empty team id: a move from it claims an unowned player,
// a move to it releases the player back to the pool.
const FreeAgent = ""

// PlayerMove transfers one player between teams (or the free-agent pool).
type PlayerMove struct {
	PlayerID   string
	FromTeamID string
	ToTeamID   string
}

// Pick is a tradable draft-pick asset.
type Pick struct {
	Year           int
	Round          int
	OriginalTeamID string
	Conditional    bool
}

func (p Pick) Validate() error {
	if p.Year <= 0 {
		return fmt.Errorf("pick year is required")
	}
	if p.Round <= 0 {
		return fmt.Errorf("pick round is required")
	}
	if p.OriginalTeamID == "" {
		return fmt.Errorf("pick original team id is required")
	}

	return nil
}

// Key identifies a pick independent of its current holder.
func (p Pick) Key() string {
	return fmt.Sprintf("%d/%d/%s", p.Year, p.Round, p.OriginalTeamID)
}

// PickMove transfers one draft pick between teams.
type PickMove struct {
	Pick       Pick
	FromTeamID string
	ToTeamID   string
}

// FAABMove transfers budget between teams. An empty ToTeamID spends the
// amount out of the league (a successful waiver bid); FromTeamID is always
// a real team.
type FAABMove struct {
	FromTeamID string
	ToTeamID   string
	Amount     int64
}

// TransferRequest is one atomic multi-asset mutation. Either every move
// applies or none does.
type TransferRequest struct {
	// Via is stamped onto AcquiredVia for every player that changes hands.
	Via     string
	Players []PlayerMove
	Picks   []PickMove
	FAAB    []FAABMove
}

func (r TransferRequest) Empty() bool {
	return len(r.Players) == 0 && len(r.Picks) == 0 && len(r.FAAB) == 0
}
