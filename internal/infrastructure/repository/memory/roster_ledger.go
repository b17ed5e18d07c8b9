package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/astralfield/roster-engine/internal/domain/roster"
)

// RosterLedger is the in-memory ownership record. FAAB balances live on
// the team repository, so budget moves are delegated to it; the ledger
// validates the whole request first and applies nothing on any stale
// precondition.
type RosterLedger struct {
	mu sync.Mutex
	// ownership is keyed by league then player id.
	ownership map[string]map[string]roster.Ownership
	// picks is keyed by league then pick key; the value is the holder.
	picks map[string]map[string]pickHolding
	teams *TeamRepository
	now   func() time.Time
}

type pickHolding struct {
	pick   roster.Pick
	teamID string
}

func NewRosterLedger(teams *TeamRepository) *RosterLedger {
	return &RosterLedger{
		ownership: make(map[string]map[string]roster.Ownership),
		picks:     make(map[string]map[string]pickHolding),
		teams:     teams,
		now:       time.Now,
	}
}

// SetNow overrides the clock used for AcquiredAt stamps.
func (l *RosterLedger) SetNow(now func() time.Time) {
	l.now = now
}

func (l *RosterLedger) OwnerOf(_ context.Context, leagueID, playerID string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, ok := l.ownership[leagueID][playerID]
	if !ok {
		return "", false, nil
	}
	return o.TeamID, true, nil
}

func (l *RosterLedger) ListByTeam(_ context.Context, leagueID, teamID string) ([]roster.Ownership, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	owned := make([]roster.Ownership, 0)
	for _, o := range l.ownership[leagueID] {
		if o.TeamID == teamID {
			owned = append(owned, o)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].PlayerID < owned[j].PlayerID })

	return owned, nil
}

func (l *RosterLedger) ListPicksByTeam(_ context.Context, leagueID, teamID string) ([]roster.Pick, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	picks := make([]roster.Pick, 0)
	for _, h := range l.picks[leagueID] {
		if h.teamID == teamID {
			picks = append(picks, h.pick)
		}
	}
	sort.Slice(picks, func(i, j int) bool { return picks[i].Key() < picks[j].Key() })

	return picks, nil
}

// Transfer validates every move against the current state plus the moves
// staged earlier in the same request, then applies the whole batch. Any
// stale precondition returns ErrOwnershipConflict with nothing applied.
func (l *RosterLedger) Transfer(ctx context.Context, leagueID string, req roster.TransferRequest) error {
	if req.Empty() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	staged := make(map[string]string, len(req.Players))
	for _, move := range req.Players {
		owner, ok := l.effectiveOwner(leagueID, move.PlayerID, staged)
		if move.FromTeamID == roster.FreeAgent {
			if ok {
				return fmt.Errorf("%w: player %s is owned by team %s", roster.ErrOwnershipConflict, move.PlayerID, owner)
			}
		} else if !ok || owner != move.FromTeamID {
			return fmt.Errorf("%w: player %s is not owned by team %s", roster.ErrOwnershipConflict, move.PlayerID, move.FromTeamID)
		}
		staged[move.PlayerID] = move.ToTeamID
	}

	stagedPicks := make(map[string]string, len(req.Picks))
	for _, move := range req.Picks {
		key := move.Pick.Key()
		holder, ok := stagedPicks[key]
		if !ok {
			h, held := l.picks[leagueID][key]
			if !held {
				return fmt.Errorf("%w: pick %s is not tracked", roster.ErrOwnershipConflict, key)
			}
			holder = h.teamID
		}
		if holder != move.FromTeamID {
			return fmt.Errorf("%w: pick %s is not held by team %s", roster.ErrOwnershipConflict, key, move.FromTeamID)
		}
		stagedPicks[key] = move.ToTeamID
	}

	deltas := make(map[string]int64)
	for _, move := range req.FAAB {
		if move.Amount <= 0 {
			return fmt.Errorf("%w: faab move amount must be positive", roster.ErrOwnershipConflict)
		}
		if move.FromTeamID == "" {
			return fmt.Errorf("%w: faab move requires a source team", roster.ErrOwnershipConflict)
		}
		deltas[move.FromTeamID] -= move.Amount
		if move.ToTeamID != "" {
			deltas[move.ToTeamID] += move.Amount
		}
	}
	for teamID, delta := range deltas {
		balance, ok := l.teams.FAABBalance(leagueID, teamID)
		if !ok {
			return fmt.Errorf("%w: team %s not found", roster.ErrOwnershipConflict, teamID)
		}
		if balance+delta < 0 {
			return fmt.Errorf("%w: team %s faab balance would go negative", roster.ErrOwnershipConflict, teamID)
		}
	}

	// Balances commit first; AdjustFAAB is atomic on its own, so a failure
	// here still leaves ownership untouched.
	if len(deltas) > 0 {
		if err := l.teams.AdjustFAAB(ctx, leagueID, deltas); err != nil {
			return fmt.Errorf("%w: %s", roster.ErrOwnershipConflict, err)
		}
	}

	now := l.now()
	for _, move := range req.Players {
		if move.ToTeamID == roster.FreeAgent {
			delete(l.ownership[leagueID], move.PlayerID)
			continue
		}
		if l.ownership[leagueID] == nil {
			l.ownership[leagueID] = make(map[string]roster.Ownership)
		}
		l.ownership[leagueID][move.PlayerID] = roster.Ownership{
			LeagueID:    leagueID,
			PlayerID:    move.PlayerID,
			TeamID:      move.ToTeamID,
			Slot:        roster.SlotActive,
			AcquiredVia: req.Via,
			AcquiredAt:  now,
		}
	}
	for _, move := range req.Picks {
		if l.picks[leagueID] == nil {
			l.picks[leagueID] = make(map[string]pickHolding)
		}
		l.picks[leagueID][move.Pick.Key()] = pickHolding{pick: move.Pick, teamID: move.ToTeamID}
	}

	return nil
}

// SetOwnership seeds or force-assigns a row outside the transfer flow.
func (l *RosterLedger) SetOwnership(o roster.Ownership) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ownership[o.LeagueID] == nil {
		l.ownership[o.LeagueID] = make(map[string]roster.Ownership)
	}
	if o.Slot == "" {
		o.Slot = roster.SlotActive
	}
	l.ownership[o.LeagueID][o.PlayerID] = o
}

// SetPick seeds or force-assigns a draft pick holding.
func (l *RosterLedger) SetPick(leagueID, teamID string, pick roster.Pick) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.picks[leagueID] == nil {
		l.picks[leagueID] = make(map[string]pickHolding)
	}
	l.picks[leagueID][pick.Key()] = pickHolding{pick: pick, teamID: teamID}
}

func (l *RosterLedger) effectiveOwner(leagueID, playerID string, staged map[string]string) (string, bool) {
	if teamID, ok := staged[playerID]; ok {
		return teamID, teamID != roster.FreeAgent
	}
	o, ok := l.ownership[leagueID][playerID]
	if !ok {
		return "", false
	}
	return o.TeamID, true
}
