package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/astralfield/roster-engine/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.RWMutex
	items map[string]team.Team
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{items: make(map[string]team.Team)}
}

func (r *TeamRepository) ListByLeague(_ context.Context, leagueID string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	teams := make([]team.Team, 0)
	for _, t := range r.items {
		if t.LeagueID == leagueID {
			teams = append(teams, t)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].WaiverPriority < teams[j].WaiverPriority })

	return teams, nil
}

func (r *TeamRepository) GetByID(_ context.Context, leagueID, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[teamKey(leagueID, teamID)]
	if !ok {
		return team.Team{}, false, nil
	}

	return t, true, nil
}

func (r *TeamRepository) Upsert(_ context.Context, t team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[teamKey(t.LeagueID, t.ID)] = t
	return nil
}

// DemoteToLastPriority moves the team to the back of the waiver order and
// shifts every team that sat behind it up by one, in one critical section.
func (r *TeamRepository) DemoteToLastPriority(_ context.Context, leagueID, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	demoted, ok := r.items[teamKey(leagueID, teamID)]
	if !ok {
		return fmt.Errorf("team %s not found in league %s", teamID, leagueID)
	}

	last := 0
	for key, t := range r.items {
		if t.LeagueID != leagueID {
			continue
		}
		if t.WaiverPriority > last {
			last = t.WaiverPriority
		}
		if t.WaiverPriority > demoted.WaiverPriority {
			t.WaiverPriority--
			r.items[key] = t
		}
	}

	demoted.WaiverPriority = last
	r.items[teamKey(leagueID, teamID)] = demoted
	return nil
}

// AdjustFAAB applies a set of balance deltas atomically. A delta that
// would push any balance negative rejects the whole batch.
func (r *TeamRepository) AdjustFAAB(_ context.Context, leagueID string, deltas map[string]int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := make(map[string]team.Team, len(deltas))
	for teamID, delta := range deltas {
		t, ok := r.items[teamKey(leagueID, teamID)]
		if !ok {
			return fmt.Errorf("team %s not found in league %s", teamID, leagueID)
		}
		t.FAABBalance += delta
		if t.FAABBalance < 0 {
			return fmt.Errorf("team %s faab balance would go negative", teamID)
		}
		updated[teamKey(leagueID, teamID)] = t
	}
	for key, t := range updated {
		r.items[key] = t
	}

	return nil
}

// FAABBalance reads one balance without going through GetByID, used by the
// ledger to validate budget moves.
func (r *TeamRepository) FAABBalance(leagueID, teamID string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[teamKey(leagueID, teamID)]
	if !ok {
		return 0, false
	}
	return t.FAABBalance, true
}

func teamKey(leagueID, teamID string) string {
	return leagueID + "::" + teamID
}
