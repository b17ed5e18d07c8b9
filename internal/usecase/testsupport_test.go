package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/astralfield/roster-engine/internal/domain/league"
	"github.com/astralfield/roster-engine/internal/domain/player"
	"github.com/astralfield/roster-engine/internal/domain/roster"
	"github.com/astralfield/roster-engine/internal/domain/team"
	"github.com/astralfield/roster-engine/internal/domain/trade"
	"github.com/astralfield/roster-engine/internal/domain/user"
	"github.com/astralfield/roster-engine/internal/infrastructure/repository/memory"
	"github.com/astralfield/roster-engine/internal/platform/locking"
	"github.com/astralfield/roster-engine/internal/platform/logging"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (g *seqIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n), nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *capturePublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) byName(name string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	matched := make([]Event, 0)
	for _, e := range p.events {
		if e.Name == name {
			matched = append(matched, e)
		}
	}
	return matched
}

const testLeagueID = "lg-test"

type testEnv struct {
	stores    *memory.Stores
	clock     *testClock
	publisher *capturePublisher
	trades    *TradeService
	waivers   *WaiverService
	rosters   *RosterService
	league    league.League
}

// newTestEnv wires the full service graph onto in-memory stores with a
// fixed clock. Four teams, owners user-1..user-4, priorities 1..4.
func newTestEnv(settings league.Settings) *testEnv {
	stores := memory.NewStores()
	clock := newTestClock(time.Date(2026, time.September, 6, 10, 0, 0, 0, time.UTC))
	publisher := &capturePublisher{}
	locks := locking.NewKeyedMutex()
	logger := logging.NewNop()
	idGen := &seqIDGenerator{prefix: "id"}
	stores.Ledger.SetNow(clock.Now)

	ctx := context.Background()
	lg := league.League{
		ID:          testLeagueID,
		Name:        "Test League",
		Season:      "2026",
		CurrentWeek: 3,
		Settings:    settings,
	}
	_ = stores.Leagues.Upsert(ctx, lg)
	for i := 1; i <= 4; i++ {
		_ = stores.Teams.Upsert(ctx, team.Team{
			ID:             fmt.Sprintf("team-%d", i),
			LeagueID:       testLeagueID,
			Name:           fmt.Sprintf("Team %d", i),
			OwnerUserID:    fmt.Sprintf("user-%d", i),
			WaiverPriority: i,
			FAABBalance:    settings.FAABBudget,
		})
	}

	validator := NewTradeValidator(stores.Players)
	trades := NewTradeService(stores.Leagues, stores.Teams, stores.Trades, stores.Audits,
		stores.Ledger, validator, publisher, idGen, locks, logger, clock.Now)
	waivers := NewWaiverService(stores.Leagues, stores.Teams, stores.Players, stores.Waivers,
		stores.Audits, stores.Ledger, publisher, idGen, locks, logger, clock.Now)
	rosters := NewRosterService(stores.Leagues, stores.Teams, stores.Ledger)

	return &testEnv{
		stores:    stores,
		clock:     clock,
		publisher: publisher,
		trades:    trades,
		waivers:   waivers,
		rosters:   rosters,
		league:    lg,
	}
}

func testSettings() league.Settings {
	s := league.DefaultSettings()
	s.VetoThreshold = 2
	return s
}

// addPlayer registers a player and optionally assigns them to a team.
func (e *testEnv) addPlayer(id string, pos player.Position, teamID string, slot roster.Slot) {
	_ = e.stores.Players.Upsert(context.Background(), player.Player{
		ID: id, LeagueID: testLeagueID, Name: "Player " + id, Position: pos,
	})
	if teamID == "" {
		return
	}
	e.stores.Ledger.SetOwnership(roster.Ownership{
		LeagueID:    testLeagueID,
		PlayerID:    id,
		TeamID:      teamID,
		Slot:        slot,
		AcquiredVia: "draft",
		AcquiredAt:  e.clock.Now(),
	})
}

func (e *testEnv) owner(n int) user.Principal {
	return user.Principal{UserID: fmt.Sprintf("user-%d", n), Name: fmt.Sprintf("User %d", n)}
}

func (e *testEnv) ownerOf(playerID string) (string, bool) {
	teamID, owned, _ := e.stores.Ledger.OwnerOf(context.Background(), testLeagueID, playerID)
	return teamID, owned
}

// twoTeamSwap is a minimal valid proposal: team-1 sends p-a for team-2's
// p-b.
func (e *testEnv) twoTeamSwap() ProposeTradeInput {
	return ProposeTradeInput{
		LeagueID: testLeagueID,
		Participants: []TradeParticipantInput{
			{TeamID: "team-1", Give: manifestPlayers("p-a"), Receive: manifestPlayers("p-b")},
			{TeamID: "team-2", Give: manifestPlayers("p-b"), Receive: manifestPlayers("p-a")},
		},
	}
}

func manifestPlayers(ids ...string) trade.Manifest {
	return trade.Manifest{Players: ids}
}
