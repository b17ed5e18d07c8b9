package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/astralfield/roster-engine/internal/domain/player"
	"github.com/astralfield/roster-engine/internal/domain/roster"
	"github.com/astralfield/roster-engine/internal/domain/trade"
	"github.com/astralfield/roster-engine/internal/platform/logging"
)

func TestSweepService_SweepOnce(t *testing.T) {
	env := newTestEnv(testSettings())
	env.addPlayer("p-a", player.PositionRB, "team-1", roster.SlotActive)
	env.addPlayer("p-b", player.PositionWR, "team-2", roster.SlotActive)
	env.addPlayer("p-c", player.PositionTE, "team-3", roster.SlotActive)
	env.addPlayer("p-d", player.PositionK, "team-4", roster.SlotActive)
	ctx := context.Background()

	// One trade will sit in review past its window, another will outlive
	// its TTL untouched.
	reviewed, err := env.trades.ProposeTrade(ctx, env.owner(1), env.twoTeamSwap())
	if err != nil {
		t.Fatalf("propose reviewed trade: %v", err)
	}
	if _, err := env.trades.RespondToTrade(ctx, env.owner(2), RespondToTradeInput{
		TradeID: reviewed.ID, Action: trade.ActionAccept,
	}); err != nil {
		t.Fatalf("accept reviewed trade: %v", err)
	}

	stale, err := env.trades.ProposeTrade(ctx, env.owner(3), ProposeTradeInput{
		LeagueID: testLeagueID,
		Participants: []TradeParticipantInput{
			{TeamID: "team-3", Give: manifestPlayers("p-c"), Receive: manifestPlayers("p-d")},
			{TeamID: "team-4", Give: manifestPlayers("p-d"), Receive: manifestPlayers("p-c")},
		},
	})
	if err != nil {
		t.Fatalf("propose stale trade: %v", err)
	}

	env.clock.Advance(env.league.Settings.StandardTradeTTL + time.Minute)

	pool, err := ants.NewPool(2)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Release()

	sweeper := NewSweepService(env.stores.Leagues, env.trades, pool, logging.NewNop())
	result, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("sweep once: %v", err)
	}

	if result.Leagues != 1 {
		t.Fatalf("unexpected league count: got=%d want=1", result.Leagues)
	}
	if result.Expired != 1 {
		t.Fatalf("unexpected expired count: got=%d want=1", result.Expired)
	}
	if result.Resolved != 1 {
		t.Fatalf("unexpected resolved count: got=%d want=1", result.Resolved)
	}

	gotReviewed, err := env.trades.GetTradeProposal(ctx, reviewed.ID)
	if err != nil {
		t.Fatalf("get reviewed trade: %v", err)
	}
	if gotReviewed.Status != trade.StatusExecuted {
		t.Fatalf("unexpected reviewed status: got=%s want=%s", gotReviewed.Status, trade.StatusExecuted)
	}

	gotStale, err := env.trades.GetTradeProposal(ctx, stale.ID)
	if err != nil {
		t.Fatalf("get stale trade: %v", err)
	}
	if gotStale.Status != trade.StatusExpired {
		t.Fatalf("unexpected stale status: got=%s want=%s", gotStale.Status, trade.StatusExpired)
	}
}
