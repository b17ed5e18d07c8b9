package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/astralfield/roster-engine/internal/domain/league"
	"github.com/astralfield/roster-engine/internal/domain/player"
	"github.com/astralfield/roster-engine/internal/domain/roster"
	"github.com/astralfield/roster-engine/internal/domain/waiver"
)

func TestWaiverService_SubmitClaim(t *testing.T) {
	env := newTestEnv(testSettings())
	env.addPlayer("p-fa", player.PositionRB, "", "")
	env.addPlayer("p-owned", player.PositionWR, "team-1", roster.SlotActive)
	ctx := context.Background()

	t.Run("snapshots priority at submission", func(t *testing.T) {
		claim, err := env.waivers.SubmitClaim(ctx, env.owner(3), SubmitClaimInput{
			LeagueID: testLeagueID, TeamID: "team-3", PlayerID: "p-fa", BidAmount: 10,
		})
		if err != nil {
			t.Fatalf("submit claim: %v", err)
		}
		if claim.Status != waiver.StatusPending {
			t.Fatalf("unexpected status: got=%s want=%s", claim.Status, waiver.StatusPending)
		}
		if claim.PrioritySnapshot != 3 {
			t.Fatalf("unexpected priority snapshot: got=%d want=3", claim.PrioritySnapshot)
		}
	})

	t.Run("rejects owned player", func(t *testing.T) {
		_, err := env.waivers.SubmitClaim(ctx, env.owner(2), SubmitClaimInput{
			LeagueID: testLeagueID, TeamID: "team-2", PlayerID: "p-owned", BidAmount: 5,
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("rejects bid above balance", func(t *testing.T) {
		_, err := env.waivers.SubmitClaim(ctx, env.owner(2), SubmitClaimInput{
			LeagueID: testLeagueID, TeamID: "team-2", PlayerID: "p-fa", BidAmount: 150,
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("rejects duplicate pending claim", func(t *testing.T) {
		_, err := env.waivers.SubmitClaim(ctx, env.owner(3), SubmitClaimInput{
			LeagueID: testLeagueID, TeamID: "team-3", PlayerID: "p-fa", BidAmount: 20,
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("rejects foreign team", func(t *testing.T) {
		_, err := env.waivers.SubmitClaim(ctx, env.owner(3), SubmitClaimInput{
			LeagueID: testLeagueID, TeamID: "team-2", PlayerID: "p-fa", BidAmount: 5,
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestWaiverService_CancelClaim(t *testing.T) {
	env := newTestEnv(testSettings())
	env.addPlayer("p-fa", player.PositionRB, "", "")
	ctx := context.Background()

	claim, err := env.waivers.SubmitClaim(ctx, env.owner(1), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-1", PlayerID: "p-fa", BidAmount: 5,
	})
	if err != nil {
		t.Fatalf("submit claim: %v", err)
	}

	t.Run("only the claiming owner can cancel", func(t *testing.T) {
		_, err := env.waivers.CancelClaim(ctx, env.owner(2), claim.ID)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("pending claim cancels", func(t *testing.T) {
		cancelled, err := env.waivers.CancelClaim(ctx, env.owner(1), claim.ID)
		if err != nil {
			t.Fatalf("cancel claim: %v", err)
		}
		if cancelled.Status != waiver.StatusCancelled {
			t.Fatalf("unexpected status: got=%s want=%s", cancelled.Status, waiver.StatusCancelled)
		}
	})

	t.Run("terminal claim cannot cancel again", func(t *testing.T) {
		_, err := env.waivers.CancelClaim(ctx, env.owner(1), claim.ID)
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})
}

func TestWaiverService_ProcessWaivers_PriorityThenBid(t *testing.T) {
	env := newTestEnv(testSettings())
	env.addPlayer("p-fa", player.PositionRB, "", "")
	ctx := context.Background()

	// Team 3 bids more, but team 1 holds the better priority.
	if _, err := env.waivers.SubmitClaim(ctx, env.owner(3), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-3", PlayerID: "p-fa", BidAmount: 50,
	}); err != nil {
		t.Fatalf("submit team-3 claim: %v", err)
	}
	if _, err := env.waivers.SubmitClaim(ctx, env.owner(1), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-1", PlayerID: "p-fa", BidAmount: 10,
	}); err != nil {
		t.Fatalf("submit team-1 claim: %v", err)
	}

	result, err := env.waivers.ProcessWaivers(ctx, testLeagueID)
	if err != nil {
		t.Fatalf("process waivers: %v", err)
	}
	if result.Processed != 2 || result.Successful != 1 || result.Failed != 1 {
		t.Fatalf("unexpected cycle result: %+v", result)
	}

	if owner, _ := env.ownerOf("p-fa"); owner != "team-1" {
		t.Fatalf("unexpected winner: owner=%s want=team-1", owner)
	}
	if result.Results[0].TeamID != "team-1" || result.Results[0].Status != waiver.StatusSuccessful {
		t.Fatalf("unexpected first result: %+v", result.Results[0])
	}
	if !strings.Contains(result.Results[1].FailureReason, "already awarded") {
		t.Fatalf("unexpected loser reason: %q", result.Results[1].FailureReason)
	}

	// Winner pays and drops to the back of the waiver order; the loser's
	// budget is untouched.
	winner, _, err := env.stores.Teams.GetByID(ctx, testLeagueID, "team-1")
	if err != nil {
		t.Fatalf("get winner: %v", err)
	}
	if winner.FAABBalance != 90 {
		t.Fatalf("unexpected winner balance: got=%d want=90", winner.FAABBalance)
	}
	if winner.WaiverPriority != 4 {
		t.Fatalf("winner should be demoted to last: got=%d want=4", winner.WaiverPriority)
	}
	loser, _, err := env.stores.Teams.GetByID(ctx, testLeagueID, "team-3")
	if err != nil {
		t.Fatalf("get loser: %v", err)
	}
	if loser.FAABBalance != 100 {
		t.Fatalf("loser must not pay: got=%d want=100", loser.FAABBalance)
	}
	if loser.WaiverPriority != 2 {
		t.Fatalf("teams behind the winner shift up: got=%d want=2", loser.WaiverPriority)
	}
}

func TestWaiverService_ProcessWaivers_BidOnly(t *testing.T) {
	settings := testSettings()
	settings.WaiverPolicy = league.WaiverPolicyBidOnly
	env := newTestEnv(settings)
	env.addPlayer("p-fa", player.PositionRB, "", "")
	ctx := context.Background()

	if _, err := env.waivers.SubmitClaim(ctx, env.owner(1), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-1", PlayerID: "p-fa", BidAmount: 10,
	}); err != nil {
		t.Fatalf("submit team-1 claim: %v", err)
	}
	if _, err := env.waivers.SubmitClaim(ctx, env.owner(3), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-3", PlayerID: "p-fa", BidAmount: 50,
	}); err != nil {
		t.Fatalf("submit team-3 claim: %v", err)
	}

	result, err := env.waivers.ProcessWaivers(ctx, testLeagueID)
	if err != nil {
		t.Fatalf("process waivers: %v", err)
	}
	if result.Successful != 1 {
		t.Fatalf("unexpected cycle result: %+v", result)
	}
	if owner, _ := env.ownerOf("p-fa"); owner != "team-3" {
		t.Fatalf("highest bid should win: owner=%s want=team-3", owner)
	}

	// Bid-only leagues never touch the priority order.
	winner, _, err := env.stores.Teams.GetByID(ctx, testLeagueID, "team-3")
	if err != nil {
		t.Fatalf("get winner: %v", err)
	}
	if winner.WaiverPriority != 3 {
		t.Fatalf("priority must not change: got=%d want=3", winner.WaiverPriority)
	}
}

func TestWaiverService_ProcessWaivers_TieBreaksBySubmissionTime(t *testing.T) {
	settings := testSettings()
	settings.WaiverPolicy = league.WaiverPolicyBidOnly
	env := newTestEnv(settings)
	env.addPlayer("p-fa", player.PositionRB, "", "")
	ctx := context.Background()

	if _, err := env.waivers.SubmitClaim(ctx, env.owner(2), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-2", PlayerID: "p-fa", BidAmount: 25,
	}); err != nil {
		t.Fatalf("submit team-2 claim: %v", err)
	}
	env.clock.Advance(time.Minute)
	if _, err := env.waivers.SubmitClaim(ctx, env.owner(4), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-4", PlayerID: "p-fa", BidAmount: 25,
	}); err != nil {
		t.Fatalf("submit team-4 claim: %v", err)
	}

	if _, err := env.waivers.ProcessWaivers(ctx, testLeagueID); err != nil {
		t.Fatalf("process waivers: %v", err)
	}
	if owner, _ := env.ownerOf("p-fa"); owner != "team-2" {
		t.Fatalf("earlier claim should win the tie: owner=%s want=team-2", owner)
	}
}

func TestWaiverService_ProcessWaivers_DropPlayer(t *testing.T) {
	env := newTestEnv(testSettings())
	env.addPlayer("p-fa", player.PositionRB, "", "")
	env.addPlayer("p-drop", player.PositionWR, "team-1", roster.SlotActive)
	ctx := context.Background()

	if _, err := env.waivers.SubmitClaim(ctx, env.owner(1), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-1", PlayerID: "p-fa", DropPlayerID: "p-drop", BidAmount: 5,
	}); err != nil {
		t.Fatalf("submit claim: %v", err)
	}

	result, err := env.waivers.ProcessWaivers(ctx, testLeagueID)
	if err != nil {
		t.Fatalf("process waivers: %v", err)
	}
	if result.Successful != 1 {
		t.Fatalf("unexpected cycle result: %+v", result)
	}

	if owner, _ := env.ownerOf("p-fa"); owner != "team-1" {
		t.Fatalf("claimed player not added: owner=%s", owner)
	}
	if _, owned := env.ownerOf("p-drop"); owned {
		t.Fatal("dropped player should be a free agent")
	}
}

func TestWaiverService_ProcessWaivers_RosterFull(t *testing.T) {
	settings := testSettings()
	settings.RosterLimit = 1
	env := newTestEnv(settings)
	env.addPlayer("p-fa", player.PositionRB, "", "")
	env.addPlayer("p-held", player.PositionWR, "team-1", roster.SlotActive)
	ctx := context.Background()

	if _, err := env.waivers.SubmitClaim(ctx, env.owner(1), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-1", PlayerID: "p-fa", BidAmount: 5,
	}); err != nil {
		t.Fatalf("submit claim: %v", err)
	}

	result, err := env.waivers.ProcessWaivers(ctx, testLeagueID)
	if err != nil {
		t.Fatalf("process waivers: %v", err)
	}
	if result.Failed != 1 {
		t.Fatalf("unexpected cycle result: %+v", result)
	}
	if !strings.Contains(result.Results[0].FailureReason, "roster is full") {
		t.Fatalf("unexpected failure reason: %q", result.Results[0].FailureReason)
	}

	// A failed claim must not spend FAAB.
	team1, _, err := env.stores.Teams.GetByID(ctx, testLeagueID, "team-1")
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if team1.FAABBalance != 100 {
		t.Fatalf("failed claim spent faab: got=%d want=100", team1.FAABBalance)
	}
}

func TestWaiverService_ProcessWaivers_ClaimsAreTerminalAfterCycle(t *testing.T) {
	env := newTestEnv(testSettings())
	env.addPlayer("p-fa", player.PositionRB, "", "")
	ctx := context.Background()

	claim, err := env.waivers.SubmitClaim(ctx, env.owner(1), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-1", PlayerID: "p-fa", BidAmount: 5,
	})
	if err != nil {
		t.Fatalf("submit claim: %v", err)
	}

	if _, err := env.waivers.ProcessWaivers(ctx, testLeagueID); err != nil {
		t.Fatalf("process waivers: %v", err)
	}

	got, found, err := env.stores.Waivers.GetByID(ctx, claim.ID)
	if err != nil || !found {
		t.Fatalf("get claim: found=%v err=%v", found, err)
	}
	if !got.Status.Terminal() || got.ProcessedAt == nil {
		t.Fatalf("claim should be terminal with a processed stamp: %+v", got)
	}

	// A second cycle has nothing left to do.
	rerun, err := env.waivers.ProcessWaivers(ctx, testLeagueID)
	if err != nil {
		t.Fatalf("rerun cycle: %v", err)
	}
	if rerun.Processed != 0 {
		t.Fatalf("rerun should process nothing: %+v", rerun)
	}
}

func TestWaiverService_ProcessWaivers_BidEqualToBalanceDrainsToZero(t *testing.T) {
	settings := testSettings()
	settings.FAABBudget = 50
	env := newTestEnv(settings)
	env.addPlayer("p-fa", player.PositionRB, "", "")
	ctx := context.Background()

	// A bid of the whole budget is legal; only balance+1 is over the line.
	if _, err := env.waivers.SubmitClaim(ctx, env.owner(1), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-1", PlayerID: "p-fa", BidAmount: 51,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bid above balance, got %v", err)
	}
	if _, err := env.waivers.SubmitClaim(ctx, env.owner(1), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-1", PlayerID: "p-fa", BidAmount: 50,
	}); err != nil {
		t.Fatalf("submit claim at exact balance: %v", err)
	}

	result, err := env.waivers.ProcessWaivers(ctx, testLeagueID)
	if err != nil {
		t.Fatalf("process waivers: %v", err)
	}
	if result.Successful != 1 {
		t.Fatalf("unexpected cycle result: %+v", result)
	}
	if owner, _ := env.ownerOf("p-fa"); owner != "team-1" {
		t.Fatalf("exact-balance bid should win: owner=%s", owner)
	}

	winner, _, err := env.stores.Teams.GetByID(ctx, testLeagueID, "team-1")
	if err != nil {
		t.Fatalf("get winner: %v", err)
	}
	if winner.FAABBalance != 0 {
		t.Fatalf("budget should drain to zero: got=%d", winner.FAABBalance)
	}
}

func TestWaiverService_ProcessWaivers_EarlierClaimDrainsBudget(t *testing.T) {
	env := newTestEnv(testSettings())
	env.addPlayer("p-one", player.PositionRB, "", "")
	env.addPlayer("p-two", player.PositionWR, "", "")
	ctx := context.Background()

	// Both bids clear the submit-time check against the full budget, but
	// the first award leaves too little for the second.
	if _, err := env.waivers.SubmitClaim(ctx, env.owner(1), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-1", PlayerID: "p-one", BidAmount: 80,
	}); err != nil {
		t.Fatalf("submit first claim: %v", err)
	}
	env.clock.Advance(time.Minute)
	if _, err := env.waivers.SubmitClaim(ctx, env.owner(1), SubmitClaimInput{
		LeagueID: testLeagueID, TeamID: "team-1", PlayerID: "p-two", BidAmount: 30,
	}); err != nil {
		t.Fatalf("submit second claim: %v", err)
	}

	result, err := env.waivers.ProcessWaivers(ctx, testLeagueID)
	if err != nil {
		t.Fatalf("process waivers: %v", err)
	}
	if result.Processed != 2 || result.Successful != 1 || result.Failed != 1 {
		t.Fatalf("unexpected cycle result: %+v", result)
	}
	if !strings.Contains(result.Results[1].FailureReason, "exceeds FAAB balance") {
		t.Fatalf("unexpected failure reason: %q", result.Results[1].FailureReason)
	}

	if owner, _ := env.ownerOf("p-one"); owner != "team-1" {
		t.Fatalf("first claim should land: owner=%s", owner)
	}
	if _, owned := env.ownerOf("p-two"); owned {
		t.Fatal("second claim must not land with a drained budget")
	}
	team1, _, err := env.stores.Teams.GetByID(ctx, testLeagueID, "team-1")
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if team1.FAABBalance != 20 {
		t.Fatalf("only the winning bid is charged: got=%d want=20", team1.FAABBalance)
	}
}
