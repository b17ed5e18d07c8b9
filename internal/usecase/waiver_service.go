package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/astralfield/roster-engine/internal/domain/audit"
	"github.com/astralfield/roster-engine/internal/domain/league"
	"github.com/astralfield/roster-engine/internal/domain/player"
	"github.com/astralfield/roster-engine/internal/domain/roster"
	"github.com/astralfield/roster-engine/internal/domain/team"
	"github.com/astralfield/roster-engine/internal/domain/user"
	"github.com/astralfield/roster-engine/internal/domain/waiver"
	"github.com/astralfield/roster-engine/internal/platform/id"
	"github.com/astralfield/roster-engine/internal/platform/locking"
	"github.com/astralfield/roster-engine/internal/platform/logging"
)

const transferViaWaiver = "waiver"

// WaiverService takes claim submissions and resolves them in deterministic
// batch cycles. Each claim commits individually during a cycle, so a crash
// mid-cycle leaves already resolved claims final and the rest pending.
type WaiverService struct {
	leagues   league.Repository
	teams     team.Repository
	players   player.Repository
	claims    waiver.Repository
	audits    audit.Repository
	ledger    roster.Ledger
	publisher EventPublisher
	idGen     id.Generator
	locks     *locking.KeyedMutex
	logger    *logging.Logger
	now       func() time.Time
}

func NewWaiverService(
	leagues league.Repository,
	teams team.Repository,
	players player.Repository,
	claims waiver.Repository,
	audits audit.Repository,
	ledger roster.Ledger,
	publisher EventPublisher,
	idGen id.Generator,
	locks *locking.KeyedMutex,
	logger *logging.Logger,
	now func() time.Time,
) *WaiverService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if now == nil {
		now = time.Now
	}

	return &WaiverService{
		leagues:   leagues,
		teams:     teams,
		players:   players,
		claims:    claims,
		audits:    audits,
		ledger:    ledger,
		publisher: publisher,
		idGen:     idGen,
		locks:     locks,
		logger:    logger,
		now:       now,
	}
}

type SubmitClaimInput struct {
	LeagueID     string
	TeamID       string
	PlayerID     string
	DropPlayerID string
	BidAmount    int64
}

// SubmitClaim queues a bid for a free-agent player. The team's waiver
// priority is snapshotted at submission so later roster moves cannot
// reorder an already filed claim.
func (s *WaiverService) SubmitClaim(ctx context.Context, actor user.Principal, input SubmitClaimInput) (waiver.Claim, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverService.SubmitClaim")
	defer span.End()

	lg, found, err := s.leagues.GetByID(ctx, input.LeagueID)
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("get league: %w", err)
	}
	if !found {
		return waiver.Claim{}, fmt.Errorf("%w: league %s", ErrNotFound, input.LeagueID)
	}

	t, found, err := s.teams.GetByID(ctx, lg.ID, input.TeamID)
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("get team: %w", err)
	}
	if !found {
		return waiver.Claim{}, fmt.Errorf("%w: team %s", ErrNotFound, input.TeamID)
	}
	if t.OwnerUserID != actor.UserID {
		return waiver.Claim{}, fmt.Errorf("%w: only the owner of team %s can file claims for it", ErrUnauthorized, t.ID)
	}

	if _, found, err := s.players.GetByID(ctx, lg.ID, input.PlayerID); err != nil {
		return waiver.Claim{}, fmt.Errorf("get player: %w", err)
	} else if !found {
		return waiver.Claim{}, fmt.Errorf("%w: player %s", ErrNotFound, input.PlayerID)
	}

	if input.BidAmount < 0 {
		return waiver.Claim{}, fmt.Errorf("%w: bid amount cannot be negative", ErrInvalidInput)
	}
	if input.BidAmount > t.FAABBalance {
		return waiver.Claim{}, fmt.Errorf("%w: team %s has %d FAAB but bid %d",
			ErrInvalidInput, t.ID, t.FAABBalance, input.BidAmount)
	}

	ownerID, owned, err := s.ledger.OwnerOf(ctx, lg.ID, input.PlayerID)
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("look up owner: %w", err)
	}
	if owned {
		return waiver.Claim{}, fmt.Errorf("%w: player %s is already owned by team %s",
			ErrConflict, input.PlayerID, ownerID)
	}

	if input.DropPlayerID != "" {
		dropOwner, dropOwned, err := s.ledger.OwnerOf(ctx, lg.ID, input.DropPlayerID)
		if err != nil {
			return waiver.Claim{}, fmt.Errorf("look up drop owner: %w", err)
		}
		if !dropOwned || dropOwner != t.ID {
			return waiver.Claim{}, fmt.Errorf("%w: drop player %s is not owned by team %s",
				ErrInvalidInput, input.DropPlayerID, t.ID)
		}
	}

	pending, err := s.claims.ListPendingByLeague(ctx, lg.ID)
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("list pending claims: %w", err)
	}
	for _, existing := range pending {
		if existing.TeamID == t.ID && existing.PlayerID == input.PlayerID {
			return waiver.Claim{}, fmt.Errorf("%w: team %s already has a pending claim for player %s",
				ErrConflict, t.ID, input.PlayerID)
		}
	}

	claimID, err := s.idGen.NewID()
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("generate claim id: %w", err)
	}
	claim := waiver.Claim{
		ID:               claimID,
		LeagueID:         lg.ID,
		TeamID:           t.ID,
		PlayerID:         input.PlayerID,
		DropPlayerID:     input.DropPlayerID,
		BidAmount:        input.BidAmount,
		PrioritySnapshot: t.WaiverPriority,
		Status:           waiver.StatusPending,
		CreatedAt:        s.now(),
	}
	if err := claim.ValidateBasic(); err != nil {
		return waiver.Claim{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if err := s.claims.Create(ctx, claim); err != nil {
		return waiver.Claim{}, fmt.Errorf("create claim: %w", err)
	}

	s.audit(ctx, claim, audit.ActionClaimSubmitted, actor.UserID, map[string]any{
		"player_id": claim.PlayerID,
		"bid":       claim.BidAmount,
	})
	s.publish(ctx, EventClaimSubmitted, claim, string(waiver.StatusPending), nil)
	s.logger.InfoContext(ctx, "waiver claim submitted",
		"claim_id", claim.ID, "league_id", lg.ID, "team_id", t.ID, "player_id", claim.PlayerID)

	return claim, nil
}

// CancelClaim withdraws a pending claim before its cycle runs.
func (s *WaiverService) CancelClaim(ctx context.Context, actor user.Principal, claimID string) (waiver.Claim, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverService.CancelClaim")
	defer span.End()

	claim, found, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("get claim: %w", err)
	}
	if !found {
		return waiver.Claim{}, fmt.Errorf("%w: claim %s", ErrNotFound, claimID)
	}
	if claim.Status != waiver.StatusPending {
		return waiver.Claim{}, fmt.Errorf("%w: claim %s is %s and can no longer be cancelled",
			ErrConflict, claim.ID, claim.Status)
	}

	t, found, err := s.teams.GetByID(ctx, claim.LeagueID, claim.TeamID)
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("get team: %w", err)
	}
	if !found || t.OwnerUserID != actor.UserID {
		return waiver.Claim{}, fmt.Errorf("%w: only the owner of team %s can cancel claim %s",
			ErrUnauthorized, claim.TeamID, claim.ID)
	}

	now := s.now()
	claim.Status = waiver.StatusCancelled
	claim.ProcessedAt = &now
	if err := s.claims.Update(ctx, claim); err != nil {
		return waiver.Claim{}, fmt.Errorf("update claim: %w", err)
	}

	s.audit(ctx, claim, audit.ActionClaimCancelled, actor.UserID, nil)
	s.publish(ctx, EventClaimCancelled, claim, string(waiver.StatusCancelled), nil)

	return claim, nil
}

// ClaimResult is the outcome of one claim inside a processing cycle.
type ClaimResult struct {
	ClaimID       string
	TeamID        string
	PlayerID      string
	Status        waiver.Status
	FailureReason string
}

type WaiverCycleResult struct {
	Processed  int
	Successful int
	Failed     int
	Results    []ClaimResult
}

// ProcessWaivers resolves every pending claim in the league in one
// deterministic pass. Claims are ordered by the league's waiver policy,
// each player is awarded at most once per cycle, and each claim commits
// on its own so an interrupted cycle never rewinds a finished claim.
func (s *WaiverService) ProcessWaivers(ctx context.Context, leagueID string) (WaiverCycleResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverService.ProcessWaivers")
	defer span.End()

	lg, found, err := s.leagues.GetByID(ctx, leagueID)
	if err != nil {
		return WaiverCycleResult{}, fmt.Errorf("get league: %w", err)
	}
	if !found {
		return WaiverCycleResult{}, fmt.Errorf("%w: league %s", ErrNotFound, leagueID)
	}

	s.locks.Lock(leagueLockKey(lg.ID))
	defer s.locks.Unlock(leagueLockKey(lg.ID))

	pending, err := s.claims.ListPendingByLeague(ctx, lg.ID)
	if err != nil {
		return WaiverCycleResult{}, fmt.Errorf("list pending claims: %w", err)
	}
	orderClaims(pending, lg.Settings.WaiverPolicy)

	result := WaiverCycleResult{Results: make([]ClaimResult, 0, len(pending))}
	awardedTo := make(map[string]string)

	for _, claim := range pending {
		outcome, err := s.resolveClaim(ctx, lg, claim, awardedTo)
		if err != nil {
			return result, err
		}
		result.Processed++
		if outcome.Status == waiver.StatusSuccessful {
			result.Successful++
			awardedTo[claim.PlayerID] = claim.TeamID
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, outcome)
	}

	s.logger.InfoContext(ctx, "waiver cycle complete",
		"league_id", lg.ID, "processed", result.Processed,
		"successful", result.Successful, "failed", result.Failed)

	return result, nil
}

// resolveClaim settles one claim and durably commits its outcome before
// returning. Only a storage error propagates; every rule violation lands
// on the claim as a failure reason.
func (s *WaiverService) resolveClaim(ctx context.Context, lg league.League, claim waiver.Claim, awardedTo map[string]string) (ClaimResult, error) {
	if winner, taken := awardedTo[claim.PlayerID]; taken {
		return s.failClaim(ctx, claim, fmt.Sprintf("player already awarded to team %s this cycle", winner))
	}

	ownerID, owned, err := s.ledger.OwnerOf(ctx, lg.ID, claim.PlayerID)
	if err != nil {
		return ClaimResult{}, fmt.Errorf("look up owner: %w", err)
	}
	if owned {
		return s.failClaim(ctx, claim, fmt.Sprintf("player is owned by team %s", ownerID))
	}

	t, found, err := s.teams.GetByID(ctx, lg.ID, claim.TeamID)
	if err != nil {
		return ClaimResult{}, fmt.Errorf("get team: %w", err)
	}
	if !found {
		return s.failClaim(ctx, claim, "claiming team no longer exists")
	}
	if claim.BidAmount > t.FAABBalance {
		return s.failClaim(ctx, claim, fmt.Sprintf("bid %d exceeds FAAB balance %d", claim.BidAmount, t.FAABBalance))
	}

	dropping := claim.DropPlayerID != ""
	if dropping {
		dropOwner, dropOwned, err := s.ledger.OwnerOf(ctx, lg.ID, claim.DropPlayerID)
		if err != nil {
			return ClaimResult{}, fmt.Errorf("look up drop owner: %w", err)
		}
		if !dropOwned || dropOwner != t.ID {
			return s.failClaim(ctx, claim, fmt.Sprintf("drop player %s is not on the roster", claim.DropPlayerID))
		}
	}

	rosterRows, err := s.ledger.ListByTeam(ctx, lg.ID, t.ID)
	if err != nil {
		return ClaimResult{}, fmt.Errorf("list roster: %w", err)
	}
	size := len(rosterRows) + 1
	if dropping {
		size--
	}
	if size > lg.Settings.RosterLimit {
		return s.failClaim(ctx, claim, fmt.Sprintf("roster is full (%d/%d)", len(rosterRows), lg.Settings.RosterLimit))
	}

	req := roster.TransferRequest{
		Via: transferViaWaiver,
		Players: []roster.PlayerMove{
			{PlayerID: claim.PlayerID, FromTeamID: roster.FreeAgent, ToTeamID: t.ID},
		},
	}
	if dropping {
		req.Players = append(req.Players, roster.PlayerMove{
			PlayerID: claim.DropPlayerID, FromTeamID: t.ID, ToTeamID: roster.FreeAgent,
		})
	}
	// FAAB is spent only when the claim lands.
	if claim.BidAmount > 0 {
		req.FAAB = []roster.FAABMove{{FromTeamID: t.ID, Amount: claim.BidAmount}}
	}

	if err := s.ledger.Transfer(ctx, lg.ID, req); err != nil {
		if errors.Is(err, roster.ErrOwnershipConflict) {
			return s.failClaim(ctx, claim, "roster changed during resolution: "+err.Error())
		}
		return ClaimResult{}, fmt.Errorf("transfer claim assets: %w", err)
	}

	if lg.Settings.WaiverPolicy == league.WaiverPolicyPriorityThenBid {
		if err := s.teams.DemoteToLastPriority(ctx, lg.ID, t.ID); err != nil {
			return ClaimResult{}, fmt.Errorf("demote waiver priority: %w", err)
		}
	}

	now := s.now()
	claim.Status = waiver.StatusSuccessful
	claim.ProcessedAt = &now
	if err := s.claims.Update(ctx, claim); err != nil {
		return ClaimResult{}, fmt.Errorf("update claim: %w", err)
	}

	s.audit(ctx, claim, audit.ActionClaimResolved, "", map[string]any{
		"outcome": string(waiver.StatusSuccessful),
		"bid":     claim.BidAmount,
	})
	s.publish(ctx, EventClaimResolved, claim, string(waiver.StatusSuccessful), map[string]any{"bid": claim.BidAmount})

	return ClaimResult{
		ClaimID:  claim.ID,
		TeamID:   claim.TeamID,
		PlayerID: claim.PlayerID,
		Status:   waiver.StatusSuccessful,
	}, nil
}

func (s *WaiverService) failClaim(ctx context.Context, claim waiver.Claim, reason string) (ClaimResult, error) {
	now := s.now()
	claim.Status = waiver.StatusFailed
	claim.FailureReason = reason
	claim.ProcessedAt = &now
	if err := s.claims.Update(ctx, claim); err != nil {
		return ClaimResult{}, fmt.Errorf("update claim: %w", err)
	}

	s.audit(ctx, claim, audit.ActionClaimResolved, "", map[string]any{
		"outcome": string(waiver.StatusFailed),
		"reason":  reason,
	})
	s.publish(ctx, EventClaimResolved, claim, string(waiver.StatusFailed), map[string]any{"reason": reason})

	return ClaimResult{
		ClaimID:       claim.ID,
		TeamID:        claim.TeamID,
		PlayerID:      claim.PlayerID,
		Status:        waiver.StatusFailed,
		FailureReason: reason,
	}, nil
}

// orderClaims sorts claims into their deterministic resolution order.
// Ties always fall back to submission time, then claim id, so two runs
// over the same pending set resolve identically.
func orderClaims(claims []waiver.Claim, policy league.WaiverPolicy) {
	sort.SliceStable(claims, func(i, j int) bool {
		a, b := claims[i], claims[j]
		if policy == league.WaiverPolicyPriorityThenBid {
			if a.PrioritySnapshot != b.PrioritySnapshot {
				return a.PrioritySnapshot < b.PrioritySnapshot
			}
		}
		if a.BidAmount != b.BidAmount {
			return a.BidAmount > b.BidAmount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (s *WaiverService) audit(ctx context.Context, claim waiver.Claim, action audit.Action, actorID string, detail map[string]any) {
	entryID, err := s.idGen.NewID()
	if err != nil {
		s.logger.ErrorContext(ctx, "generate audit entry id", "error", err)
		return
	}
	entry := audit.Entry{
		ID:        entryID,
		LeagueID:  claim.LeagueID,
		SubjectID: claim.ID,
		Action:    action,
		ActorID:   actorID,
		Detail:    detail,
		CreatedAt: s.now(),
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "append audit entry",
			"error", err, "claim_id", claim.ID, "action", string(action))
	}
}

func (s *WaiverService) publish(ctx context.Context, name string, claim waiver.Claim, outcome string, detail map[string]any) {
	event := Event{
		Name:       name,
		LeagueID:   claim.LeagueID,
		SubjectID:  claim.ID,
		Outcome:    outcome,
		OccurredAt: s.now(),
		Detail:     detail,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish event", "error", err, "event", name, "subject_id", claim.ID)
	}
}
