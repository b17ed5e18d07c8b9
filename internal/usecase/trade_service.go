package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/astralfield/roster-engine/internal/domain/audit"
	"github.com/astralfield/roster-engine/internal/domain/league"
	"github.com/astralfield/roster-engine/internal/domain/roster"
	"github.com/astralfield/roster-engine/internal/domain/team"
	"github.com/astralfield/roster-engine/internal/domain/trade"
	"github.com/astralfield/roster-engine/internal/domain/user"
	"github.com/astralfield/roster-engine/internal/platform/id"
	"github.com/astralfield/roster-engine/internal/platform/locking"
	"github.com/astralfield/roster-engine/internal/platform/logging"
)

const transferViaTrade = "trade"

// TradeService coordinates trade negotiation from proposal to execution.
// All ledger mutations for a league run under that league's lock, so at
// most one trade or waiver cycle commits at a time per league.
type TradeService struct {
	leagues   league.Repository
	teams     team.Repository
	trades    trade.Repository
	audits    audit.Repository
	ledger    roster.Ledger
	validator TradeValidator
	publisher EventPublisher
	idGen     id.Generator
	locks     *locking.KeyedMutex
	logger    *logging.Logger
	now       func() time.Time
}

func NewTradeService(
	leagues league.Repository,
	teams team.Repository,
	trades trade.Repository,
	audits audit.Repository,
	ledger roster.Ledger,
	validator TradeValidator,
	publisher EventPublisher,
	idGen id.Generator,
	locks *locking.KeyedMutex,
	logger *logging.Logger,
	now func() time.Time,
) *TradeService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if now == nil {
		now = time.Now
	}

	return &TradeService{
		leagues:   leagues,
		teams:     teams,
		trades:    trades,
		audits:    audits,
		ledger:    ledger,
		validator: validator,
		publisher: publisher,
		idGen:     idGen,
		locks:     locks,
		logger:    logger,
		now:       now,
	}
}

// TradeParticipantInput is one team's side of a proposed trade. The first
// participant in a proposal is the initiator.
type TradeParticipantInput struct {
	TeamID  string
	Give    trade.Manifest
	Receive trade.Manifest
}

type ProposeTradeInput struct {
	LeagueID     string
	Participants []TradeParticipantInput
	Message      string
}

// ProposeTrade validates a new proposal against the current ledger and
// stores it as pending. The initiator accepts implicitly; a proposal
// between a pair with an active proposal inside the cooldown window is
// rejected as a duplicate.
func (s *TradeService) ProposeTrade(ctx context.Context, actor user.Principal, input ProposeTradeInput) (trade.Proposal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TradeService.ProposeTrade")
	defer span.End()

	lg, teams, err := s.loadLeague(ctx, input.LeagueID)
	if err != nil {
		return trade.Proposal{}, err
	}
	if len(input.Participants) < trade.MinParticipants || len(input.Participants) > trade.MaxParticipants {
		return trade.Proposal{}, fmt.Errorf("%w: trade must have between %d and %d participants",
			ErrInvalidInput, trade.MinParticipants, trade.MaxParticipants)
	}

	initiator, ok := teams[input.Participants[0].TeamID]
	if !ok {
		return trade.Proposal{}, fmt.Errorf("%w: team %s is not part of league %s",
			ErrInvalidInput, input.Participants[0].TeamID, input.LeagueID)
	}
	if initiator.OwnerUserID != actor.UserID {
		return trade.Proposal{}, fmt.Errorf("%w: only the owner of team %s can initiate this trade",
			ErrUnauthorized, initiator.ID)
	}

	now := s.now()
	cutoff := now.Add(-lg.Settings.TradeCooldown)
	for _, part := range input.Participants[1:] {
		exists, err := s.trades.ExistsActiveBetween(ctx, lg.ID, initiator.ID, part.TeamID, cutoff)
		if err != nil {
			return trade.Proposal{}, fmt.Errorf("check trade cooldown: %w", err)
		}
		if exists {
			return trade.Proposal{}, fmt.Errorf("%w: an active proposal between %s and %s already exists",
				ErrConflict, initiator.ID, part.TeamID)
		}
	}

	tradeID, err := s.idGen.NewID()
	if err != nil {
		return trade.Proposal{}, fmt.Errorf("generate trade id: %w", err)
	}

	proposal := trade.Proposal{
		ID:            tradeID,
		LeagueID:      lg.ID,
		Status:        trade.StatusPending,
		Message:       input.Message,
		CreatedAt:     now,
		UpdatedAt:     now,
		ExpirationAt:  now.Add(lg.Settings.TradeTTL(len(input.Participants))),
		VetoThreshold: lg.Settings.VetoThreshold,
	}
	for i, part := range input.Participants {
		p := trade.Participant{TeamID: part.TeamID, Give: part.Give, Receive: part.Receive}
		if i == 0 {
			acceptedAt := now
			p.Accepted = true
			p.AcceptedAt = &acceptedAt
		}
		proposal.Participants = append(proposal.Participants, p)
	}

	if err := s.validator.Validate(ctx, s.ledger, lg, teams, proposal); err != nil {
		return trade.Proposal{}, err
	}
	if err := s.trades.Create(ctx, proposal); err != nil {
		return trade.Proposal{}, fmt.Errorf("create trade proposal: %w", err)
	}

	s.audit(ctx, proposal, audit.ActionTradeProposed, actor.UserID, map[string]any{
		"participants": participantTeamIDs(proposal),
		"expires_at":   proposal.ExpirationAt,
	})
	s.publish(ctx, EventTradeProposed, proposal, string(trade.StatusPending), nil)
	s.logger.InfoContext(ctx, "trade proposed",
		"trade_id", proposal.ID, "league_id", lg.ID, "participants", len(proposal.Participants))

	return proposal, nil
}

// GetTradeProposal returns the proposal after settling any lapsed
// deadline: an outlived TTL expires it in place, an elapsed review
// period approves and executes it.
func (s *TradeService) GetTradeProposal(ctx context.Context, tradeID string) (trade.Proposal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TradeService.GetTradeProposal")
	defer span.End()

	proposal, _, err := s.loadProposal(ctx, tradeID)
	return proposal, err
}

type RespondToTradeInput struct {
	TradeID string
	Action  trade.ResponseAction
	// Counter carries the counter-offer manifests when Action is counter.
	// The responder becomes the counter-offer's initiator.
	Counter []TradeParticipantInput
	Message string
}

// RespondToTrade applies one participant's answer to a pending proposal.
// Accept from the final participant moves the trade to review (or executes
// it immediately when the league has no review window). Counter closes the
// original and returns the replacement proposal.
func (s *TradeService) RespondToTrade(ctx context.Context, actor user.Principal, input RespondToTradeInput) (trade.Proposal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TradeService.RespondToTrade")
	defer span.End()

	if !input.Action.Valid() {
		return trade.Proposal{}, fmt.Errorf("%w: unknown response action %q", ErrInvalidInput, input.Action)
	}

	proposal, lg, err := s.loadProposal(ctx, input.TradeID)
	if err != nil {
		return trade.Proposal{}, err
	}
	if err := respondableOrErr(proposal); err != nil {
		return trade.Proposal{}, err
	}

	s.locks.Lock(leagueLockKey(lg.ID))
	defer s.locks.Unlock(leagueLockKey(lg.ID))

	// Re-read under the lock: a concurrent response, veto, or sweep pass
	// can transition the proposal between the unlocked load and here.
	proposal, err = s.refetchProposal(ctx, input.TradeID)
	if err != nil {
		return trade.Proposal{}, err
	}
	if proposal.ExpiredAt(s.now()) {
		if err := s.expireProposal(ctx, proposal); err != nil {
			return trade.Proposal{}, err
		}
		return trade.Proposal{}, fmt.Errorf("%w: trade %s has expired", ErrExpired, proposal.ID)
	}
	if err := respondableOrErr(proposal); err != nil {
		return trade.Proposal{}, err
	}

	teams, err := s.teamsByID(ctx, lg.ID)
	if err != nil {
		return trade.Proposal{}, err
	}
	responder, err := s.respondingTeam(proposal, teams, actor)
	if err != nil {
		return trade.Proposal{}, err
	}

	switch input.Action {
	case trade.ActionReject:
		return s.rejectTrade(ctx, proposal, responder, actor)
	case trade.ActionCounter:
		return s.counterTrade(ctx, proposal, lg, teams, responder, actor, input)
	default:
		return s.acceptTrade(ctx, proposal, lg, responder, actor)
	}
}

func (s *TradeService) rejectTrade(ctx context.Context, proposal trade.Proposal, responder team.Team, actor user.Principal) (trade.Proposal, error) {
	now := s.now()
	proposal.Status = trade.StatusRejected
	proposal.UpdatedAt = now
	proposal.ProcessedAt = &now
	if err := s.trades.Update(ctx, proposal); err != nil {
		return trade.Proposal{}, fmt.Errorf("update trade proposal: %w", err)
	}

	s.audit(ctx, proposal, audit.ActionTradeRejected, actor.UserID, map[string]any{"team_id": responder.ID})
	s.publish(ctx, EventTradeResponded, proposal, string(trade.StatusRejected), nil)

	return proposal, nil
}

func (s *TradeService) counterTrade(
	ctx context.Context,
	proposal trade.Proposal,
	lg league.League,
	teams map[string]team.Team,
	responder team.Team,
	actor user.Principal,
	input RespondToTradeInput,
) (trade.Proposal, error) {
	if len(input.Counter) == 0 {
		return trade.Proposal{}, fmt.Errorf("%w: a counter-offer requires participants", ErrInvalidInput)
	}
	if input.Counter[0].TeamID != responder.ID {
		return trade.Proposal{}, fmt.Errorf("%w: the counter-offer must be initiated by team %s",
			ErrInvalidInput, responder.ID)
	}

	counterID, err := s.idGen.NewID()
	if err != nil {
		return trade.Proposal{}, fmt.Errorf("generate trade id: %w", err)
	}

	now := s.now()
	counter := trade.Proposal{
		ID:            counterID,
		LeagueID:      lg.ID,
		Status:        trade.StatusPending,
		Message:       input.Message,
		CreatedAt:     now,
		UpdatedAt:     now,
		ExpirationAt:  now.Add(lg.Settings.TradeTTL(len(input.Counter))),
		VetoThreshold: lg.Settings.VetoThreshold,
	}
	for i, part := range input.Counter {
		p := trade.Participant{TeamID: part.TeamID, Give: part.Give, Receive: part.Receive}
		if i == 0 {
			acceptedAt := now
			p.Accepted = true
			p.AcceptedAt = &acceptedAt
		}
		counter.Participants = append(counter.Participants, p)
	}
	if err := s.validator.Validate(ctx, s.ledger, lg, teams, counter); err != nil {
		return trade.Proposal{}, err
	}

	proposal.Status = trade.StatusCountered
	proposal.SupersededBy = counter.ID
	proposal.UpdatedAt = now
	proposal.ProcessedAt = &now
	if err := s.trades.Update(ctx, proposal); err != nil {
		return trade.Proposal{}, fmt.Errorf("update countered proposal: %w", err)
	}
	if err := s.trades.Create(ctx, counter); err != nil {
		return trade.Proposal{}, fmt.Errorf("create counter proposal: %w", err)
	}

	s.audit(ctx, proposal, audit.ActionTradeCountered, actor.UserID, map[string]any{
		"team_id":       responder.ID,
		"superseded_by": counter.ID,
	})
	s.audit(ctx, counter, audit.ActionTradeProposed, actor.UserID, map[string]any{
		"participants": participantTeamIDs(counter),
		"expires_at":   counter.ExpirationAt,
	})
	s.publish(ctx, EventTradeResponded, proposal, string(trade.StatusCountered), map[string]any{"superseded_by": counter.ID})
	s.publish(ctx, EventTradeProposed, counter, string(trade.StatusPending), nil)

	return counter, nil
}

func (s *TradeService) acceptTrade(
	ctx context.Context,
	proposal trade.Proposal,
	lg league.League,
	responder team.Team,
	actor user.Principal,
) (trade.Proposal, error) {
	now := s.now()
	for i := range proposal.Participants {
		if proposal.Participants[i].TeamID != responder.ID {
			continue
		}
		if proposal.Participants[i].Accepted {
			return trade.Proposal{}, fmt.Errorf("%w: team %s has already accepted trade %s",
				ErrConflict, responder.ID, proposal.ID)
		}
		acceptedAt := now
		proposal.Participants[i].Accepted = true
		proposal.Participants[i].AcceptedAt = &acceptedAt
	}
	proposal.UpdatedAt = now

	s.audit(ctx, proposal, audit.ActionTradeAccepted, actor.UserID, map[string]any{"team_id": responder.ID})

	if !proposal.AllAccepted() {
		if err := s.trades.Update(ctx, proposal); err != nil {
			return trade.Proposal{}, fmt.Errorf("update trade proposal: %w", err)
		}
		s.publish(ctx, EventTradeResponded, proposal, string(trade.StatusPending), map[string]any{"accepted_by": responder.ID})
		return proposal, nil
	}

	if lg.Settings.ReviewWindow > 0 {
		reviewEnds := now.Add(lg.Settings.ReviewWindow)
		proposal.Status = trade.StatusReviewPeriod
		proposal.ReviewPeriodEnds = &reviewEnds
		if err := s.trades.Update(ctx, proposal); err != nil {
			return trade.Proposal{}, fmt.Errorf("update trade proposal: %w", err)
		}
		s.publish(ctx, EventTradeResponded, proposal, string(trade.StatusReviewPeriod), map[string]any{"review_ends": reviewEnds})
		return proposal, nil
	}

	proposal.Status = trade.StatusAccepted
	if err := s.trades.Update(ctx, proposal); err != nil {
		return trade.Proposal{}, fmt.Errorf("update trade proposal: %w", err)
	}

	return s.settleApproved(ctx, proposal, lg)
}

// CastVeto records one non-participant team's veto vote on a trade in its
// review period. Reaching the league threshold vetoes the trade outright.
func (s *TradeService) CastVeto(ctx context.Context, actor user.Principal, tradeID string) (trade.Proposal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TradeService.CastVeto")
	defer span.End()

	proposal, lg, err := s.loadProposal(ctx, tradeID)
	if err != nil {
		return trade.Proposal{}, err
	}
	if proposal.Status != trade.StatusReviewPeriod {
		return trade.Proposal{}, fmt.Errorf("%w: trade %s is %s, vetoes are only accepted during review",
			ErrConflict, proposal.ID, proposal.Status)
	}

	teams, err := s.teamsByID(ctx, lg.ID)
	if err != nil {
		return trade.Proposal{}, err
	}
	voter, ok := teamOwnedBy(teams, actor.UserID)
	if !ok {
		return trade.Proposal{}, fmt.Errorf("%w: user %s owns no team in league %s", ErrUnauthorized, actor.UserID, lg.ID)
	}
	if _, participant := proposal.Participant(voter.ID); participant {
		return trade.Proposal{}, fmt.Errorf("%w: trade participants cannot veto their own trade", ErrInvalidInput)
	}
	if proposal.HasVetoed(voter.ID) {
		return trade.Proposal{}, fmt.Errorf("%w: team %s has already vetoed trade %s", ErrConflict, voter.ID, proposal.ID)
	}

	s.locks.Lock(leagueLockKey(lg.ID))
	defer s.locks.Unlock(leagueLockKey(lg.ID))

	// Re-read under the lock so a veto cast concurrently with this one is
	// not lost to a stale whole-row update.
	proposal, err = s.refetchProposal(ctx, tradeID)
	if err != nil {
		return trade.Proposal{}, err
	}
	if proposal.Status != trade.StatusReviewPeriod {
		return trade.Proposal{}, fmt.Errorf("%w: trade %s is %s, vetoes are only accepted during review",
			ErrConflict, proposal.ID, proposal.Status)
	}
	if proposal.HasVetoed(voter.ID) {
		return trade.Proposal{}, fmt.Errorf("%w: team %s has already vetoed trade %s", ErrConflict, voter.ID, proposal.ID)
	}

	now := s.now()
	proposal.VetoVoters = append(proposal.VetoVoters, voter.ID)
	proposal.VetoVotes = len(proposal.VetoVoters)
	proposal.UpdatedAt = now

	s.audit(ctx, proposal, audit.ActionTradeVetoVote, actor.UserID, map[string]any{
		"team_id": voter.ID,
		"votes":   proposal.VetoVotes,
	})

	if proposal.VetoThreshold > 0 && proposal.VetoVotes >= proposal.VetoThreshold {
		proposal.Status = trade.StatusVetoed
		proposal.ProcessedAt = &now
		if err := s.trades.Update(ctx, proposal); err != nil {
			return trade.Proposal{}, fmt.Errorf("update trade proposal: %w", err)
		}
		s.audit(ctx, proposal, audit.ActionTradeVetoed, actor.UserID, map[string]any{"votes": proposal.VetoVotes})
		s.publish(ctx, EventTradeVetoed, proposal, string(trade.StatusVetoed), map[string]any{"votes": proposal.VetoVotes})
		s.logger.InfoContext(ctx, "trade vetoed",
			"trade_id", proposal.ID, "league_id", lg.ID, "votes", proposal.VetoVotes)
		return proposal, nil
	}

	if err := s.trades.Update(ctx, proposal); err != nil {
		return trade.Proposal{}, fmt.Errorf("update trade proposal: %w", err)
	}

	return proposal, nil
}

// ResolveReviewPeriods executes every trade in the league whose review
// period has elapsed without reaching the veto threshold. It returns the
// number of trades it settled.
func (s *TradeService) ResolveReviewPeriods(ctx context.Context, leagueID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TradeService.ResolveReviewPeriods")
	defer span.End()

	lg, _, err := s.loadLeague(ctx, leagueID)
	if err != nil {
		return 0, err
	}
	active, err := s.trades.ListActiveByLeague(ctx, leagueID)
	if err != nil {
		return 0, fmt.Errorf("list active trades: %w", err)
	}

	now := s.now()
	resolved := 0
	for _, proposal := range active {
		if proposal.Status != trade.StatusReviewPeriod {
			continue
		}
		if proposal.ReviewPeriodEnds == nil || now.Before(*proposal.ReviewPeriodEnds) {
			continue
		}
		if _, err := s.executeApproved(ctx, proposal, lg); err != nil {
			return resolved, err
		}
		resolved++
	}

	return resolved, nil
}

// ExpireTrades marks every active trade in the league that outlived its
// TTL as expired. It returns the number of trades expired.
func (s *TradeService) ExpireTrades(ctx context.Context, leagueID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TradeService.ExpireTrades")
	defer span.End()

	active, err := s.trades.ListActiveByLeague(ctx, leagueID)
	if err != nil {
		return 0, fmt.Errorf("list active trades: %w", err)
	}

	expired := 0
	for _, proposal := range active {
		if !proposal.ExpiredAt(s.now()) {
			continue
		}
		if err := s.expireProposal(ctx, proposal); err != nil {
			return expired, err
		}
		expired++
	}

	return expired, nil
}

// ListTransactions returns the league's audit trail, newest first.
func (s *TradeService) ListTransactions(ctx context.Context, leagueID string, limit int) ([]audit.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TradeService.ListTransactions")
	defer span.End()

	if _, _, err := s.loadLeague(ctx, leagueID); err != nil {
		return nil, err
	}
	entries, err := s.audits.ListByLeague(ctx, leagueID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	return entries, nil
}

// executeApproved settles an all-accepted trade: it re-validates against
// the current ledger under the league lock and commits the transfer. A
// stale ownership precondition is retried once before the trade fails.
func (s *TradeService) executeApproved(ctx context.Context, proposal trade.Proposal, lg league.League) (trade.Proposal, error) {
	s.locks.Lock(leagueLockKey(lg.ID))
	defer s.locks.Unlock(leagueLockKey(lg.ID))

	return s.settleApproved(ctx, proposal, lg)
}

// settleApproved runs the execution itself. The caller must hold the
// league lock. The proposal is re-read first: two callers can observe the
// same elapsed review period before either acquires the lock, and a trade
// that was settled while this caller waited must come back unchanged, not
// execute again.
func (s *TradeService) settleApproved(ctx context.Context, stale trade.Proposal, lg league.League) (trade.Proposal, error) {
	proposal, err := s.refetchProposal(ctx, stale.ID)
	if err != nil {
		return trade.Proposal{}, err
	}
	switch proposal.Status {
	case trade.StatusAccepted, trade.StatusReviewPeriod, trade.StatusApproved:
	default:
		return proposal, nil
	}

	now := s.now()
	proposal.Status = trade.StatusApproved
	proposal.UpdatedAt = now
	if err := s.trades.Update(ctx, proposal); err != nil {
		return trade.Proposal{}, fmt.Errorf("update trade proposal: %w", err)
	}
	s.audit(ctx, proposal, audit.ActionTradeApproved, "", nil)

	req, err := transferRequestFor(proposal)
	if err != nil {
		return s.failTrade(ctx, proposal, err.Error())
	}
	req.Via = transferViaTrade

	teams, err := s.teamsByID(ctx, lg.ID)
	if err != nil {
		return trade.Proposal{}, err
	}

	for attempt := 0; ; attempt++ {
		if err := s.validator.Validate(ctx, s.ledger, lg, teams, proposal); err != nil {
			if errors.Is(err, ErrInvalidInput) {
				return s.failTrade(ctx, proposal, err.Error())
			}
			return trade.Proposal{}, err
		}

		err := s.ledger.Transfer(ctx, lg.ID, req)
		if err == nil {
			break
		}
		if !errors.Is(err, roster.ErrOwnershipConflict) {
			return trade.Proposal{}, fmt.Errorf("transfer trade assets: %w", err)
		}
		if attempt >= 1 {
			return s.failTrade(ctx, proposal, "roster changed during execution: "+err.Error())
		}
		s.logger.WarnContext(ctx, "trade transfer hit stale ownership, retrying once",
			"trade_id", proposal.ID, "league_id", lg.ID)
	}

	processedAt := s.now()
	proposal.Status = trade.StatusExecuted
	proposal.UpdatedAt = processedAt
	proposal.ProcessedAt = &processedAt
	if err := s.trades.Update(ctx, proposal); err != nil {
		return trade.Proposal{}, fmt.Errorf("update trade proposal: %w", err)
	}

	s.audit(ctx, proposal, audit.ActionTradeExecuted, "", map[string]any{
		"participants": participantTeamIDs(proposal),
	})
	s.publish(ctx, EventTradeExecuted, proposal, string(trade.StatusExecuted), nil)
	s.logger.InfoContext(ctx, "trade executed", "trade_id", proposal.ID, "league_id", lg.ID)

	return proposal, nil
}

func (s *TradeService) failTrade(ctx context.Context, proposal trade.Proposal, reason string) (trade.Proposal, error) {
	now := s.now()
	proposal.Status = trade.StatusFailed
	proposal.FailureReason = reason
	proposal.UpdatedAt = now
	proposal.ProcessedAt = &now
	if err := s.trades.Update(ctx, proposal); err != nil {
		return trade.Proposal{}, fmt.Errorf("update failed proposal: %w", err)
	}

	s.audit(ctx, proposal, audit.ActionTradeFailed, "", map[string]any{"reason": reason})
	s.publish(ctx, EventTradeFailed, proposal, string(trade.StatusFailed), map[string]any{"reason": reason})
	s.logger.WarnContext(ctx, "trade failed",
		"trade_id", proposal.ID, "league_id", proposal.LeagueID, "reason", reason)

	return proposal, nil
}

func (s *TradeService) expireProposal(ctx context.Context, proposal trade.Proposal) error {
	now := s.now()
	proposal.Status = trade.StatusExpired
	proposal.UpdatedAt = now
	proposal.ProcessedAt = &now
	if err := s.trades.Update(ctx, proposal); err != nil {
		return fmt.Errorf("update expired proposal: %w", err)
	}

	s.audit(ctx, proposal, audit.ActionTradeExpired, "", nil)
	s.publish(ctx, EventTradeExpired, proposal, string(trade.StatusExpired), nil)

	return nil
}

// loadProposal fetches a proposal and settles any deadline that lapsed
// while nobody was looking: expiration is applied lazily on read, and an
// elapsed review period triggers execution.
func (s *TradeService) loadProposal(ctx context.Context, tradeID string) (trade.Proposal, league.League, error) {
	proposal, err := s.refetchProposal(ctx, tradeID)
	if err != nil {
		return trade.Proposal{}, league.League{}, err
	}

	lg, _, err := s.loadLeague(ctx, proposal.LeagueID)
	if err != nil {
		return trade.Proposal{}, league.League{}, err
	}

	if proposal.ExpiredAt(s.now()) {
		if err := s.expireProposal(ctx, proposal); err != nil {
			return trade.Proposal{}, league.League{}, err
		}
		proposal.Status = trade.StatusExpired
		return proposal, lg, nil
	}

	if proposal.Status == trade.StatusReviewPeriod &&
		proposal.ReviewPeriodEnds != nil && !s.now().Before(*proposal.ReviewPeriodEnds) {
		executed, err := s.executeApproved(ctx, proposal, lg)
		if err != nil {
			return trade.Proposal{}, league.League{}, err
		}
		return executed, lg, nil
	}

	return proposal, lg, nil
}

// respondableOrErr reports whether a proposal still accepts accept, reject,
// or counter responses.
func respondableOrErr(proposal trade.Proposal) error {
	if proposal.Status == trade.StatusPending {
		return nil
	}
	if proposal.Status == trade.StatusExpired {
		return fmt.Errorf("%w: trade %s has expired", ErrExpired, proposal.ID)
	}
	return fmt.Errorf("%w: trade %s is %s and no longer accepts responses",
		ErrConflict, proposal.ID, proposal.Status)
}

func (s *TradeService) refetchProposal(ctx context.Context, tradeID string) (trade.Proposal, error) {
	proposal, found, err := s.trades.GetByID(ctx, tradeID)
	if err != nil {
		return trade.Proposal{}, fmt.Errorf("get trade proposal: %w", err)
	}
	if !found {
		return trade.Proposal{}, fmt.Errorf("%w: trade %s", ErrNotFound, tradeID)
	}

	return proposal, nil
}

func (s *TradeService) loadLeague(ctx context.Context, leagueID string) (league.League, map[string]team.Team, error) {
	lg, found, err := s.leagues.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, nil, fmt.Errorf("get league: %w", err)
	}
	if !found {
		return league.League{}, nil, fmt.Errorf("%w: league %s", ErrNotFound, leagueID)
	}

	teams, err := s.teamsByID(ctx, leagueID)
	if err != nil {
		return league.League{}, nil, err
	}

	return lg, teams, nil
}

func (s *TradeService) teamsByID(ctx context.Context, leagueID string) (map[string]team.Team, error) {
	list, err := s.teams.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	byID := make(map[string]team.Team, len(list))
	for _, t := range list {
		byID[t.ID] = t
	}

	return byID, nil
}

// respondingTeam resolves which non-initiator participant the actor speaks
// for.
func (s *TradeService) respondingTeam(proposal trade.Proposal, teams map[string]team.Team, actor user.Principal) (team.Team, error) {
	for _, part := range proposal.Participants[1:] {
		t, ok := teams[part.TeamID]
		if !ok {
			continue
		}
		if t.OwnerUserID == actor.UserID {
			return t, nil
		}
	}
	if initiator, ok := teams[proposal.InitiatorTeamID()]; ok && initiator.OwnerUserID == actor.UserID {
		return team.Team{}, fmt.Errorf("%w: the initiator cannot respond to its own trade", ErrInvalidInput)
	}

	return team.Team{}, fmt.Errorf("%w: user %s is not a responding party of trade %s",
		ErrUnauthorized, actor.UserID, proposal.ID)
}

func (s *TradeService) audit(ctx context.Context, proposal trade.Proposal, action audit.Action, actorID string, detail map[string]any) {
	entryID, err := s.idGen.NewID()
	if err != nil {
		s.logger.ErrorContext(ctx, "generate audit entry id", "error", err)
		return
	}
	entry := audit.Entry{
		ID:        entryID,
		LeagueID:  proposal.LeagueID,
		SubjectID: proposal.ID,
		Action:    action,
		ActorID:   actorID,
		Detail:    detail,
		CreatedAt: s.now(),
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "append audit entry",
			"error", err, "trade_id", proposal.ID, "action", string(action))
	}
}

func (s *TradeService) publish(ctx context.Context, name string, proposal trade.Proposal, outcome string, detail map[string]any) {
	event := Event{
		Name:       name,
		LeagueID:   proposal.LeagueID,
		SubjectID:  proposal.ID,
		Outcome:    outcome,
		OccurredAt: s.now(),
		Detail:     detail,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish event", "error", err, "event", name, "subject_id", proposal.ID)
	}
}

func participantTeamIDs(proposal trade.Proposal) []string {
	ids := make([]string, 0, len(proposal.Participants))
	for _, part := range proposal.Participants {
		ids = append(ids, part.TeamID)
	}
	return ids
}

func teamOwnedBy(teams map[string]team.Team, userID string) (team.Team, bool) {
	for _, t := range teams {
		if t.OwnerUserID == userID {
			return t, true
		}
	}
	return team.Team{}, false
}

func leagueLockKey(leagueID string) string {
	return "league/" + leagueID
}
