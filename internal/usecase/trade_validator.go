package usecase

import (
	"context"
	"fmt"

	"github.com/astralfield/roster-engine/internal/domain/league"
	"github.com/astralfield/roster-engine/internal/domain/player"
	"github.com/astralfield/roster-engine/internal/domain/roster"
	"github.com/astralfield/roster-engine/internal/domain/team"
	"github.com/astralfield/roster-engine/internal/domain/trade"
)

// TradeValidator checks a proposal's manifests against a ledger snapshot.
// It is side-effect free: it never mutates, and reports the first violation
// it finds. The coordinator runs it twice per trade, once at proposal time
// and again against the current ledger right before execution.
type TradeValidator struct {
	players player.Repository
}

func NewTradeValidator(players player.Repository) TradeValidator {
	return TradeValidator{players: players}
}

func (v TradeValidator) Validate(
	ctx context.Context,
	ledger roster.Ledger,
	lg league.League,
	teams map[string]team.Team,
	proposal trade.Proposal,
) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TradeValidator.Validate")
	defer span.End()

	if err := proposal.ValidateBasic(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	if proposal.MultiTeam() {
		for _, part := range proposal.Participants {
			if part.Give.AssetCount() == 0 {
				return fmt.Errorf("%w: team %s must give at least one asset in a multi-team trade", ErrInvalidInput, part.TeamID)
			}
			if part.Receive.AssetCount() == 0 {
				return fmt.Errorf("%w: team %s must receive at least one asset in a multi-team trade", ErrInvalidInput, part.TeamID)
			}
		}
	}

	giverByPlayer, receiverByPlayer, err := manifestRouting(proposal)
	if err != nil {
		return err
	}

	// (a) every given player is owned by the giving team.
	for _, part := range proposal.Participants {
		for _, playerID := range part.Give.Players {
			ownerID, owned, err := ledger.OwnerOf(ctx, proposal.LeagueID, playerID)
			if err != nil {
				return fmt.Errorf("look up owner of player %s: %w", playerID, err)
			}
			if !owned || ownerID != part.TeamID {
				return fmt.Errorf("%w: player %s is not owned by team %s", ErrInvalidInput, playerID, part.TeamID)
			}
		}

		heldPicks, err := ledger.ListPicksByTeam(ctx, proposal.LeagueID, part.TeamID)
		if err != nil {
			return fmt.Errorf("list picks for team %s: %w", part.TeamID, err)
		}
		held := make(map[string]struct{}, len(heldPicks))
		for _, pick := range heldPicks {
			held[pick.Key()] = struct{}{}
		}
		for _, pick := range part.Give.Picks {
			if _, ok := held[pick.Key()]; !ok {
				return fmt.Errorf("%w: draft pick %s is not held by team %s", ErrInvalidInput, pick.Key(), part.TeamID)
			}
		}
	}

	// (b) every requested player is given away by a counter-party, and every
	// given asset lands with exactly one receiver.
	for _, part := range proposal.Participants {
		for _, playerID := range part.Receive.Players {
			giverID, ok := giverByPlayer[playerID]
			if !ok {
				return fmt.Errorf("%w: player %s is not offered by any counter-party", ErrInvalidInput, playerID)
			}
			if giverID == part.TeamID {
				return fmt.Errorf("%w: team %s cannot receive its own player %s", ErrInvalidInput, part.TeamID, playerID)
			}
		}
	}
	for playerID := range giverByPlayer {
		if _, ok := receiverByPlayer[playerID]; !ok {
			return fmt.Errorf("%w: given player %s has no receiving team", ErrInvalidInput, playerID)
		}
	}

	// (c)+(d) post-trade roster size and per-position caps per participant.
	for _, part := range proposal.Participants {
		if err := v.checkRosterAfterTrade(ctx, ledger, lg, part); err != nil {
			return err
		}
	}

	// (e) FAAB given must be covered by the giving team's balance, and the
	// league-wide amounts must balance out.
	var faabGiven, faabReceived int64
	for _, part := range proposal.Participants {
		t, ok := teams[part.TeamID]
		if !ok {
			return fmt.Errorf("%w: team %s is not part of league %s", ErrInvalidInput, part.TeamID, proposal.LeagueID)
		}
		if part.Give.FAAB > t.FAABBalance {
			return fmt.Errorf("%w: team %s has %d FAAB but offers %d", ErrInvalidInput, part.TeamID, t.FAABBalance, part.Give.FAAB)
		}
		faabGiven += part.Give.FAAB
		faabReceived += part.Receive.FAAB
	}
	if faabGiven != faabReceived {
		return fmt.Errorf("%w: FAAB given (%d) does not match FAAB received (%d)", ErrInvalidInput, faabGiven, faabReceived)
	}

	// (f) trade deadline.
	if lg.Settings.TradeDeadlineWeek > 0 && lg.CurrentWeek > lg.Settings.TradeDeadlineWeek {
		return fmt.Errorf("%w: trade deadline (week %d) has passed", ErrInvalidInput, lg.Settings.TradeDeadlineWeek)
	}

	return nil
}

func (v TradeValidator) checkRosterAfterTrade(
	ctx context.Context,
	ledger roster.Ledger,
	lg league.League,
	part trade.Participant,
) error {
	owned, err := ledger.ListByTeam(ctx, lg.ID, part.TeamID)
	if err != nil {
		return fmt.Errorf("list roster for team %s: %w", part.TeamID, err)
	}

	giving := make(map[string]struct{}, len(part.Give.Players))
	for _, playerID := range part.Give.Players {
		giving[playerID] = struct{}{}
	}

	size := len(owned) - len(part.Give.Players) + len(part.Receive.Players)
	if size > lg.Settings.RosterLimit {
		return fmt.Errorf("%w: trade would leave team %s with %d players, roster limit is %d",
			ErrInvalidInput, part.TeamID, size, lg.Settings.RosterLimit)
	}

	if len(lg.Settings.PositionCaps) == 0 {
		return nil
	}

	// Per-position caps count active-slot players only; bench and IR are
	// exempt. Incoming players land on the active roster.
	keptActive := make([]string, 0, len(owned))
	for _, o := range owned {
		if o.Slot != roster.SlotActive {
			continue
		}
		if _, gone := giving[o.PlayerID]; gone {
			continue
		}
		keptActive = append(keptActive, o.PlayerID)
	}

	countIDs := append(keptActive, part.Receive.Players...)
	players, err := v.players.GetByIDs(ctx, lg.ID, countIDs)
	if err != nil {
		return fmt.Errorf("get players for position check: %w", err)
	}
	if len(players) != len(countIDs) {
		return fmt.Errorf("%w: some trade players are missing from league=%s", ErrInvalidInput, lg.ID)
	}

	byPosition := make(map[string]int, len(lg.Settings.PositionCaps))
	for _, p := range players {
		byPosition[string(p.Position)]++
	}
	for position, count := range byPosition {
		limit, capped := lg.Settings.PositionCaps[position]
		if capped && count > limit {
			return fmt.Errorf("%w: trade would exceed %s limit (%d) for team %s", ErrInvalidInput, position, limit, part.TeamID)
		}
	}

	return nil
}

// manifestRouting maps every given player/pick to its giver and receiver,
// rejecting duplicates.
func manifestRouting(proposal trade.Proposal) (map[string]string, map[string]string, error) {
	giverByPlayer := make(map[string]string)
	receiverByPlayer := make(map[string]string)

	for _, part := range proposal.Participants {
		for _, playerID := range part.Give.Players {
			if _, dup := giverByPlayer[playerID]; dup {
				return nil, nil, fmt.Errorf("%w: player %s is given away more than once", ErrInvalidInput, playerID)
			}
			giverByPlayer[playerID] = part.TeamID
		}
		for _, playerID := range part.Receive.Players {
			if _, dup := receiverByPlayer[playerID]; dup {
				return nil, nil, fmt.Errorf("%w: player %s is received more than once", ErrInvalidInput, playerID)
			}
			receiverByPlayer[playerID] = part.TeamID
		}
	}

	return giverByPlayer, receiverByPlayer, nil
}

// transferRequestFor flattens an approved proposal into one atomic ledger
// request. FAAB credits are matched to debits in participant order.
func transferRequestFor(proposal trade.Proposal) (roster.TransferRequest, error) {
	giverByPlayer, receiverByPlayer, err := manifestRouting(proposal)
	if err != nil {
		return roster.TransferRequest{}, err
	}

	var req roster.TransferRequest
	for playerID, giverID := range giverByPlayer {
		receiverID, ok := receiverByPlayer[playerID]
		if !ok {
			return roster.TransferRequest{}, fmt.Errorf("%w: given player %s has no receiving team", ErrInvalidInput, playerID)
		}
		req.Players = append(req.Players, roster.PlayerMove{
			PlayerID:   playerID,
			FromTeamID: giverID,
			ToTeamID:   receiverID,
		})
	}

	pickReceivers := make(map[string]string)
	for _, part := range proposal.Participants {
		for _, pick := range part.Receive.Picks {
			pickReceivers[pick.Key()] = part.TeamID
		}
	}
	for _, part := range proposal.Participants {
		for _, pick := range part.Give.Picks {
			receiverID, ok := pickReceivers[pick.Key()]
			if !ok {
				return roster.TransferRequest{}, fmt.Errorf("%w: given pick %s has no receiving team", ErrInvalidInput, pick.Key())
			}
			req.Picks = append(req.Picks, roster.PickMove{
				Pick:       pick,
				FromTeamID: part.TeamID,
				ToTeamID:   receiverID,
			})
		}
	}

	type faabLeg struct {
		teamID string
		amount int64
	}
	var debits, credits []faabLeg
	for _, part := range proposal.Participants {
		if part.Give.FAAB > 0 {
			debits = append(debits, faabLeg{teamID: part.TeamID, amount: part.Give.FAAB})
		}
		if part.Receive.FAAB > 0 {
			credits = append(credits, faabLeg{teamID: part.TeamID, amount: part.Receive.FAAB})
		}
	}
	for len(debits) > 0 && len(credits) > 0 {
		amount := debits[0].amount
		if credits[0].amount < amount {
			amount = credits[0].amount
		}
		req.FAAB = append(req.FAAB, roster.FAABMove{
			FromTeamID: debits[0].teamID,
			ToTeamID:   credits[0].teamID,
			Amount:     amount,
		})
		debits[0].amount -= amount
		credits[0].amount -= amount
		if debits[0].amount == 0 {
			debits = debits[1:]
		}
		if credits[0].amount == 0 {
			credits = credits[1:]
		}
	}
	if len(debits) > 0 || len(credits) > 0 {
		return roster.TransferRequest{}, fmt.Errorf("%w: FAAB amounts do not balance", ErrInvalidInput)
	}

	return req, nil
}
