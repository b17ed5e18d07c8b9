package httpapi

import (
	"time"

	"github.com/astralfield/roster-engine/internal/domain/audit"
	"github.com/astralfield/roster-engine/internal/domain/roster"
	"github.com/astralfield/roster-engine/internal/domain/team"
	"github.com/astralfield/roster-engine/internal/domain/trade"
	"github.com/astralfield/roster-engine/internal/domain/waiver"
	"github.com/astralfield/roster-engine/internal/usecase"
)

type manifestRequest struct {
	Players []string      `json:"players" validate:"omitempty,dive,required"`
	Picks   []pickRequest `json:"picks" validate:"omitempty,dive"`
	FAAB    int64         `json:"faab" validate:"gte=0"`
}

type pickRequest struct {
	Year           int    `json:"year" validate:"required,gt=0"`
	Round          int    `json:"round" validate:"required,gt=0"`
	OriginalTeamID string `json:"original_team_id" validate:"required"`
	Conditional    bool   `json:"conditional"`
}

type tradeParticipantRequest struct {
	TeamID  string          `json:"team_id" validate:"required"`
	Give    manifestRequest `json:"give"`
	Receive manifestRequest `json:"receive"`
}

type proposeTradeRequest struct {
	Participants []tradeParticipantRequest `json:"participants" validate:"required,min=2,max=4,dive"`
	Message      string                    `json:"message" validate:"omitempty,max=500"`
}

type respondTradeRequest struct {
	Action  string                    `json:"action" validate:"required,oneof=accept reject counter"`
	Counter []tradeParticipantRequest `json:"counter" validate:"omitempty,min=2,max=4,dive"`
	Message string                    `json:"message" validate:"omitempty,max=500"`
}

type submitClaimRequest struct {
	TeamID       string `json:"team_id" validate:"required"`
	PlayerID     string `json:"player_id" validate:"required"`
	DropPlayerID string `json:"drop_player_id"`
	BidAmount    int64  `json:"bid_amount" validate:"gte=0"`
}

type processWaiversRequest struct {
	LeagueID string `json:"league_id" validate:"required"`
}

func (m manifestRequest) toManifest() trade.Manifest {
	picks := make([]roster.Pick, 0, len(m.Picks))
	for _, p := range m.Picks {
		picks = append(picks, roster.Pick{
			Year:           p.Year,
			Round:          p.Round,
			OriginalTeamID: p.OriginalTeamID,
			Conditional:    p.Conditional,
		})
	}

	return trade.Manifest{
		Players: m.Players,
		Picks:   picks,
		FAAB:    m.FAAB,
	}
}

func toParticipantInputs(participants []tradeParticipantRequest) []usecase.TradeParticipantInput {
	out := make([]usecase.TradeParticipantInput, 0, len(participants))
	for _, p := range participants {
		out = append(out, usecase.TradeParticipantInput{
			TeamID:  p.TeamID,
			Give:    p.Give.toManifest(),
			Receive: p.Receive.toManifest(),
		})
	}

	return out
}

type manifestDTO struct {
	Players []string  `json:"players,omitempty"`
	Picks   []pickDTO `json:"picks,omitempty"`
	FAAB    int64     `json:"faab,omitempty"`
}

type pickDTO struct {
	Year           int    `json:"year"`
	Round          int    `json:"round"`
	OriginalTeamID string `json:"original_team_id"`
	Conditional    bool   `json:"conditional,omitempty"`
}

type tradeParticipantDTO struct {
	TeamID     string      `json:"team_id"`
	Give       manifestDTO `json:"give"`
	Receive    manifestDTO `json:"receive"`
	Accepted   bool        `json:"accepted"`
	AcceptedAt *time.Time  `json:"accepted_at,omitempty"`
}

type tradeDTO struct {
	ID               string                `json:"id"`
	LeagueID         string                `json:"league_id"`
	Status           string                `json:"status"`
	Participants     []tradeParticipantDTO `json:"participants"`
	Message          string                `json:"message,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	ExpirationAt     time.Time             `json:"expiration_at"`
	ReviewPeriodEnds *time.Time            `json:"review_period_ends,omitempty"`
	VetoVotes        int                   `json:"veto_votes"`
	VetoThreshold    int                   `json:"veto_threshold"`
	SupersededBy     string                `json:"superseded_by,omitempty"`
	ProcessedAt      *time.Time            `json:"processed_at,omitempty"`
	FailureReason    string                `json:"failure_reason,omitempty"`
}

func manifestToDTO(m trade.Manifest) manifestDTO {
	picks := make([]pickDTO, 0, len(m.Picks))
	for _, p := range m.Picks {
		picks = append(picks, pickToDTO(p))
	}

	return manifestDTO{
		Players: m.Players,
		Picks:   picks,
		FAAB:    m.FAAB,
	}
}

func pickToDTO(p roster.Pick) pickDTO {
	return pickDTO{
		Year:           p.Year,
		Round:          p.Round,
		OriginalTeamID: p.OriginalTeamID,
		Conditional:    p.Conditional,
	}
}

func tradeToDTO(p trade.Proposal) tradeDTO {
	participants := make([]tradeParticipantDTO, 0, len(p.Participants))
	for _, part := range p.Participants {
		participants = append(participants, tradeParticipantDTO{
			TeamID:     part.TeamID,
			Give:       manifestToDTO(part.Give),
			Receive:    manifestToDTO(part.Receive),
			Accepted:   part.Accepted,
			AcceptedAt: part.AcceptedAt,
		})
	}

	return tradeDTO{
		ID:               p.ID,
		LeagueID:         p.LeagueID,
		Status:           string(p.Status),
		Participants:     participants,
		Message:          p.Message,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		ExpirationAt:     p.ExpirationAt,
		ReviewPeriodEnds: p.ReviewPeriodEnds,
		VetoVotes:        p.VetoVotes,
		VetoThreshold:    p.VetoThreshold,
		SupersededBy:     p.SupersededBy,
		ProcessedAt:      p.ProcessedAt,
		FailureReason:    p.FailureReason,
	}
}

type claimDTO struct {
	ID               string     `json:"id"`
	LeagueID         string     `json:"league_id"`
	TeamID           string     `json:"team_id"`
	PlayerID         string     `json:"player_id"`
	DropPlayerID     string     `json:"drop_player_id,omitempty"`
	BidAmount        int64      `json:"bid_amount"`
	PrioritySnapshot int        `json:"priority_snapshot"`
	Status           string     `json:"status"`
	FailureReason    string     `json:"failure_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
}

func claimToDTO(c waiver.Claim) claimDTO {
	return claimDTO{
		ID:               c.ID,
		LeagueID:         c.LeagueID,
		TeamID:           c.TeamID,
		PlayerID:         c.PlayerID,
		DropPlayerID:     c.DropPlayerID,
		BidAmount:        c.BidAmount,
		PrioritySnapshot: c.PrioritySnapshot,
		Status:           string(c.Status),
		FailureReason:    c.FailureReason,
		CreatedAt:        c.CreatedAt,
		ProcessedAt:      c.ProcessedAt,
	}
}

type teamDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OwnerUserID    string `json:"owner_user_id"`
	WaiverPriority int    `json:"waiver_priority"`
	FAABBalance    int64  `json:"faab_balance"`
}

func teamToDTO(t team.Team) teamDTO {
	return teamDTO{
		ID:             t.ID,
		Name:           t.Name,
		OwnerUserID:    t.OwnerUserID,
		WaiverPriority: t.WaiverPriority,
		FAABBalance:    t.FAABBalance,
	}
}

type ownershipDTO struct {
	PlayerID    string    `json:"player_id"`
	Slot        string    `json:"slot"`
	AcquiredVia string    `json:"acquired_via,omitempty"`
	AcquiredAt  time.Time `json:"acquired_at"`
}

type rosterDTO struct {
	Team    teamDTO        `json:"team"`
	Players []ownershipDTO `json:"players"`
	Picks   []pickDTO      `json:"picks"`
}

func rosterToDTO(r usecase.TeamRoster) rosterDTO {
	players := make([]ownershipDTO, 0, len(r.Players))
	for _, own := range r.Players {
		players = append(players, ownershipDTO{
			PlayerID:    own.PlayerID,
			Slot:        string(own.Slot),
			AcquiredVia: own.AcquiredVia,
			AcquiredAt:  own.AcquiredAt,
		})
	}

	picks := make([]pickDTO, 0, len(r.Picks))
	for _, p := range r.Picks {
		picks = append(picks, pickToDTO(p))
	}

	return rosterDTO{
		Team:    teamToDTO(r.Team),
		Players: players,
		Picks:   picks,
	}
}

type auditEntryDTO struct {
	ID        string         `json:"id"`
	SubjectID string         `json:"subject_id"`
	Action    string         `json:"action"`
	ActorID   string         `json:"actor_id,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func auditEntryToDTO(e audit.Entry) auditEntryDTO {
	return auditEntryDTO{
		ID:        e.ID,
		SubjectID: e.SubjectID,
		Action:    string(e.Action),
		ActorID:   e.ActorID,
		Detail:    e.Detail,
		CreatedAt: e.CreatedAt,
	}
}

type claimResultDTO struct {
	ClaimID       string `json:"claim_id"`
	TeamID        string `json:"team_id"`
	PlayerID      string `json:"player_id"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

type waiverCycleDTO struct {
	Processed  int              `json:"processed"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Results    []claimResultDTO `json:"results"`
}

func waiverCycleToDTO(r usecase.WaiverCycleResult) waiverCycleDTO {
	results := make([]claimResultDTO, 0, len(r.Results))
	for _, res := range r.Results {
		results = append(results, claimResultDTO{
			ClaimID:       res.ClaimID,
			TeamID:        res.TeamID,
			PlayerID:      res.PlayerID,
			Status:        string(res.Status),
			FailureReason: res.FailureReason,
		})
	}

	return waiverCycleDTO{
		Processed:  r.Processed,
		Successful: r.Successful,
		Failed:     r.Failed,
		Results:    results,
	}
}
