package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/astralfield/roster-engine/internal/domain/roster"
	"github.com/astralfield/roster-engine/internal/domain/trade"
	qb "github.com/astralfield/roster-engine/internal/platform/querybuilder"
)

type TradeRepository struct {
	db *sqlx.DB
}

func NewTradeRepository(db *sqlx.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

var terminalTradeStatuses = []any{
	string(trade.StatusExecuted),
	string(trade.StatusRejected),
	string(trade.StatusCountered),
	string(trade.StatusExpired),
	string(trade.StatusVetoed),
	string(trade.StatusFailed),
}

func (r *TradeRepository) Create(ctx context.Context, proposal trade.Proposal) error {
	participants, voters, err := marshalTradeJSON(proposal)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO trade_proposals
  (public_id, league_public_id, status, participants, message, veto_votes, veto_voters, veto_threshold,
   superseded_by, failure_reason, created_at, updated_at, expires_at, review_period_ends, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = r.db.ExecContext(ctx, query,
		proposal.ID, proposal.LeagueID, string(proposal.Status), participants,
		nullString(proposal.Message), proposal.VetoVotes, voters, proposal.VetoThreshold,
		nullString(proposal.SupersededBy), nullString(proposal.FailureReason),
		proposal.CreatedAt, proposal.UpdatedAt, proposal.ExpirationAt,
		proposal.ReviewPeriodEnds, proposal.ProcessedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("trade %s already exists", proposal.ID)
		}
		return fmt.Errorf("insert trade proposal: %w", err)
	}

	return nil
}

func (r *TradeRepository) GetByID(ctx context.Context, tradeID string) (trade.Proposal, bool, error) {
	query, args, err := qb.Select("*").From("trade_proposals").
		Where(qb.Eq("public_id", tradeID)).
		ToSQL()
	if err != nil {
		return trade.Proposal{}, false, fmt.Errorf("build get trade query: %w", err)
	}

	var row tradeTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return trade.Proposal{}, false, nil
		}
		return trade.Proposal{}, false, fmt.Errorf("get trade proposal: %w", err)
	}

	proposal, err := tradeFromRow(row)
	if err != nil {
		return trade.Proposal{}, false, err
	}

	return proposal, true, nil
}

func (r *TradeRepository) Update(ctx context.Context, proposal trade.Proposal) error {
	participants, voters, err := marshalTradeJSON(proposal)
	if err != nil {
		return err
	}

	const query = `
UPDATE trade_proposals
SET status = $2, participants = $3, veto_votes = $4, veto_voters = $5,
    superseded_by = $6, failure_reason = $7, updated_at = $8,
    review_period_ends = $9, processed_at = $10
WHERE public_id = $1`

	res, err := r.db.ExecContext(ctx, query,
		proposal.ID, string(proposal.Status), participants, proposal.VetoVotes, voters,
		nullString(proposal.SupersededBy), nullString(proposal.FailureReason),
		proposal.UpdatedAt, proposal.ReviewPeriodEnds, proposal.ProcessedAt)
	if err != nil {
		return fmt.Errorf("update trade proposal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("trade %s not found", proposal.ID)
	}

	return nil
}

func (r *TradeRepository) ListActiveByLeague(ctx context.Context, leagueID string) ([]trade.Proposal, error) {
	query, args, err := qb.Select("*").From("trade_proposals").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Expr("status NOT IN (?, ?, ?, ?, ?, ?)", terminalTradeStatuses...),
		).
		OrderBy("created_at", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active trades query: %w", err)
	}

	var rows []tradeTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select active trades: %w", err)
	}

	out := make([]trade.Proposal, 0, len(rows))
	for _, row := range rows {
		proposal, err := tradeFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, proposal)
	}

	return out, nil
}

func (r *TradeRepository) ExistsActiveBetween(ctx context.Context, leagueID, initiatorTeamID, responderTeamID string, since time.Time) (bool, error) {
	const query = `
SELECT EXISTS (
  SELECT 1
  FROM trade_proposals
  WHERE league_public_id = $1
    AND status NOT IN ('executed', 'rejected', 'countered', 'expired', 'vetoed', 'failed')
    AND created_at >= $2
    AND participants->0->>'team_id' = $3
    AND participants @> $4::jsonb
)`

	responderMatch, err := sonic.Marshal([]map[string]string{{"team_id": responderTeamID}})
	if err != nil {
		return false, fmt.Errorf("marshal responder match: %w", err)
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, leagueID, since, initiatorTeamID, responderMatch); err != nil {
		return false, fmt.Errorf("check active trade between teams: %w", err)
	}

	return exists, nil
}

func marshalTradeJSON(proposal trade.Proposal) (participants, voters []byte, err error) {
	models := make([]tradeParticipantModel, 0, len(proposal.Participants))
	for _, part := range proposal.Participants {
		models = append(models, tradeParticipantModel{
			TeamID:     part.TeamID,
			Give:       manifestToModel(part.Give),
			Receive:    manifestToModel(part.Receive),
			Accepted:   part.Accepted,
			AcceptedAt: part.AcceptedAt,
		})
	}
	participants, err = sonic.Marshal(models)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal trade participants: %w", err)
	}

	voterIDs := proposal.VetoVoters
	if voterIDs == nil {
		voterIDs = []string{}
	}
	voters, err = sonic.Marshal(voterIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal veto voters: %w", err)
	}

	return participants, voters, nil
}

func tradeFromRow(row tradeTableModel) (trade.Proposal, error) {
	var participantModels []tradeParticipantModel
	if err := sonic.Unmarshal(row.Participants, &participantModels); err != nil {
		return trade.Proposal{}, fmt.Errorf("unmarshal trade participants: %w", err)
	}
	var voters []string
	if len(row.VetoVoters) > 0 {
		if err := sonic.Unmarshal(row.VetoVoters, &voters); err != nil {
			return trade.Proposal{}, fmt.Errorf("unmarshal veto voters: %w", err)
		}
	}

	participants := make([]trade.Participant, 0, len(participantModels))
	for _, m := range participantModels {
		participants = append(participants, trade.Participant{
			TeamID:     m.TeamID,
			Give:       manifestFromModel(m.Give),
			Receive:    manifestFromModel(m.Receive),
			Accepted:   m.Accepted,
			AcceptedAt: m.AcceptedAt,
		})
	}

	return trade.Proposal{
		ID:               row.PublicID,
		LeagueID:         row.LeaguePublicID,
		Status:           trade.Status(row.Status),
		Participants:     participants,
		Message:          row.Message.String,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
		ExpirationAt:     row.ExpiresAt,
		ReviewPeriodEnds: row.ReviewPeriodEnds,
		VetoVotes:        row.VetoVotes,
		VetoVoters:       voters,
		VetoThreshold:    row.VetoThreshold,
		SupersededBy:     row.SupersededBy.String,
		ProcessedAt:      row.ProcessedAt,
		FailureReason:    row.FailureReason.String,
	}, nil
}

func manifestToModel(m trade.Manifest) tradeManifestModel {
	picks := make([]tradePickModel, 0, len(m.Picks))
	for _, p := range m.Picks {
		picks = append(picks, tradePickModel{
			Year:           p.Year,
			Round:          p.Round,
			OriginalTeamID: p.OriginalTeamID,
			Conditional:    p.Conditional,
		})
	}
	return tradeManifestModel{Players: m.Players, Picks: picks, FAAB: m.FAAB}
}

func manifestFromModel(m tradeManifestModel) trade.Manifest {
	picks := make([]roster.Pick, 0, len(m.Picks))
	for _, p := range m.Picks {
		picks = append(picks, roster.Pick{
			Year:           p.Year,
			Round:          p.Round,
			OriginalTeamID: p.OriginalTeamID,
			Conditional:    p.Conditional,
		})
	}
	return trade.Manifest{Players: m.Players, Picks: picks, FAAB: m.FAAB}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
