package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/astralfield/roster-engine/internal/domain/waiver"
	qb "github.com/astralfield/roster-engine/internal/platform/querybuilder"
)

type waiverTableModel struct {
	ID                 int64          `db:"id"`
	PublicID           string         `db:"public_id"`
	LeaguePublicID     string         `db:"league_public_id"`
	TeamPublicID       string         `db:"team_public_id"`
	PlayerPublicID     string         `db:"player_public_id"`
	DropPlayerPublicID sql.NullString `db:"drop_player_public_id"`
	BidAmount          int64          `db:"bid_amount"`
	PrioritySnapshot   int            `db:"priority_snapshot"`
	Status             string         `db:"status"`
	FailureReason      sql.NullString `db:"failure_reason"`
	CreatedAt          time.Time      `db:"created_at"`
	ProcessedAt        *time.Time     `db:"processed_at"`
}

type WaiverRepository struct {
	db *sqlx.DB
}

func NewWaiverRepository(db *sqlx.DB) *WaiverRepository {
	return &WaiverRepository{db: db}
}

func (r *WaiverRepository) Create(ctx context.Context, claim waiver.Claim) error {
	const query = `
INSERT INTO waiver_claims
  (public_id, league_public_id, team_public_id, player_public_id, drop_player_public_id,
   bid_amount, priority_snapshot, status, failure_reason, created_at, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		claim.ID, claim.LeagueID, claim.TeamID, claim.PlayerID, nullString(claim.DropPlayerID),
		claim.BidAmount, claim.PrioritySnapshot, string(claim.Status),
		nullString(claim.FailureReason), claim.CreatedAt, claim.ProcessedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("claim %s already exists", claim.ID)
		}
		return fmt.Errorf("insert waiver claim: %w", err)
	}

	return nil
}

func (r *WaiverRepository) GetByID(ctx context.Context, claimID string) (waiver.Claim, bool, error) {
	query, args, err := qb.Select("*").From("waiver_claims").
		Where(qb.Eq("public_id", claimID)).
		ToSQL()
	if err != nil {
		return waiver.Claim{}, false, fmt.Errorf("build get claim query: %w", err)
	}

	var row waiverTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return waiver.Claim{}, false, nil
		}
		return waiver.Claim{}, false, fmt.Errorf("get waiver claim: %w", err)
	}

	return claimFromRow(row), true, nil
}

func (r *WaiverRepository) Update(ctx context.Context, claim waiver.Claim) error {
	const query = `
UPDATE waiver_claims
SET status = $2, failure_reason = $3, processed_at = $4
WHERE public_id = $1`

	res, err := r.db.ExecContext(ctx, query,
		claim.ID, string(claim.Status), nullString(claim.FailureReason), claim.ProcessedAt)
	if err != nil {
		return fmt.Errorf("update waiver claim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("claim %s not found", claim.ID)
	}

	return nil
}

func (r *WaiverRepository) ListPendingByLeague(ctx context.Context, leagueID string) ([]waiver.Claim, error) {
	query, args, err := qb.Select("*").From("waiver_claims").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("status", string(waiver.StatusPending)),
		).
		OrderBy("created_at", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pending claims query: %w", err)
	}

	var rows []waiverTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select pending claims: %w", err)
	}

	out := make([]waiver.Claim, 0, len(rows))
	for _, row := range rows {
		out = append(out, claimFromRow(row))
	}

	return out, nil
}

func claimFromRow(row waiverTableModel) waiver.Claim {
	return waiver.Claim{
		ID:               row.PublicID,
		LeagueID:         row.LeaguePublicID,
		TeamID:           row.TeamPublicID,
		PlayerID:         row.PlayerPublicID,
		DropPlayerID:     row.DropPlayerPublicID.String,
		BidAmount:        row.BidAmount,
		PrioritySnapshot: row.PrioritySnapshot,
		Status:           waiver.Status(row.Status),
		FailureReason:    row.FailureReason.String,
		CreatedAt:        row.CreatedAt,
		ProcessedAt:      row.ProcessedAt,
	}
}
