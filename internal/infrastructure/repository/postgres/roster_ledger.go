package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/astralfield/roster-engine/internal/domain/roster"
	qb "github.com/astralfield/roster-engine/internal/platform/querybuilder"
)

type ownershipTableModel struct {
	ID             int64     `db:"id"`
	LeaguePublicID string    `db:"league_public_id"`
	PlayerPublicID string    `db:"player_public_id"`
	TeamPublicID   string    `db:"team_public_id"`
	Slot           string    `db:"slot"`
	AcquiredVia    string    `db:"acquired_via"`
	AcquiredAt     time.Time `db:"acquired_at"`
}

type pickTableModel struct {
	ID                   int64  `db:"id"`
	LeaguePublicID       string `db:"league_public_id"`
	Year                 int    `db:"year"`
	Round                int    `db:"round"`
	OriginalTeamPublicID string `db:"original_team_public_id"`
	Conditional          bool   `db:"conditional"`
	HolderTeamPublicID   string `db:"holder_team_public_id"`
}

// RosterLedger is the postgres ownership record. Transfer runs inside one
// transaction and enforces every precondition with conditional writes, so
// a row that changed since validation rolls the whole request back.
type RosterLedger struct {
	db *sqlx.DB
}

func NewRosterLedger(db *sqlx.DB) *RosterLedger {
	return &RosterLedger{db: db}
}

func (l *RosterLedger) OwnerOf(ctx context.Context, leagueID, playerID string) (string, bool, error) {
	query, args, err := qb.Select("team_public_id").From("roster_ownership").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("player_public_id", playerID),
		).
		ToSQL()
	if err != nil {
		return "", false, fmt.Errorf("build owner-of query: %w", err)
	}

	var teamID string
	if err := l.db.GetContext(ctx, &teamID, query, args...); err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get owner: %w", err)
	}

	return teamID, true, nil
}

func (l *RosterLedger) ListByTeam(ctx context.Context, leagueID, teamID string) ([]roster.Ownership, error) {
	query, args, err := qb.Select("*").From("roster_ownership").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("team_public_id", teamID),
		).
		OrderBy("player_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list roster query: %w", err)
	}

	var rows []ownershipTableModel
	if err := l.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select roster: %w", err)
	}

	out := make([]roster.Ownership, 0, len(rows))
	for _, row := range rows {
		out = append(out, roster.Ownership{
			LeagueID:    row.LeaguePublicID,
			PlayerID:    row.PlayerPublicID,
			TeamID:      row.TeamPublicID,
			Slot:        roster.Slot(row.Slot),
			AcquiredVia: row.AcquiredVia,
			AcquiredAt:  row.AcquiredAt,
		})
	}

	return out, nil
}

func (l *RosterLedger) ListPicksByTeam(ctx context.Context, leagueID, teamID string) ([]roster.Pick, error) {
	query, args, err := qb.Select("*").From("draft_picks").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("holder_team_public_id", teamID),
		).
		OrderBy("year", "round", "original_team_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list picks query: %w", err)
	}

	var rows []pickTableModel
	if err := l.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select picks: %w", err)
	}

	out := make([]roster.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, roster.Pick{
			Year:           row.Year,
			Round:          row.Round,
			OriginalTeamID: row.OriginalTeamPublicID,
			Conditional:    row.Conditional,
		})
	}

	return out, nil
}

func (l *RosterLedger) Transfer(ctx context.Context, leagueID string, req roster.TransferRequest) error {
	if req.Empty() {
		return nil
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, move := range req.Players {
		if err := applyPlayerMove(ctx, tx, leagueID, move, req.Via); err != nil {
			return err
		}
	}
	for _, move := range req.Picks {
		if err := applyPickMove(ctx, tx, leagueID, move); err != nil {
			return err
		}
	}
	for _, move := range req.FAAB {
		if err := applyFAABMove(ctx, tx, leagueID, move); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer tx: %w", err)
	}

	return nil
}

func applyPlayerMove(ctx context.Context, tx *sqlx.Tx, leagueID string, move roster.PlayerMove, via string) error {
	switch {
	case move.FromTeamID == roster.FreeAgent:
		const query = `
INSERT INTO roster_ownership (league_public_id, player_public_id, team_public_id, slot, acquired_via, acquired_at)
VALUES ($1, $2, $3, 'active', $4, NOW())
ON CONFLICT (league_public_id, player_public_id) DO NOTHING`
		res, err := tx.ExecContext(ctx, query, leagueID, move.PlayerID, move.ToTeamID, via)
		if err != nil {
			return fmt.Errorf("claim player %s: %w", move.PlayerID, err)
		}
		if err := requireOneRow(res, fmt.Sprintf("player %s is no longer a free agent", move.PlayerID)); err != nil {
			return err
		}

	case move.ToTeamID == roster.FreeAgent:
		const query = `
DELETE FROM roster_ownership
WHERE league_public_id = $1 AND player_public_id = $2 AND team_public_id = $3`
		res, err := tx.ExecContext(ctx, query, leagueID, move.PlayerID, move.FromTeamID)
		if err != nil {
			return fmt.Errorf("release player %s: %w", move.PlayerID, err)
		}
		if err := requireOneRow(res, fmt.Sprintf("player %s is not owned by team %s", move.PlayerID, move.FromTeamID)); err != nil {
			return err
		}

	default:
		const query = `
UPDATE roster_ownership
SET team_public_id = $4, slot = 'active', acquired_via = $5, acquired_at = NOW()
WHERE league_public_id = $1 AND player_public_id = $2 AND team_public_id = $3`
		res, err := tx.ExecContext(ctx, query, leagueID, move.PlayerID, move.FromTeamID, move.ToTeamID, via)
		if err != nil {
			return fmt.Errorf("move player %s: %w", move.PlayerID, err)
		}
		if err := requireOneRow(res, fmt.Sprintf("player %s is not owned by team %s", move.PlayerID, move.FromTeamID)); err != nil {
			return err
		}
	}

	return nil
}

func applyPickMove(ctx context.Context, tx *sqlx.Tx, leagueID string, move roster.PickMove) error {
	const query = `
UPDATE draft_picks
SET holder_team_public_id = $6
WHERE league_public_id = $1 AND year = $2 AND round = $3
  AND original_team_public_id = $4 AND holder_team_public_id = $5`
	res, err := tx.ExecContext(ctx, query,
		leagueID, move.Pick.Year, move.Pick.Round, move.Pick.OriginalTeamID, move.FromTeamID, move.ToTeamID)
	if err != nil {
		return fmt.Errorf("move pick %s: %w", move.Pick.Key(), err)
	}

	return requireOneRow(res, fmt.Sprintf("pick %s is not held by team %s", move.Pick.Key(), move.FromTeamID))
}

func applyFAABMove(ctx context.Context, tx *sqlx.Tx, leagueID string, move roster.FAABMove) error {
	const debitQuery = `
UPDATE teams
SET faab_balance = faab_balance - $3, updated_at = NOW()
WHERE league_public_id = $1 AND public_id = $2 AND faab_balance >= $3`
	res, err := tx.ExecContext(ctx, debitQuery, leagueID, move.FromTeamID, move.Amount)
	if err != nil {
		return fmt.Errorf("debit faab from %s: %w", move.FromTeamID, err)
	}
	if err := requireOneRow(res, fmt.Sprintf("team %s cannot cover %d faab", move.FromTeamID, move.Amount)); err != nil {
		return err
	}

	if move.ToTeamID == "" {
		return nil
	}

	const creditQuery = `
UPDATE teams
SET faab_balance = faab_balance + $3, updated_at = NOW()
WHERE league_public_id = $1 AND public_id = $2`
	res, err = tx.ExecContext(ctx, creditQuery, leagueID, move.ToTeamID, move.Amount)
	if err != nil {
		return fmt.Errorf("credit faab to %s: %w", move.ToTeamID, err)
	}

	return requireOneRow(res, fmt.Sprintf("team %s not found", move.ToTeamID))
}

// SetOwnership force-assigns a row outside the transfer flow, used by
// seeding and migrations.
func (l *RosterLedger) SetOwnership(ctx context.Context, o roster.Ownership) error {
	slot := o.Slot
	if slot == "" {
		slot = roster.SlotActive
	}
	const query = `
INSERT INTO roster_ownership (league_public_id, player_public_id, team_public_id, slot, acquired_via, acquired_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (league_public_id, player_public_id) DO UPDATE
SET team_public_id = EXCLUDED.team_public_id,
    slot = EXCLUDED.slot,
    acquired_via = EXCLUDED.acquired_via,
    acquired_at = EXCLUDED.acquired_at`

	if _, err := l.db.ExecContext(ctx, query, o.LeagueID, o.PlayerID, o.TeamID, string(slot), o.AcquiredVia, o.AcquiredAt); err != nil {
		return fmt.Errorf("set ownership: %w", err)
	}

	return nil
}

// SetPick force-assigns a draft pick holding.
func (l *RosterLedger) SetPick(ctx context.Context, leagueID, teamID string, pick roster.Pick) error {
	const query = `
INSERT INTO draft_picks (league_public_id, year, round, original_team_public_id, conditional, holder_team_public_id)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (league_public_id, year, round, original_team_public_id) DO UPDATE
SET conditional = EXCLUDED.conditional,
    holder_team_public_id = EXCLUDED.holder_team_public_id`

	if _, err := l.db.ExecContext(ctx, query, leagueID, pick.Year, pick.Round, pick.OriginalTeamID, pick.Conditional, teamID); err != nil {
		return fmt.Errorf("set pick: %w", err)
	}

	return nil
}

func requireOneRow(res interface{ RowsAffected() (int64, error) }, conflictDetail string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("%w: %s", roster.ErrOwnershipConflict, conflictDetail)
	}

	return nil
}
