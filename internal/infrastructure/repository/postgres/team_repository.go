package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/astralfield/roster-engine/internal/domain/team"
	qb "github.com/astralfield/roster-engine/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) ListByLeague(ctx context.Context, leagueID string) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("league_public_id", leagueID)).
		OrderBy("waiver_priority").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamFromRow(row))
	}

	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, leagueID, teamID string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("public_id", teamID),
		).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team by id query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team by id: %w", err)
	}

	return teamFromRow(row), true, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, t team.Team) error {
	const query = `
INSERT INTO teams (public_id, league_public_id, name, owner_user_id, waiver_priority, faab_balance, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
ON CONFLICT (league_public_id, public_id) DO UPDATE
SET name = EXCLUDED.name,
    owner_user_id = EXCLUDED.owner_user_id,
    waiver_priority = EXCLUDED.waiver_priority,
    faab_balance = EXCLUDED.faab_balance,
    updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, t.ID, t.LeagueID, t.Name, t.OwnerUserID, t.WaiverPriority, t.FAABBalance); err != nil {
		return fmt.Errorf("upsert team: %w", err)
	}

	return nil
}

// DemoteToLastPriority re-ranks the league's waiver order in one
// transaction: teams behind the demoted one shift up a spot and the
// demoted team takes the last slot. Rows are locked to keep the order
// strict and gapless under concurrent cycles.
func (r *TeamRepository) DemoteToLastPriority(ctx context.Context, leagueID, teamID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin demote tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current struct {
		Priority int `db:"waiver_priority"`
	}
	const lockQuery = `
SELECT waiver_priority
FROM teams
WHERE league_public_id = $1 AND public_id = $2
FOR UPDATE`
	if err := tx.GetContext(ctx, &current, lockQuery, leagueID, teamID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("team %s not found in league %s", teamID, leagueID)
		}
		return fmt.Errorf("lock demoted team: %w", err)
	}

	var last struct {
		Priority int `db:"last_priority"`
	}
	const lastQuery = `
SELECT COALESCE(MAX(waiver_priority), 0) AS last_priority
FROM teams
WHERE league_public_id = $1`
	if err := tx.GetContext(ctx, &last, lastQuery, leagueID); err != nil {
		return fmt.Errorf("read last priority: %w", err)
	}

	const shiftQuery = `
UPDATE teams
SET waiver_priority = waiver_priority - 1, updated_at = NOW()
WHERE league_public_id = $1 AND waiver_priority > $2`
	if _, err := tx.ExecContext(ctx, shiftQuery, leagueID, current.Priority); err != nil {
		return fmt.Errorf("shift priorities: %w", err)
	}

	const demoteQuery = `
UPDATE teams
SET waiver_priority = $3, updated_at = NOW()
WHERE league_public_id = $1 AND public_id = $2`
	if _, err := tx.ExecContext(ctx, demoteQuery, leagueID, teamID, last.Priority); err != nil {
		return fmt.Errorf("demote team: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit demote tx: %w", err)
	}

	return nil
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:             row.PublicID,
		LeagueID:       row.LeaguePublicID,
		Name:           row.Name,
		OwnerUserID:    row.OwnerUserID,
		WaiverPriority: row.WaiverPriority,
		FAABBalance:    row.FAABBalance,
	}
}
