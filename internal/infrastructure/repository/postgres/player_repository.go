package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/astralfield/roster-engine/internal/domain/player"
	qb "github.com/astralfield/roster-engine/internal/platform/querybuilder"
)

type playerTableModel struct {
	ID             int64     `db:"id"`
	PublicID       string    `db:"public_id"`
	LeaguePublicID string    `db:"league_public_id"`
	Name           string    `db:"name"`
	Position       string    `db:"position"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByID(ctx context.Context, leagueID, playerID string) (player.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("public_id", playerID),
		).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build get player by id query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("get player by id: %w", err)
	}

	return playerFromRow(row), true, nil
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, leagueID string, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}

	ids := make([]any, 0, len(playerIDs))
	for _, playerID := range playerIDs {
		ids = append(ids, playerID)
	}
	query, args, err := qb.Select("*").From("players").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.In("public_id", ids),
		).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get players by ids query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players by ids: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}

	return out, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, p player.Player) error {
	const query = `
INSERT INTO players (public_id, league_public_id, name, position, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
ON CONFLICT (league_public_id, public_id) DO UPDATE
SET name = EXCLUDED.name,
    position = EXCLUDED.position,
    updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, p.ID, p.LeagueID, p.Name, string(p.Position)); err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}

	return nil
}

func playerFromRow(row playerTableModel) player.Player {
	return player.Player{
		ID:       row.PublicID,
		LeagueID: row.LeaguePublicID,
		Name:     row.Name,
		Position: player.Position(row.Position),
	}
}
