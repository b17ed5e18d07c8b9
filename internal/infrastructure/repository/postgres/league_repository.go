package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/astralfield/roster-engine/internal/domain/league"
	qb "github.com/astralfield/roster-engine/internal/platform/querybuilder"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	query, args, err := qb.Select("*").From("leagues").
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues query: %w", err)
	}

	var rows []leagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select leagues: %w", err)
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		lg, err := leagueFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, lg)
	}

	return out, nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	query, args, err := qb.Select("*").From("leagues").
		Where(qb.Eq("public_id", leagueID)).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build get league by id query: %w", err)
	}

	var row leagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league by id: %w", err)
	}

	lg, err := leagueFromRow(row)
	if err != nil {
		return league.League{}, false, err
	}

	return lg, true, nil
}

func (r *LeagueRepository) Upsert(ctx context.Context, lg league.League) error {
	settings, err := sonic.Marshal(settingsToModel(lg.Settings))
	if err != nil {
		return fmt.Errorf("marshal league settings: %w", err)
	}

	const query = `
INSERT INTO leagues (public_id, name, season, current_week, settings, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
ON CONFLICT (public_id) DO UPDATE
SET name = EXCLUDED.name,
    season = EXCLUDED.season,
    current_week = EXCLUDED.current_week,
    settings = EXCLUDED.settings,
    updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, lg.ID, lg.Name, lg.Season, lg.CurrentWeek, settings); err != nil {
		return fmt.Errorf("upsert league: %w", err)
	}

	return nil
}

func leagueFromRow(row leagueTableModel) (league.League, error) {
	var settings leagueSettingsModel
	if len(row.Settings) > 0 {
		if err := sonic.Unmarshal(row.Settings, &settings); err != nil {
			return league.League{}, fmt.Errorf("unmarshal league settings: %w", err)
		}
	}

	return league.League{
		ID:          row.PublicID,
		Name:        row.Name,
		Season:      row.Season,
		CurrentWeek: row.CurrentWeek,
		Settings:    settingsFromModel(settings),
	}, nil
}

func settingsToModel(s league.Settings) leagueSettingsModel {
	return leagueSettingsModel{
		RosterLimit:       s.RosterLimit,
		PositionCaps:      s.PositionCaps,
		TradeDeadlineWeek: s.TradeDeadlineWeek,
		FAABBudget:        s.FAABBudget,
		ReviewWindowSec:   int64(s.ReviewWindow / time.Second),
		VetoThreshold:     s.VetoThreshold,
		WaiverPolicy:      string(s.WaiverPolicy),
		TradeCooldownSec:  int64(s.TradeCooldown / time.Second),
		StandardTTLSec:    int64(s.StandardTradeTTL / time.Second),
		MultiTeamTTLSec:   int64(s.MultiTeamTradeTTL / time.Second),
	}
}

func settingsFromModel(m leagueSettingsModel) league.Settings {
	return league.Settings{
		RosterLimit:       m.RosterLimit,
		PositionCaps:      m.PositionCaps,
		TradeDeadlineWeek: m.TradeDeadlineWeek,
		FAABBudget:        m.FAABBudget,
		ReviewWindow:      time.Duration(m.ReviewWindowSec) * time.Second,
		VetoThreshold:     m.VetoThreshold,
		WaiverPolicy:      league.WaiverPolicy(m.WaiverPolicy),
		TradeCooldown:     time.Duration(m.TradeCooldownSec) * time.Second,
		StandardTradeTTL:  time.Duration(m.StandardTTLSec) * time.Second,
		MultiTeamTradeTTL: time.Duration(m.MultiTeamTTLSec) * time.Second,
	}
}
