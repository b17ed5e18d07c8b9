package usecase

import (
	"context"
	"fmt"

	"github.com/astralfield/roster-engine/internal/domain/league"
	"github.com/astralfield/roster-engine/internal/domain/roster"
	"github.com/astralfield/roster-engine/internal/domain/team"
)

// RosterService serves read-only roster views.
type RosterService struct {
	leagues league.Repository
	teams   team.Repository
	ledger  roster.Ledger
}

func NewRosterService(leagues league.Repository, teams team.Repository, ledger roster.Ledger) *RosterService {
	return &RosterService{leagues: leagues, teams: teams, ledger: ledger}
}

// TeamRoster is one team's current holdings: players, picks, and budget.
type TeamRoster struct {
	Team    team.Team
	Players []roster.Ownership
	Picks   []roster.Pick
}

func (s *RosterService) GetTeamRoster(ctx context.Context, leagueID, teamID string) (TeamRoster, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.GetTeamRoster")
	defer span.End()

	if _, found, err := s.leagues.GetByID(ctx, leagueID); err != nil {
		return TeamRoster{}, fmt.Errorf("get league: %w", err)
	} else if !found {
		return TeamRoster{}, fmt.Errorf("%w: league %s", ErrNotFound, leagueID)
	}

	t, found, err := s.teams.GetByID(ctx, leagueID, teamID)
	if err != nil {
		return TeamRoster{}, fmt.Errorf("get team: %w", err)
	}
	if !found {
		return TeamRoster{}, fmt.Errorf("%w: team %s", ErrNotFound, teamID)
	}

	players, err := s.ledger.ListByTeam(ctx, leagueID, teamID)
	if err != nil {
		return TeamRoster{}, fmt.Errorf("list roster: %w", err)
	}
	picks, err := s.ledger.ListPicksByTeam(ctx, leagueID, teamID)
	if err != nil {
		return TeamRoster{}, fmt.Errorf("list picks: %w", err)
	}

	return TeamRoster{Team: t, Players: players, Picks: picks}, nil
}

// ListTeams returns the league's teams in waiver-priority order as stored.
func (s *RosterService) ListTeams(ctx context.Context, leagueID string) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.ListTeams")
	defer span.End()

	if _, found, err := s.leagues.GetByID(ctx, leagueID); err != nil {
		return nil, fmt.Errorf("get league: %w", err)
	} else if !found {
		return nil, fmt.Errorf("%w: league %s", ErrNotFound, leagueID)
	}

	teams, err := s.teams.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	return teams, nil
}
