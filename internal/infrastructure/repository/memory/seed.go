package memory

import (
	"context"
	"time"

	"github.com/astralfield/roster-engine/internal/domain/league"
	"github.com/astralfield/roster-engine/internal/domain/player"
	"github.com/astralfield/roster-engine/internal/domain/roster"
	"github.com/astralfield/roster-engine/internal/domain/team"
)

const LeagueIDSunflower = "sunflower-dynasty-2026"

func SeedLeagues() []league.League {
	return []league.League{
		{
			ID:          LeagueIDSunflower,
			Name:        "Sunflower Dynasty League",
			Season:      "2026",
			CurrentWeek: 1,
			Settings:    league.DefaultSettings(),
		},
	}
}

func SeedTeams() []team.Team {
	return []team.Team{
		{ID: "sfl-thunder", LeagueID: LeagueIDSunflower, Name: "Topeka Thunder", OwnerUserID: "user-ava", WaiverPriority: 1, FAABBalance: 100},
		{ID: "sfl-hawks", LeagueID: LeagueIDSunflower, Name: "Wichita Hawks", OwnerUserID: "user-ben", WaiverPriority: 2, FAABBalance: 100},
		{ID: "sfl-miners", LeagueID: LeagueIDSunflower, Name: "Galena Miners", OwnerUserID: "user-cara", WaiverPriority: 3, FAABBalance: 100},
		{ID: "sfl-pioneers", LeagueID: LeagueIDSunflower, Name: "Abilene Pioneers", OwnerUserID: "user-dan", WaiverPriority: 4, FAABBalance: 100},
	}
}

func SeedPlayers() []player.Player {
	return []player.Player{
		{ID: "p-qb-01", LeagueID: LeagueIDSunflower, Name: "Miles Archer", Position: player.PositionQB},
		{ID: "p-qb-02", LeagueID: LeagueIDSunflower, Name: "Trey Ballard", Position: player.PositionQB},
		{ID: "p-rb-01", LeagueID: LeagueIDSunflower, Name: "Dez Coleman", Position: player.PositionRB},
		{ID: "p-rb-02", LeagueID: LeagueIDSunflower, Name: "Omar Fields", Position: player.PositionRB},
		{ID: "p-rb-03", LeagueID: LeagueIDSunflower, Name: "Jarrod Pike", Position: player.PositionRB},
		{ID: "p-wr-01", LeagueID: LeagueIDSunflower, Name: "Kellen Ruiz", Position: player.PositionWR},
		{ID: "p-wr-02", LeagueID: LeagueIDSunflower, Name: "Santos Vega", Position: player.PositionWR},
		{ID: "p-wr-03", LeagueID: LeagueIDSunflower, Name: "Curt Whitlow", Position: player.PositionWR},
		{ID: "p-te-01", LeagueID: LeagueIDSunflower, Name: "Gabe Holt", Position: player.PositionTE},
		{ID: "p-k-01", LeagueID: LeagueIDSunflower, Name: "Ivo Brandt", Position: player.PositionK},
		{ID: "p-dst-01", LeagueID: LeagueIDSunflower, Name: "Topeka DST", Position: player.PositionDST},
		{ID: "p-dst-02", LeagueID: LeagueIDSunflower, Name: "Wichita DST", Position: player.PositionDST},
	}
}

func seedOwnership(now time.Time) []roster.Ownership {
	assign := func(playerID, teamID string) roster.Ownership {
		return roster.Ownership{
			LeagueID:    LeagueIDSunflower,
			PlayerID:    playerID,
			TeamID:      teamID,
			Slot:        roster.SlotActive,
			AcquiredVia: "draft",
			AcquiredAt:  now,
		}
	}
	return []roster.Ownership{
		assign("p-qb-01", "sfl-thunder"),
		assign("p-rb-01", "sfl-thunder"),
		assign("p-wr-01", "sfl-thunder"),
		assign("p-qb-02", "sfl-hawks"),
		assign("p-rb-02", "sfl-hawks"),
		assign("p-wr-02", "sfl-hawks"),
		assign("p-rb-03", "sfl-miners"),
		assign("p-te-01", "sfl-miners"),
		assign("p-k-01", "sfl-pioneers"),
		assign("p-dst-01", "sfl-pioneers"),
	}
}

// Stores bundles every in-memory repository wired to one another, ready
// for local runs and tests.
type Stores struct {
	Leagues *LeagueRepository
	Teams   *TeamRepository
	Players *PlayerRepository
	Ledger  *RosterLedger
	Trades  *TradeRepository
	Waivers *WaiverRepository
	Audits  *AuditRepository
}

func NewStores() *Stores {
	teams := NewTeamRepository()
	return &Stores{
		Leagues: NewLeagueRepository(),
		Teams:   teams,
		Players: NewPlayerRepository(),
		Ledger:  NewRosterLedger(teams),
		Trades:  NewTradeRepository(),
		Waivers: NewWaiverRepository(),
		Audits:  NewAuditRepository(),
	}
}

// Seed loads the demo league into the stores.
func (s *Stores) Seed(ctx context.Context) error {
	for _, lg := range SeedLeagues() {
		if err := s.Leagues.Upsert(ctx, lg); err != nil {
			return err
		}
	}
	for _, t := range SeedTeams() {
		if err := s.Teams.Upsert(ctx, t); err != nil {
			return err
		}
	}
	for _, p := range SeedPlayers() {
		if err := s.Players.Upsert(ctx, p); err != nil {
			return err
		}
	}
	for _, o := range seedOwnership(time.Now()) {
		s.Ledger.SetOwnership(o)
	}
	for _, t := range SeedTeams() {
		s.Ledger.SetPick(LeagueIDSunflower, t.ID, roster.Pick{Year: 2027, Round: 1, OriginalTeamID: t.ID})
	}

	return nil
}
