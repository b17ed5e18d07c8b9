package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/panjf2000/ants/v2"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/astralfield/roster-engine/internal/config"
	"github.com/astralfield/roster-engine/internal/domain/audit"
	"github.com/astralfield/roster-engine/internal/domain/league"
	"github.com/astralfield/roster-engine/internal/domain/player"
	"github.com/astralfield/roster-engine/internal/domain/roster"
	"github.com/astralfield/roster-engine/internal/domain/team"
	"github.com/astralfield/roster-engine/internal/domain/trade"
	"github.com/astralfield/roster-engine/internal/domain/waiver"
	"github.com/astralfield/roster-engine/internal/infrastructure/account"
	"github.com/astralfield/roster-engine/internal/infrastructure/events"
	"github.com/astralfield/roster-engine/internal/infrastructure/repository/memory"
	"github.com/astralfield/roster-engine/internal/infrastructure/repository/postgres"
	"github.com/astralfield/roster-engine/internal/interfaces/httpapi"
	idgen "github.com/astralfield/roster-engine/internal/platform/id"
	"github.com/astralfield/roster-engine/internal/platform/locking"
	"github.com/astralfield/roster-engine/internal/platform/logging"
	"github.com/astralfield/roster-engine/internal/platform/resilience"
	"github.com/astralfield/roster-engine/internal/usecase"
)

// Application bundles the HTTP server with the background services that
// share its lifecycle.
type Application struct {
	Server  *http.Server
	Sweeper *usecase.SweepService

	db   *sqlx.DB
	pool *ants.Pool
}

// Close releases resources owned by the application. Safe to call after a
// failed startup.
func (a *Application) Close() {
	if a.pool != nil {
		a.pool.Release()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

type repositories struct {
	Leagues league.Repository
	Teams   team.Repository
	Players player.Repository
	Trades  trade.Repository
	Waivers waiver.Repository
	Audits  audit.Repository
	Ledger  roster.Ledger
}

// NewApplication wires repositories, services, and the HTTP stack from
// configuration. With DB_URL unset it runs entirely on in-memory stores,
// which is the dev default.
func NewApplication(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Application, error) {
	app := &Application{}

	repos, err := buildRepositories(ctx, cfg, app)
	if err != nil {
		return nil, err
	}

	publisher, err := buildEventPublisher(cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	gen := idgen.NewRandomGenerator()
	locks := locking.NewKeyedMutex()

	tradeValidator := usecase.NewTradeValidator(repos.Players)
	tradeSvc := usecase.NewTradeService(repos.Leagues, repos.Teams, repos.Trades, repos.Audits, repos.Ledger, tradeValidator, publisher, gen, locks, logger, nil)
	waiverSvc := usecase.NewWaiverService(repos.Leagues, repos.Teams, repos.Players, repos.Waivers, repos.Audits, repos.Ledger, publisher, gen, locks, logger, nil)
	rosterSvc := usecase.NewRosterService(repos.Leagues, repos.Teams, repos.Ledger)

	pool, err := ants.NewPool(cfg.SweepWorkers)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("create sweep worker pool: %w", err)
	}
	app.pool = pool
	app.Sweeper = usecase.NewSweepService(repos.Leagues, tradeSvc, pool, logger)

	accountClient := account.NewClient(account.ClientConfig{
		BaseURL:        cfg.AccountBaseURL,
		IntrospectPath: cfg.AccountIntrospectPath,
		Timeout:        cfg.AccountTimeout,
		CacheTTL:       cfg.AccountCacheTTL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.AccountCircuitEnabled,
			FailureThreshold: cfg.AccountCircuitFailureCount,
			OpenTimeout:      cfg.AccountCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AccountCircuitHalfOpenMaxReq,
		},
	}, logger)

	handler := httpapi.NewHandler(tradeSvc, waiverSvc, rosterSvc, app.Sweeper, logger)
	router := httpapi.NewRouter(handler, accountClient, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if app.Server.Addr == "" {
		app.Close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return app, nil
}

func buildRepositories(ctx context.Context, cfg config.Config, app *Application) (repositories, error) {
	if cfg.DBURL == "" {
		stores := memory.NewStores()
		if cfg.SeedDemoData {
			if err := stores.Seed(ctx); err != nil {
				return repositories{}, fmt.Errorf("seed demo data: %w", err)
			}
		}
		return repositories{
			Leagues: stores.Leagues,
			Teams:   stores.Teams,
			Players: stores.Players,
			Trades:  stores.Trades,
			Waivers: stores.Waivers,
			Audits:  stores.Audits,
			Ledger:  stores.Ledger,
		}, nil
	}

	db, err := otelsqlx.Connect("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
	)
	if err != nil {
		return repositories{}, fmt.Errorf("connect database: %w", err)
	}
	app.db = db

	return repositories{
		Leagues: postgres.NewLeagueRepository(db),
		Teams:   postgres.NewTeamRepository(db),
		Players: postgres.NewPlayerRepository(db),
		Trades:  postgres.NewTradeRepository(db),
		Waivers: postgres.NewWaiverRepository(db),
		Audits:  postgres.NewAuditRepository(db),
		Ledger:  postgres.NewRosterLedger(db),
	}, nil
}

func buildEventPublisher(cfg config.Config, logger *logging.Logger) (usecase.EventPublisher, error) {
	if !cfg.WebhookEnabled {
		return usecase.NopPublisher{}, nil
	}

	publisher, err := events.NewWebhookPublisher(events.WebhookPublisherConfig{
		BaseURL:    cfg.WebhookBaseURL,
		Path:       cfg.WebhookPath,
		Token:      cfg.WebhookToken,
		Timeout:    cfg.WebhookTimeout,
		MaxRetries: cfg.WebhookMaxRetries,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.WebhookCircuitEnabled,
			FailureThreshold: cfg.WebhookCircuitFailureCount,
			OpenTimeout:      cfg.WebhookCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.WebhookCircuitHalfOpenMaxReq,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create webhook publisher: %w", err)
	}

	return publisher, nil
}
