package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/astralfield/roster-engine/internal/domain/league"
	"github.com/astralfield/roster-engine/internal/platform/logging"
)

// SweepService walks every league on a schedule and settles time-based
// transitions: TTL expiry and elapsed review periods. Expiration is also
// applied lazily on read, so the sweep only bounds how stale a record can
// get, it is not required for correctness.
type SweepService struct {
	leagues league.Repository
	trades  *TradeService
	pool    *ants.Pool
	logger  *logging.Logger
}

func NewSweepService(leagues league.Repository, trades *TradeService, pool *ants.Pool, logger *logging.Logger) *SweepService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SweepService{leagues: leagues, trades: trades, pool: pool, logger: logger}
}

// SweepResult aggregates one pass over all leagues.
type SweepResult struct {
	Leagues  int
	Expired  int
	Resolved int
}

// SweepOnce fans one pass out over the worker pool, one task per league,
// and waits for all of them. Per-league errors are logged and skipped so
// one broken league cannot stall the rest.
func (s *SweepService) SweepOnce(ctx context.Context) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SweepService.SweepOnce")
	defer span.End()

	leagues, err := s.leagues.List(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list leagues: %w", err)
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	result := SweepResult{Leagues: len(leagues)}

	for _, lg := range leagues {
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()

			expired, err := s.trades.ExpireTrades(ctx, lg.ID)
			if err != nil {
				s.logger.ErrorContext(ctx, "sweep: expire trades", "error", err, "league_id", lg.ID)
				return
			}
			resolved, err := s.trades.ResolveReviewPeriods(ctx, lg.ID)
			if err != nil {
				s.logger.ErrorContext(ctx, "sweep: resolve review periods", "error", err, "league_id", lg.ID)
				return
			}

			mu.Lock()
			result.Expired += expired
			result.Resolved += resolved
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			s.logger.ErrorContext(ctx, "sweep: submit league task", "error", submitErr, "league_id", lg.ID)
		}
	}
	wg.Wait()

	if result.Expired > 0 || result.Resolved > 0 {
		s.logger.InfoContext(ctx, "sweep pass complete",
			"leagues", result.Leagues, "expired", result.Expired, "resolved", result.Resolved)
	}

	return result, nil
}

// Run sweeps on the given interval until the context is cancelled. One
// pass runs immediately so review periods and TTLs that elapsed while the
// process was down are settled on startup.
func (s *SweepService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	if _, err := s.SweepOnce(ctx); err != nil {
		s.logger.ErrorContext(ctx, "startup sweep failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "sweep pass failed", "error", err)
			}
		}
	}
}
