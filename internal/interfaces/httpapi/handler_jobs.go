package httpapi

import (
	"fmt"
	"net/http"

	"github.com/astralfield/roster-engine/internal/usecase"
)

// RunProcessWaiversJob resolves one waiver cycle for a league. It is
// triggered by the scheduler through the internal job route.
func (h *Handler) RunProcessWaiversJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunProcessWaiversJob")
	defer span.End()

	var req processWaiversRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.waiverService.ProcessWaivers(ctx, req.LeagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "process waivers job failed", "league_id", req.LeagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "waiver cycle processed",
		"league_id", req.LeagueID,
		"processed", result.Processed,
		"successful", result.Successful,
		"failed", result.Failed,
	)
	writeSuccess(ctx, w, http.StatusOK, waiverCycleToDTO(result))
}

// RunSweepJob expires stale proposals and resolves elapsed review periods
// across every league in one pass.
func (h *Handler) RunSweepJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSweepJob")
	defer span.End()

	if h.sweepService == nil {
		writeError(ctx, w, fmt.Errorf("%w: sweep service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.sweepService.SweepOnce(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "sweep job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{
		"leagues":  result.Leagues,
		"expired":  result.Expired,
		"resolved": result.Resolved,
	})
}
