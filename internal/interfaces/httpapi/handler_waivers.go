package httpapi

import (
	"net/http"

	"github.com/astralfield/roster-engine/internal/usecase"
)

func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitClaim")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req submitClaimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := r.PathValue("leagueID")
	claim, err := h.waiverService.SubmitClaim(ctx, principal, usecase.SubmitClaimInput{
		LeagueID:     leagueID,
		TeamID:       req.TeamID,
		PlayerID:     req.PlayerID,
		DropPlayerID: req.DropPlayerID,
		BidAmount:    req.BidAmount,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit claim failed", "league_id", leagueID, "team_id", req.TeamID, "player_id", req.PlayerID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, claimToDTO(claim))
}

func (h *Handler) CancelClaim(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelClaim")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	claimID := r.PathValue("claimID")
	claim, err := h.waiverService.CancelClaim(ctx, principal, claimID)
	if err != nil {
		h.logger.WarnContext(ctx, "cancel claim failed", "claim_id", claimID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, claimToDTO(claim))
}
