package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/astralfield/roster-engine/internal/domain/trade"
	"github.com/astralfield/roster-engine/internal/usecase"
)

func (h *Handler) ProposeTrade(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ProposeTrade")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req proposeTradeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := r.PathValue("leagueID")
	proposal, err := h.tradeService.ProposeTrade(ctx, principal, usecase.ProposeTradeInput{
		LeagueID:     leagueID,
		Participants: toParticipantInputs(req.Participants),
		Message:      req.Message,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "propose trade failed", "league_id", leagueID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, tradeToDTO(proposal))
}

func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTrade")
	defer span.End()

	tradeID := r.PathValue("tradeID")
	proposal, err := h.tradeService.GetTradeProposal(ctx, tradeID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tradeToDTO(proposal))
}

func (h *Handler) RespondToTrade(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RespondToTrade")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req respondTradeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	tradeID := r.PathValue("tradeID")
	proposal, err := h.tradeService.RespondToTrade(ctx, principal, usecase.RespondToTradeInput{
		TradeID: tradeID,
		Action:  trade.ResponseAction(req.Action),
		Counter: toParticipantInputs(req.Counter),
		Message: req.Message,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "respond to trade failed", "trade_id", tradeID, "action", req.Action, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tradeToDTO(proposal))
}

func (h *Handler) CastVeto(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CastVeto")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	tradeID := r.PathValue("tradeID")
	proposal, err := h.tradeService.CastVeto(ctx, principal, tradeID)
	if err != nil {
		h.logger.WarnContext(ctx, "cast veto failed", "trade_id", tradeID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tradeToDTO(proposal))
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTransactions")
	defer span.End()

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			writeError(ctx, w, errInvalidLimit)
			return
		}
		limit = parsed
	}

	leagueID := r.PathValue("leagueID")
	entries, err := h.tradeService.ListTransactions(ctx, leagueID, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]auditEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, auditEntryToDTO(entry))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
