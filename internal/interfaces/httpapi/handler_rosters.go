package httpapi

import "net/http"

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	teams, err := h.rosterService.ListTeams(ctx, leagueID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToDTO(t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetTeamRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamRoster")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	teamID := r.PathValue("teamID")
	rosterView, err := h.rosterService.GetTeamRoster(ctx, leagueID, teamID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rosterToDTO(rosterView))
}
