package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues/{leagueID}/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/teams/{teamID}/roster", handler.GetTeamRoster)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/transactions", handler.ListTransactions)
	mux.HandleFunc("GET /v1/trades/{tradeID}", handler.GetTrade)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/leagues/{leagueID}/trades", RequireAuth(verifier, http.HandlerFunc(handler.ProposeTrade)))
	mux.Handle("POST /v1/trades/{tradeID}/respond", RequireAuth(verifier, http.HandlerFunc(handler.RespondToTrade)))
	mux.Handle("POST /v1/trades/{tradeID}/veto", RequireAuth(verifier, http.HandlerFunc(handler.CastVeto)))
	mux.Handle("POST /v1/leagues/{leagueID}/waivers", RequireAuth(verifier, http.HandlerFunc(handler.SubmitClaim)))
	mux.Handle("DELETE /v1/waivers/{claimID}", RequireAuth(verifier, http.HandlerFunc(handler.CancelClaim)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/process-waivers", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunProcessWaiversJob)))
	mux.Handle("POST /v1/internal/jobs/sweep-trades", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSweepJob)))
}
