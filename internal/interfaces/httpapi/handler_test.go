package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/astralfield/roster-engine/internal/domain/user"
	"github.com/astralfield/roster-engine/internal/infrastructure/repository/memory"
	idgen "github.com/astralfield/roster-engine/internal/platform/id"
	"github.com/astralfield/roster-engine/internal/platform/locking"
	"github.com/astralfield/roster-engine/internal/platform/logging"
	"github.com/astralfield/roster-engine/internal/usecase"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	stores := memory.NewStores()
	if err := stores.Seed(context.Background()); err != nil {
		t.Fatalf("seed stores: %v", err)
	}

	logger := logging.NewNop()
	locks := locking.NewKeyedMutex()
	gen := idgen.NewRandomGenerator()
	tradeValidator := usecase.NewTradeValidator(stores.Players)

	trades := usecase.NewTradeService(stores.Leagues, stores.Teams, stores.Trades, stores.Audits, stores.Ledger, tradeValidator, nil, gen, locks, logger, nil)
	waivers := usecase.NewWaiverService(stores.Leagues, stores.Teams, stores.Players, stores.Waivers, stores.Audits, stores.Ledger, nil, gen, locks, logger, nil)
	rosters := usecase.NewRosterService(stores.Leagues, stores.Teams, stores.Ledger)

	handler := NewHandler(trades, waivers, rosters, nil, logger)
	verifier := stubVerifier{principals: map[string]user.Principal{
		"ava-token":  {UserID: "user-ava", Name: "Ava"},
		"ben-token":  {UserID: "user-ben", Name: "Ben"},
		"cara-token": {UserID: "user-cara", Name: "Cara"},
	}}

	srv := httptest.NewServer(NewRouter(handler, verifier, logger, []string{"*"}, "job-secret"))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := sonic.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp, raw
}

func decodeData[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v (body=%s)", err, raw)
	}
	return envelope.Data
}

func swapProposal() proposeTradeRequest {
	return proposeTradeRequest{
		Participants: []tradeParticipantRequest{
			{
				TeamID:  "sfl-thunder",
				Give:    manifestRequest{Players: []string{"p-rb-01"}},
				Receive: manifestRequest{Players: []string{"p-rb-02"}},
			},
			{
				TeamID:  "sfl-hawks",
				Give:    manifestRequest{Players: []string{"p-rb-02"}},
				Receive: manifestRequest{Players: []string{"p-rb-01"}},
			},
		},
		Message: "rb swap",
	}
}

func TestHandler_Healthz(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", resp.StatusCode, http.StatusOK)
	}
}

func TestHandler_ListTeams(t *testing.T) {
	srv := newTestServer(t)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/v1/leagues/"+memory.LeagueIDSunflower+"/teams", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", resp.StatusCode, raw)
	}

	teams := decodeData[[]teamDTO](t, raw)
	if len(teams) != 4 {
		t.Fatalf("unexpected team count: got=%d want=4", len(teams))
	}
	if teams[0].WaiverPriority != 1 {
		t.Fatalf("teams must be ordered by waiver priority, got first=%+v", teams[0])
	}
}

func TestHandler_TradeLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/v1/leagues/"+memory.LeagueIDSunflower+"/trades", "ava-token", swapProposal())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected propose status: got=%d body=%s", resp.StatusCode, raw)
	}
	proposed := decodeData[tradeDTO](t, raw)
	if proposed.Status != "pending" {
		t.Fatalf("unexpected status: got=%q want=pending", proposed.Status)
	}
	if !proposed.Participants[0].Accepted {
		t.Fatal("initiator must accept implicitly")
	}

	resp, raw = doJSON(t, http.MethodPost, srv.URL+"/v1/trades/"+proposed.ID+"/respond", "ben-token", respondTradeRequest{Action: "accept"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected respond status: got=%d body=%s", resp.StatusCode, raw)
	}
	accepted := decodeData[tradeDTO](t, raw)
	if accepted.Status != "review_period" {
		t.Fatalf("unexpected status after final accept: got=%q want=review_period", accepted.Status)
	}
	if accepted.ReviewPeriodEnds == nil {
		t.Fatal("review period end must be set")
	}

	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/v1/trades/"+proposed.ID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected get status: got=%d body=%s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/v1/leagues/"+memory.LeagueIDSunflower+"/transactions", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected transactions status: got=%d body=%s", resp.StatusCode, raw)
	}
	entries := decodeData[[]auditEntryDTO](t, raw)
	if len(entries) < 2 {
		t.Fatalf("expected proposal and acceptance audit entries, got %d", len(entries))
	}
}

func TestHandler_ProposeTradeRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/leagues/"+memory.LeagueIDSunflower+"/trades", "", swapProposal())
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestHandler_ProposeTradeRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/v1/leagues/"+memory.LeagueIDSunflower+"/trades", "ava-token", proposeTradeRequest{
		Participants: []tradeParticipantRequest{{TeamID: "sfl-thunder"}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d body=%s", resp.StatusCode, raw)
	}
}

func TestHandler_WaiverClaimLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/v1/leagues/"+memory.LeagueIDSunflower+"/waivers", "cara-token", submitClaimRequest{
		TeamID:    "sfl-miners",
		PlayerID:  "p-wr-03",
		BidAmount: 10,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected submit status: got=%d body=%s", resp.StatusCode, raw)
	}
	claim := decodeData[claimDTO](t, raw)
	if claim.Status != "pending" {
		t.Fatalf("unexpected claim status: got=%q want=pending", claim.Status)
	}
	if claim.PrioritySnapshot != 3 {
		t.Fatalf("unexpected priority snapshot: got=%d want=3", claim.PrioritySnapshot)
	}

	resp, raw = doJSON(t, http.MethodDelete, srv.URL+"/v1/waivers/"+claim.ID, "cara-token", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected cancel status: got=%d body=%s", resp.StatusCode, raw)
	}
	cancelled := decodeData[claimDTO](t, raw)
	if cancelled.Status != "cancelled" {
		t.Fatalf("unexpected claim status: got=%q want=cancelled", cancelled.Status)
	}
}

func TestHandler_ProcessWaiversJob(t *testing.T) {
	srv := newTestServer(t)

	_, raw := doJSON(t, http.MethodPost, srv.URL+"/v1/leagues/"+memory.LeagueIDSunflower+"/waivers", "ben-token", submitClaimRequest{
		TeamID:    "sfl-hawks",
		PlayerID:  "p-dst-02",
		BidAmount: 5,
	})
	claim := decodeData[claimDTO](t, raw)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/internal/jobs/process-waivers", bytes.NewReader([]byte(`{"league_id":"`+memory.LeagueIDSunflower+`"}`)))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Job-Token", "job-secret")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", resp.StatusCode, body)
	}
	cycle := decodeData[waiverCycleDTO](t, body)
	if cycle.Processed != 1 || cycle.Successful != 1 {
		t.Fatalf("unexpected cycle result: %+v", cycle)
	}
	if len(cycle.Results) != 1 || cycle.Results[0].ClaimID != claim.ID {
		t.Fatalf("unexpected results: %+v", cycle.Results)
	}
}

func TestHandler_InternalJobRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/internal/jobs/sweep-trades", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", resp.StatusCode, http.StatusUnauthorized)
	}
}
