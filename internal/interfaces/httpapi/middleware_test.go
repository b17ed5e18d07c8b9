package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/astralfield/roster-engine/internal/domain/user"
	"github.com/astralfield/roster-engine/internal/usecase"
)

type stubVerifier struct {
	principals map[string]user.Principal
}

func (v stubVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	if p, ok := v.principals[token]; ok {
		return p, nil
	}
	return user.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
}

func TestRequireAuth(t *testing.T) {
	verifier := stubVerifier{principals: map[string]user.Principal{
		"ava-token": {UserID: "user-ava", Name: "Ava"},
	}}

	var gotPrincipal user.Principal
	var called bool
	handler := RequireAuth(verifier, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotPrincipal, _ = principalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid token", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/v1/trades/trade-1", nil)
		req.Header.Set("Authorization", "Bearer ava-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if !called {
			t.Fatal("expected next handler to run")
		}
		if gotPrincipal.UserID != "user-ava" {
			t.Fatalf("unexpected principal: %+v", gotPrincipal)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/v1/trades/trade-1", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if called {
			t.Fatal("next handler must not run")
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/trades/trade-1", nil)
		req.Header.Set("Authorization", "Token ava-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("rejected token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/trades/trade-1", nil)
		req.Header.Set("Authorization", "Bearer wrong-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
		}
	})
}

func TestRequireInternalJobToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("matching token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sweep-trades", nil)
		req.Header.Set("X-Internal-Job-Token", "job-secret")
		rec := httptest.NewRecorder()

		RequireInternalJobToken("job-secret", next).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusNoContent)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sweep-trades", nil)
		req.Header.Set("X-Internal-Job-Token", "guess")
		rec := httptest.NewRecorder()

		RequireInternalJobToken("job-secret", next).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("unconfigured token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sweep-trades", nil)
		req.Header.Set("X-Internal-Job-Token", "anything")
		rec := httptest.NewRecorder()

		RequireInternalJobToken("", next).ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusServiceUnavailable)
		}
	})
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/leagues/lg-1/teams", nil)
		req.Header.Set("Origin", "https://app.astralfield.io")
		rec := httptest.NewRecorder()

		CORS([]string{"https://app.astralfield.io"}, next).ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.astralfield.io" {
			t.Fatalf("unexpected allow origin: %q", got)
		}
	})

	t.Run("wildcard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/leagues/lg-1/teams", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		rec := httptest.NewRecorder()

		CORS([]string{"*"}, next).ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("unexpected allow origin: %q", got)
		}
	})

	t.Run("disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/leagues/lg-1/teams", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()

		CORS([]string{"https://app.astralfield.io"}, next).ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("expected no allow origin header, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/leagues/lg-1/trades", nil)
		req.Header.Set("Origin", "https://app.astralfield.io")
		rec := httptest.NewRecorder()

		CORS([]string{"https://app.astralfield.io"}, next).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusNoContent)
		}
	})
}
