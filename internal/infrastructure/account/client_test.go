package account

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/astralfield/roster-engine/internal/platform/logging"
	"github.com/astralfield/roster-engine/internal/platform/resilience"
	"github.com/astralfield/roster-engine/internal/usecase"
)

func newIntrospectServer(t *testing.T, calls *atomic.Int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		handler(w, r)
	}))
}

func newTestClient(baseURL string, breaker resilience.CircuitBreakerConfig) *Client {
	return NewClient(ClientConfig{
		BaseURL:        baseURL,
		IntrospectPath: "/v1/auth/introspect",
		Timeout:        2 * time.Second,
		CacheTTL:       time.Minute,
		CircuitBreaker: breaker,
	}, logging.NewNop())
}

func TestClient_VerifyAccessToken(t *testing.T) {
	srv := newIntrospectServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"active":true,"user_id":"user-ava","name":"Ava"}`))
	})
	defer srv.Close()

	c := newTestClient(srv.URL, resilience.CircuitBreakerConfig{})

	principal, err := c.VerifyAccessToken(context.Background(), "valid-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if principal.UserID != "user-ava" {
		t.Fatalf("unexpected user id: got=%q want=%q", principal.UserID, "user-ava")
	}
	if principal.Name != "Ava" {
		t.Fatalf("unexpected name: got=%q want=%q", principal.Name, "Ava")
	}
}

func TestClient_VerifyAccessToken_EmptyToken(t *testing.T) {
	c := newTestClient("http://localhost:0", resilience.CircuitBreakerConfig{})

	_, err := c.VerifyAccessToken(context.Background(), "  ")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("unexpected error: got=%v want=%v", err, usecase.ErrUnauthorized)
	}
}

func TestClient_VerifyAccessToken_InactiveToken(t *testing.T) {
	srv := newIntrospectServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"active":false}`))
	})
	defer srv.Close()

	c := newTestClient(srv.URL, resilience.CircuitBreakerConfig{})

	_, err := c.VerifyAccessToken(context.Background(), "revoked-token")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("unexpected error: got=%v want=%v", err, usecase.ErrUnauthorized)
	}
}

func TestClient_VerifyAccessToken_DeniedStatus(t *testing.T) {
	srv := newIntrospectServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer srv.Close()

	c := newTestClient(srv.URL, resilience.CircuitBreakerConfig{})

	_, err := c.VerifyAccessToken(context.Background(), "bad-token")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("unexpected error: got=%v want=%v", err, usecase.ErrUnauthorized)
	}
}

func TestClient_VerifyAccessToken_CachesVerifiedPrincipal(t *testing.T) {
	var calls atomic.Int32
	srv := newIntrospectServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"active":true,"user_id":"user-ben","name":"Ben"}`))
	})
	defer srv.Close()

	c := newTestClient(srv.URL, resilience.CircuitBreakerConfig{})

	for i := 0; i < 3; i++ {
		if _, err := c.VerifyAccessToken(context.Background(), "cached-token"); err != nil {
			t.Fatalf("unexpected error on call %d: %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("unexpected introspection calls: got=%d want=1", got)
	}
}

func TestClient_VerifyAccessToken_CircuitOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newIntrospectServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	c := newTestClient(srv.URL, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	for i := 0; i < 2; i++ {
		if _, err := c.VerifyAccessToken(context.Background(), "t"); err == nil {
			t.Fatalf("expected error on call %d", i)
		}
	}

	before := calls.Load()
	_, err := c.VerifyAccessToken(context.Background(), "t")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("unexpected error: got=%v want=%v", err, usecase.ErrDependencyUnavailable)
	}
	if calls.Load() != before {
		t.Fatal("rejected verification must not reach the account service")
	}
}
