package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"space-mining-server/internal/auth"
	"space-mining-server/internal/faction"
	"space-mining-server/internal/player"
	"space-mining-server/internal/shared/clock"
	"space-mining-server/internal/shared/errors"
)

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService(strings.Repeat("x", 32), time.Hour, clock.RealClock{})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestJWTMiddlewareRejectsMissingToken(t *testing.T) {
	a := NewAuthenticator(newTokens(t))
	rec := httptest.NewRecorder()
	a.JWTMiddleware(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/mines", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestJWTMiddlewareAcceptsBearer(t *testing.T) {
	tokens := newTokens(t)
	token, _ := tokens.Generate(3, "orion", "EU", "user")

	var seen *auth.Claims
	h := NewAuthenticator(tokens).JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserFromContext(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/mines", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen == nil || seen.PlayerID != 3 {
		t.Fatalf("expected claims for player 3 got %+v", seen)
	}
}

func TestRequireAdmin(t *testing.T) {
	tokens := newTokens(t)
	a := NewAuthenticator(tokens)

	userToken, _ := tokens.Generate(1, "user1", "EU", "user")
	adminToken, _ := tokens.Generate(2, "admin1", "EU", "admin")

	cases := []struct {
		token  string
		status int
	}{
		{userToken, http.StatusForbidden},
		{adminToken, http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/celestial/spawn-asteroids", nil)
		req.Header.Set("Authorization", "Bearer "+tc.token)
		rec := httptest.NewRecorder()
		a.RequireAdmin(okHandler()).ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("expected %d got %d", tc.status, rec.Code)
		}
	}
}

type stubPlayers map[int]*player.Player

func (s stubPlayers) GetPlayerByID(_ context.Context, id int) (*player.Player, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return nil, errors.NotFoundf("player %d not found", id)
}

func TestGameAccessResolvesActorFromStorage(t *testing.T) {
	tokens := newTokens(t)
	token, _ := tokens.Generate(5, "lyra", "EU", "user")
	players := stubPlayers{5: {ID: 5, Username: "lyra", Faction: faction.Japan}}

	var actor player.Actor
	var ok bool
	h := NewGameAccessMiddleware(NewAuthenticator(tokens), players).Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok = GetActor(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/ships/fleet", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !ok || actor.PlayerID != 5 || actor.Faction != faction.Japan {
		t.Fatalf("expected stored faction JAPAN got %+v", actor)
	}

	deleted, _ := tokens.Generate(9, "ghost", "EU", "user")
	req = httptest.NewRequest(http.MethodGet, "/api/ships/fleet", nil)
	req.Header.Set("Authorization", "Bearer "+deleted)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown player got %d", rec.Code)
	}
}

func TestRateLimiterBlocksBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 2, Enabled: true})
	defer rl.Stop()
	h := rl.Middleware(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/missions", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 1})
	rl.getLimiter("10.0.0.2")

	rl.evictIdle(time.Now().Add(time.Minute))

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if len(rl.clients) != 0 {
		t.Fatalf("expected idle client to be evicted")
	}
}

func TestGetClientIPTrustProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")

	if got := getClientIP(req, true); got != "203.0.113.5" {
		t.Fatalf("expected forwarded ip got %s", got)
	}
	if got := getClientIP(req, false); got != "192.168.1.1" {
		t.Fatalf("expected remote ip got %s", got)
	}
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" || rec.Header().Get(requestIDHeader) != seen {
		t.Fatalf("expected generated id to be echoed, got %q / %q", seen, rec.Header().Get(requestIDHeader))
	}

	const supplied = "0b9d7c5e-4c55-4f3c-9a53-4fb0f0f4e9a1"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, supplied)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != supplied {
		t.Fatalf("expected supplied id to be kept got %s", seen)
	}
}
