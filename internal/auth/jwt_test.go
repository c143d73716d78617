package auth

import (
	"strings"
	"testing"
	"time"

	"space-mining-server/internal/shared/clock"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

var _ clock.Clock = (*fakeClock)(nil)

func TestGenerateAndValidate(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc, err := NewTokenService(strings.Repeat("k", 32), time.Hour, clk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := svc.Generate(7, "vega", "JAPAN", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.PlayerID != 7 || claims.Faction != "JAPAN" || claims.Username != "vega" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	clk.now = clk.now.Add(2 * time.Hour)
	if _, err := svc.Validate(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	a, _ := NewTokenService(strings.Repeat("a", 32), time.Hour, clk)
	b, _ := NewTokenService(strings.Repeat("b", 32), time.Hour, clk)

	token, _ := a.Generate(1, "x", "EU", "user")
	if _, err := b.Validate(token); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestNewTokenServiceRequiresLongSecret(t *testing.T) {
	if _, err := NewTokenService("short", time.Hour, clock.RealClock{}); err == nil {
		t.Fatalf("expected short secret to be rejected")
	}
}
