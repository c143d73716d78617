package errors

import (
	"fmt"
	"testing"
)

func TestGetTypeAndReason(t *testing.T) {
	wrapped := fmt.Errorf("send mission: %w", Conflict("ship_not_idle", "ship is on a mission"))

	if got := GetType(wrapped); got != ErrorTypeConflict {
		t.Fatalf("expected conflict got %s", got)
	}
	if got := GetReason(wrapped); got != "ship_not_idle" {
		t.Fatalf("expected ship_not_idle got %s", got)
	}

	plain := fmt.Errorf("boom")
	if GetType(plain) != ErrorTypeInternal {
		t.Fatalf("expected foreign errors to be internal")
	}
	if GetReason(plain) != "internal_error" {
		t.Fatalf("expected internal_error reason for foreign errors")
	}
}

func TestInsufficientDetails(t *testing.T) {
	err := Insufficient("fuel", 12, 4)
	if err.Reason != "insufficient_fuel" {
		t.Fatalf("unexpected reason %s", err.Reason)
	}
	details := GetDetails(err)
	if details["required"] != int64(12) || details["available"] != int64(4) {
		t.Fatalf("unexpected details %+v", details)
	}
}

func TestToIssues(t *testing.T) {
	issues, err := ToIssues([]error{
		nil,
		Conflict("target_not_asteroid", "missions can only target asteroids"),
		Insufficient("fuel", 10, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues got %d", len(issues))
	}
	if issues[1].Reason != "insufficient_fuel" {
		t.Fatalf("unexpected second issue %+v", issues[1])
	}

	if _, err := ToIssues([]error{WrapInternal("db down", fmt.Errorf("x"))}); err == nil {
		t.Fatalf("expected infrastructure error to be returned")
	}
}
