package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"space-mining-server/internal/shared/errors"
)

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/ships/fleet/12", nil)
	r.SetPathValue("id", "12")
	id, err := PathID(r, "id")
	if err != nil || id != 12 {
		t.Fatalf("expected 12 got %d %v", id, err)
	}

	for _, raw := range []string{"", "abc", "0", "-3"} {
		r.SetPathValue("id", raw)
		if _, err := PathID(r, "id"); errors.GetType(err) != errors.ErrorTypeValidation {
			t.Fatalf("expected validation error for %q got %v", raw, err)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Scout"}`))
	if err := DecodeJSON(httptest.NewRecorder(), r, &body); err != nil || body.Name != "Scout" {
		t.Fatalf("unexpected decode result %q %v", body.Name, err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	if err := DecodeJSON(httptest.NewRecorder(), r, &body); errors.GetType(err) != errors.ErrorTypeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=7", nil)
	if v, _ := QueryInt(r, "limit", 50); v != 7 {
		t.Fatalf("expected 7 got %d", v)
	}
	if v, _ := QueryInt(r, "missing", 50); v != 50 {
		t.Fatalf("expected fallback got %d", v)
	}
}
