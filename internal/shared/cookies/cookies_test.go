package cookies

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"space-mining-server/internal/shared/config"
)

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/mines", nil)
	req.Header.Set("Authorization", "Bearer abc")
	if got := TokenFromRequest(req); got != "abc" {
		t.Fatalf("expected bearer token got %q", got)
	}

	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "cookie-token"})
	if got := TokenFromRequest(req); got != "cookie-token" {
		t.Fatalf("expected cookie to win got %q", got)
	}
}

func TestSetAndClearAuthCookie(t *testing.T) {
	cfg := &config.Config{
		Auth:     config.AuthConfig{TokenExpiration: time.Hour, CookieSameSite: "strict"},
		Frontend: config.FrontendConfig{URL: "https://play.example.com:443"},
	}

	rec := httptest.NewRecorder()
	SetAuthCookie(rec, cfg, "tok")
	c := rec.Result().Cookies()[0]
	if c.Value != "tok" || c.MaxAge != 3600 || c.Domain != "play.example.com" || c.SameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected cookie %+v", c)
	}

	rec = httptest.NewRecorder()
	ClearAuthCookie(rec, cfg)
	if rec.Result().Cookies()[0].MaxAge >= 0 {
		t.Fatalf("expected cleared cookie to expire")
	}
}

func TestExtractDomainLocalhost(t *testing.T) {
	if got := extractDomain("http://localhost:3000"); got != "" {
		t.Fatalf("expected empty domain for localhost got %q", got)
	}
}
