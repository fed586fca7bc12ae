package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"objectmonitor/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

func newTestAuth(t *testing.T, password string) *Auth {
	t.Helper()
	a, err := NewAuth(&config.Config{Password: password, SessionSecret: "test-secret"})
	if err != nil {
		t.Fatalf("NewAuth failed: %v", err)
	}
	return a
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func serve(a *Auth, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Middleware(okHandler()).ServeHTTP(rec, req)
	return rec
}

// ==========================================
// Tokens
// ==========================================

func TestAuth_TokenRoundTrip(t *testing.T) {
	a := newTestAuth(t, "pw")
	token, err := a.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if err := a.Verify(token); err != nil {
		t.Fatalf("Expected valid token, got %v", err)
	}
}

func TestAuth_RejectsForeignSecret(t *testing.T) {
	a := newTestAuth(t, "pw")
	other, err := NewAuth(&config.Config{Password: "pw", SessionSecret: "other"})
	if err != nil {
		t.Fatalf("NewAuth failed: %v", err)
	}
	token, _ := other.IssueToken()
	if err := a.Verify(token); err == nil {
		t.Error("Token signed with another secret should be rejected")
	}
}

func TestAuth_RejectsExpiredToken(t *testing.T) {
	a := newTestAuth(t, "pw")
	a.now = func() time.Time { return time.Now().Add(-2 * SessionTTL) }
	token, _ := a.IssueToken()

	a.now = time.Now
	if err := a.Verify(token); err == nil {
		t.Error("Expired token should be rejected")
	}
}

func TestAuth_RejectsOtherAlgorithm(t *testing.T) {
	a := newTestAuth(t, "pw")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   tokenSubject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if err := a.Verify(token); err == nil {
		t.Error("HS512 token should be rejected")
	}
}

func TestAuth_CheckPassword(t *testing.T) {
	a := newTestAuth(t, "secret")
	if !a.CheckPassword("secret") {
		t.Error("Correct password rejected")
	}
	if a.CheckPassword("Secret") || a.CheckPassword("") {
		t.Error("Wrong password accepted")
	}
}

func TestNewAuth_GeneratesSecret(t *testing.T) {
	a, err := NewAuth(&config.Config{Password: "pw"})
	if err != nil {
		t.Fatalf("NewAuth failed: %v", err)
	}
	if len(a.secret) != 32 {
		t.Errorf("Expected 32 byte generated secret, got %d", len(a.secret))
	}
}

// ==========================================
// Middleware
// ==========================================

func TestMiddleware_DisabledPassesThrough(t *testing.T) {
	a := newTestAuth(t, "")
	rec := serve(a, httptest.NewRequest(http.MethodGet, "/detection_stats", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected pass-through, got %d", rec.Code)
	}
}

func TestMiddleware_PublicPaths(t *testing.T) {
	a := newTestAuth(t, "pw")
	for _, path := range []string{"/login", "/auth/login", "/css/style.css", "/js/script.js", "/metrics"} {
		rec := serve(a, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusTeapot {
			t.Errorf("%s: expected pass-through, got %d", path, rec.Code)
		}
	}
}

func TestMiddleware_UnauthenticatedAPIGets401(t *testing.T) {
	a := newTestAuth(t, "pw")
	for _, path := range []string{"/detection_stats", "/video", "/api/alerts", "/ws/stats"} {
		rec := serve(a, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestMiddleware_UnauthenticatedPageRedirects(t *testing.T) {
	a := newTestAuth(t, "pw")
	rec := serve(a, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Expected redirect to /login, got %q", loc)
	}
}

func TestMiddleware_ValidCookie(t *testing.T) {
	a := newTestAuth(t, "pw")
	token, _ := a.IssueToken()

	req := httptest.NewRequest(http.MethodGet, "/detection_stats", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rec := serve(a, req)
	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected pass-through with valid cookie, got %d", rec.Code)
	}
}

func TestMiddleware_TamperedCookie(t *testing.T) {
	a := newTestAuth(t, "pw")
	token, _ := a.IssueToken()

	req := httptest.NewRequest(http.MethodGet, "/detection_stats", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token + "x"})
	rec := serve(a, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for tampered cookie, got %d", rec.Code)
	}
}
