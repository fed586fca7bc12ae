package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"objectmonitor/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// CookieName holds the signed session token.
	CookieName = "session"
	// SessionTTL is how long a login stays valid.
	SessionTTL = 30 * 24 * time.Hour

	tokenSubject = "viewer"
)

// Auth issues and verifies HS256 session tokens for the single shared password.
type Auth struct {
	password string
	secret   []byte
	now      func() time.Time
}

// NewAuth builds an Auth from the configuration. Without SESSION_SECRET a random
// key is generated, so sessions do not survive a restart.
func NewAuth(cfg *config.Config) (*Auth, error) {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	return &Auth{password: cfg.Password, secret: secret, now: time.Now}, nil
}

// Enabled reports whether a password is required at all.
func (a *Auth) Enabled() bool {
	return a.password != ""
}

// CheckPassword compares in constant time.
func (a *Auth) CheckPassword(password string) bool {
	return subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
}

// IssueToken signs a new session token.
func (a *Auth) IssueToken() (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   tokenSubject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify checks signature, algorithm, expiry and subject of a session token.
func (a *Auth) Verify(token string) error {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithSubject(tokenSubject),
		jwt.WithExpirationRequired(),
	)
	return err
}

// publicPath reports paths reachable without a session.
func publicPath(path string) bool {
	return path == "/login" ||
		path == "/login.html" ||
		path == "/auth/login" ||
		path == "/metrics" ||
		strings.HasPrefix(path, "/css/") ||
		strings.HasPrefix(path, "/js/")
}

// Middleware sprawdza, czy użytkownik ma ważny token sesji.
// Bez hasła w konfiguracji przepuszcza wszystko.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() || publicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// Sprawdź czy użytkownik jest zalogowany
		err := http.ErrNoCookie
		if cookie, cerr := r.Cookie(CookieName); cerr == nil {
			err = a.Verify(cookie.Value)
		}
		if err == nil {
			next.ServeHTTP(w, r)
			return
		}

		// Jeśli to zapytanie AJAX/API, zwróć 401
		if wantsJSON(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		// Dla zwykłych żądań przekieruj na login
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

func wantsJSON(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		r.Header.Get("Content-Type") == "application/json" ||
		strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.HasPrefix(r.URL.Path, "/ws/") ||
		r.URL.Path == "/detection_stats" ||
		r.URL.Path == "/video"
}
