package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"smsledger/internal/database"
	"smsledger/internal/logger"
)

const (
	SessionCookieName = "smsledger_session"
	DefaultSessionTTL = 30 * 24 * time.Hour
	devPassword       = "changeme"
)

// publicPaths are served without a session
var publicPaths = map[string]bool{
	"/api/login":   true,
	"/api/version": true,
}

// Auth guards the API with a single shared password and server-side sessions.
// Browsers carry the token in a cookie; the phone forwarder sends it as a
// bearer token.
type Auth struct {
	db       *database.DB
	password string
	ttl      time.Duration
	now      func() time.Time
}

// New creates an Auth. An empty password falls back to a development default.
func New(db *database.DB, password string, ttl time.Duration) *Auth {
	if password == "" {
		logger.Default().Warn("auth_default_password", "hint", "set SMSLEDGER_PASSWORD")
		password = devPassword
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Auth{db: db, password: password, ttl: ttl, now: time.Now}
}

// CheckPassword verifies the provided password
func (a *Auth) CheckPassword(ctx context.Context, password string) bool {
	success := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	l := logger.FromContext(ctx)

	if success {
		l.Info("auth_login_success")
	} else {
		l.Warn("auth_login_failed", "reason", "invalid_password")
	}
	return success
}

// CreateSession creates a new session and returns the token
func (a *Auth) CreateSession(ctx context.Context) (string, error) {
	l := logger.FromContext(ctx)

	token, err := generateToken()
	if err != nil {
		l.Error("auth_session_create_error", "error", err.Error())
		return "", fmt.Errorf("generate token: %w", err)
	}

	expiresAt := a.now().Add(a.ttl)
	if err := a.db.CreateSession(ctx, token, expiresAt); err != nil {
		l.Error("auth_session_create_error", "error", err.Error())
		return "", err
	}

	l.Info("auth_session_created", "expires_at", expiresAt.Format(time.RFC3339))
	return token, nil
}

// ValidateSession checks if the token is valid and not expired
func (a *Auth) ValidateSession(ctx context.Context, token string) bool {
	l := logger.FromContext(ctx)

	s, err := a.db.GetSession(ctx, token)
	if err != nil {
		reason := "not_found"
		if !errors.Is(err, database.ErrSessionNotFound) {
			reason = "lookup_error"
		}
		l.Debug("auth_session_invalid", "reason", reason)
		return false
	}

	if a.now().After(s.ExpiresAt) {
		l.Debug("auth_session_invalid", "reason", "expired")
		return false
	}
	return true
}

// DeleteSession removes a session
func (a *Auth) DeleteSession(ctx context.Context, token string) error {
	if err := a.db.DeleteSession(ctx, token); err != nil {
		logger.FromContext(ctx).Error("auth_session_delete_error", "error", err.Error())
		return err
	}
	logger.FromContext(ctx).Info("auth_logout")
	return nil
}

// CleanExpiredSessions removes expired sessions
func (a *Auth) CleanExpiredSessions(ctx context.Context) error {
	n, err := a.db.DeleteExpiredSessions(ctx, a.now())
	if err != nil {
		return err
	}
	if n > 0 {
		logger.FromContext(ctx).Info("auth_sessions_cleaned", "count", n)
	}
	return nil
}

// SetSessionCookie sets the session cookie on the response
func (a *Auth) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie
func (a *Auth) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// TokenFromRequest returns the bearer token or, failing that, the session cookie
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Middleware rejects requests without a valid session with 401
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token := TokenFromRequest(r)
		if token == "" || !a.ValidateSession(ctx, token) {
			logger.FromContext(ctx).Debug("auth_unauthorized", "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
