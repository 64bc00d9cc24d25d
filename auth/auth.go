// Package auth implements signed-cookie sessions for dashboard users.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/invoice-dashboard/httpx"
	"github.com/google/uuid"
)

type ctxKey string

const (
	sessionCookieName = "session"
	sessionTTL        = 14 * 24 * time.Hour

	userIDCtxKey = ctxKey("userID")

	devSecret = "devsessionsecret"
)

// UserVerifier is an optional callback to validate that a session's user still exists.
// Set it during app bootstrap via SetUserVerifier. If nil, no extra verification is performed.
type UserVerifier func(ctx context.Context, userID string) bool

var (
	mu       sync.RWMutex
	secret   = devSecret
	verifier UserVerifier
)

// SetUserVerifier configures the global verifier used by RequireAuth.
func SetUserVerifier(v UserVerifier) {
	mu.Lock()
	verifier = v
	mu.Unlock()
}

// SetSecret sets the HMAC key used to sign session cookies. Empty keeps the dev default.
func SetSecret(s string) {
	if s == "" {
		return
	}
	mu.Lock()
	secret = s
	mu.Unlock()
}

func sign(value string) string {
	mu.RLock()
	key := secret
	mu.RUnlock()
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie with the user id.
func CreateSession(w http.ResponseWriter, userID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    userID + "." + sign(userID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionTTL),
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie and returns the user id.
func ParseSession(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	uid, sig, ok := strings.Cut(c.Value, ".")
	if !ok {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(sign(uid))) {
		return "", false
	}
	if _, err := uuid.Parse(uid); err != nil {
		return "", false
	}
	return uid, true
}

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDCtxKey).(string)
	return id, ok && id != ""
}

// Middleware attaches user id to request context if present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := ParseSession(r); ok {
			r = r.WithContext(WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth redirects to /login if not authenticated (HTML) or returns 401 JSON.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if ok {
			mu.RLock()
			v := verifier
			mu.RUnlock()
			if v != nil && !v(r.Context(), uid) {
				// Session refers to a user that no longer exists.
				ClearSession(w)
				ok = false
			}
		}
		if !ok {
			if httpx.WantsJSON(r) {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
