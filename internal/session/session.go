// Package session is the session lifecycle layer: it turns a reconciled User
// into an authenticated browser session, turns logout into session teardown,
// and carries the one-shot notice/alert messages shown on the next page load.
//
// The session store is an HttpOnly cookie holding a signed JWT whose subject
// is the user's internal ID. Establishing or clearing a session is therefore
// a pure cookie operation; no server-side session table, no shared mutable
// state between requests. Login and Logout are both idempotent: setting the
// cookie again for the same user, or clearing an already-cleared cookie, are
// no-ops from the caller's point of view.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dodontommy/what-the-game/internal/auth"
	"github.com/dodontommy/what-the-game/internal/model"
)

const (
	sessionCookie = "session"
	flashCookie   = "flash"
)

// Flash is a one-shot user-facing message pair. At most one of Notice
// (success) and Alert (failure) is set per transition. It lives in a
// single-use cookie consumed by the next rendered view and never persists
// past that response.
type Flash struct {
	Notice string `json:"notice,omitempty"`
	Alert  string `json:"alert,omitempty"`
}

// Manager implements the Anonymous ⇄ Authenticated state transitions over
// the cookie store.
type Manager struct {
	tokens *auth.TokenService
	secure bool // set Secure on cookies (HTTPS deployments)
}

// NewManager creates a Manager that signs session cookies with the given
// token service. secure should be true whenever the app is served over HTTPS.
func NewManager(tokens *auth.TokenService, secure bool) *Manager {
	return &Manager{tokens: tokens, secure: secure}
}

// Login stores the user's ID as the authenticated principal for the current
// session. Calling it again with the same user simply re-issues the cookie.
func (m *Manager) Login(w http.ResponseWriter, user *model.User) error {
	token, err := m.tokens.Generate(user.ID)
	if err != nil {
		return fmt.Errorf("session: issuing session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout clears the authenticated principal. Safe to call when already
// logged out; the browser just deletes a cookie it doesn't have.
func (m *Manager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CurrentUserID returns the authenticated principal for the request, or
// ("", false) when the request is anonymous (no cookie, or an expired or
// tampered token; both count as logged out, not as errors).
func (m *Manager) CurrentUserID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	userID, err := m.tokens.Validate(cookie.Value)
	if err != nil {
		return "", false
	}
	return userID, true
}

// SetNotice queues a one-shot success message for the next rendered view.
func (m *Manager) SetNotice(w http.ResponseWriter, message string) {
	m.setFlash(w, Flash{Notice: message})
}

// SetAlert queues a one-shot failure message for the next rendered view.
// It does not touch session state.
func (m *Manager) SetAlert(w http.ResponseWriter, message string) {
	m.setFlash(w, Flash{Alert: message})
}

// PopFlash returns the pending flash message, clearing it so it cannot
// survive past this response. Returns (Flash{}, false) when none is pending.
func (m *Manager) PopFlash(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return Flash{}, false
	}

	// Clear unconditionally; a malformed flash is dropped, not retried.
	http.SetCookie(w, &http.Cookie{
		Name:   flashCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return Flash{}, false
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil {
		return Flash{}, false
	}
	return f, true
}

// setFlash encodes the flash as base64 JSON; cookie values cannot carry
// spaces or punctuation raw.
func (m *Manager) setFlash(w http.ResponseWriter, f Flash) {
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// contextKey is an unexported type for context keys so no other package can
// read or shadow the values this package stores.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth enforces authentication on protected routes: it resolves the
// session principal and stores it in the request context, or stops the chain
// with 401.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.CurrentUserID(r)
		if !ok {
			http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext retrieves the authenticated user's ID placed in the
// context by RequireAuth. Returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// Success and failure copy produced by the session lifecycle transitions.
const (
	LogoutNotice        = "Successfully logged out."
	GenericFailureAlert = "Authentication failed. Please try again."
)

// AuthSuccessNotice renders the post-login notice for a provider, e.g.
// "Successfully authenticated with Google!".
func AuthSuccessNotice(provider string) string {
	return fmt.Sprintf("Successfully authenticated with %s!", providerDisplayName(provider))
}

// AuthFailureAlert renders the verbatim provider failure reason, e.g.
// "Authentication failed: invalid_credentials".
func AuthFailureAlert(reason string) string {
	return fmt.Sprintf("Authentication failed: %s", reason)
}

// providerDisplayName maps a provider key to its human-facing name.
func providerDisplayName(provider string) string {
	switch provider {
	case "gog":
		return "GOG"
	case "":
		return ""
	}
	return strings.ToUpper(provider[:1]) + provider[1:]
}
