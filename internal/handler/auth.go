package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/dodontommy/what-the-game/internal/auth"
	"github.com/dodontommy/what-the-game/internal/service"
	"github.com/dodontommy/what-the-game/internal/session"
)

// AuthHandler manages the OAuth login flow and session lifecycle endpoints.
//
//	GET  /auth/{provider}/login    → state cookie + redirect to the provider
//	GET  /auth/{provider}/callback → exchange code, reconcile, log in
//	GET  /auth/failure             → surface the provider's failure reason
//	POST /logout                   → clear the session
//	GET  /api/me                   → current user + linked identities
type AuthHandler struct {
	providers auth.Registry
	auths     *service.AuthService
	sessions  *session.Manager
	logger    *slog.Logger
}

func NewAuthHandler(
	providers auth.Registry,
	auths *service.AuthService,
	sessions *session.Manager,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		providers: providers,
		auths:     auths,
		sessions:  sessions,
		logger:    logger,
	}
}

// HandleLogin redirects the user to the provider's authorization page.
//
// A random state value is stored in a short-lived cookie and verified on
// callback; this proves the callback was initiated here, not by a CSRF
// attacker. If the visitor is already authenticated the whole flow is
// skipped; straight back home, session untouched.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.CurrentUserID(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	provider, ok := h.providers.Lookup(chi.URLParam(r, "provider"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth login flow: verify state, exchange the
// code for a normalized payload, reconcile it to a local user, establish the
// session, and queue the success notice. Every failure path resolves to a
// redirect with an alert; nothing here is fatal to the process.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	provider, ok := h.providers.Lookup(providerName)
	if !ok {
		http.NotFound(w, r)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state missing or mismatched",
			slog.String("provider", providerName))
		h.failLogin(w, r)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// Provider-reported errors (user denied, bad scopes, ...) go through the
	// failure handler so the reason is surfaced verbatim.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: provider reported failure",
			slog.String("provider", providerName),
			slog.String("error", errParam),
		)
		h.sessions.SetAlert(w, session.AuthFailureAlert(errParam))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.logger.Warn("auth callback: missing code", slog.String("provider", providerName))
		h.failLogin(w, r)
		return
	}

	payload, err := provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: code exchange failed",
			slog.String("provider", providerName),
			slog.String("error", err.Error()),
		)
		h.failLogin(w, r)
		return
	}

	user, err := h.auths.ReconcileOAuthLogin(r.Context(), payload)
	if err != nil {
		// Validation/conflict detail is logged, never shown: the browser
		// gets the generic alert regardless of what went wrong inside.
		h.logger.Error("auth callback: reconciliation failed",
			slog.String("provider", providerName),
			slog.String("error", err.Error()),
		)
		h.failLogin(w, r)
		return
	}

	if err := h.sessions.Login(w, user); err != nil {
		h.logger.Error("auth callback: session issue failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		h.failLogin(w, r)
		return
	}

	h.sessions.SetNotice(w, session.AuthSuccessNotice(payload.Provider))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleFailure is the OAuth failure endpoint the provider middleware
// redirects to. The reason message is surfaced to the user verbatim.
//
// HTTP: GET /auth/failure?message=invalid_credentials
func (h *AuthHandler) HandleFailure(w http.ResponseWriter, r *http.Request) {
	reason := r.URL.Query().Get("message")
	h.sessions.SetAlert(w, session.AuthFailureAlert(reason))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session. Idempotent: logging out while already
// logged out produces the same notice and redirect.
//
// HTTP: POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(w)
	h.sessions.SetNotice(w, session.LogoutNotice)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleMe returns the authenticated user's profile and linked identities.
//
// HTTP: GET /api/me (behind RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := session.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.auths.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("HandleMe: user lookup failed", slog.String("userID", userID))
		writeError(w, err)
		return
	}

	identities, err := h.auths.Identities(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":       user,
		"identities": identities,
	})
}

// failLogin queues the generic failure alert and redirects home.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request) {
	h.sessions.SetAlert(w, session.GenericFailureAlert)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
