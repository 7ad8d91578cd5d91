package handler_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dodontommy/what-the-game/internal/auth"
	"github.com/dodontommy/what-the-game/internal/handler"
	"github.com/dodontommy/what-the-game/internal/repository/sqlite"
	"github.com/dodontommy/what-the-game/internal/service"
	"github.com/dodontommy/what-the-game/internal/session"
)

// fakeProvider stands in for a real OAuth provider: AuthURL is a fixed
// address and Exchange returns a canned payload (or error) without any HTTP.
type fakeProvider struct {
	name        string
	payload     *auth.Payload
	exchangeErr error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) AuthURL(state string) string {
	return "https://provider.example/authorize?state=" + state
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (*auth.Payload, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.payload, nil
}

// testEnv wires the full login stack (sqlite in-memory, reconciliation
// service, session manager, routes) around a fake provider.
type testEnv struct {
	router   *chi.Mux
	sessions *session.Manager
	provider *fakeProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	sessions := session.NewManager(tokens, false)

	provider := &fakeProvider{
		name: "google",
		payload: &auth.Payload{
			Provider: "google",
			UID:      "g-12345",
			Info: auth.Info{
				Email: "jane@example.com",
				Name:  "Jane Doe",
			},
			Credentials: auth.Credentials{Token: "access-1"},
		},
	}

	auths := service.NewAuthService(db.Users(), db.Identities(), auth.NewPasswordServiceForTest(4), logger)
	h := handler.NewAuthHandler(auth.Registry{"google": provider}, auths, sessions, logger)

	router := chi.NewRouter()
	router.Get("/auth/failure", h.HandleFailure)
	router.Get("/auth/{provider}/login", h.HandleLogin)
	router.Get("/auth/{provider}/callback", h.HandleCallback)
	router.Post("/logout", h.HandleLogout)
	router.Group(func(r chi.Router) {
		r.Use(sessions.RequireAuth)
		r.Get("/api/me", h.HandleMe)
	})

	return &testEnv{router: router, sessions: sessions, provider: provider}
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// popFlash decodes the one-shot flash cookie a handler queued.
func popFlash(t *testing.T, rec *httptest.ResponseRecorder) session.Flash {
	t.Helper()
	cookie := cookieByName(rec, "flash")
	require.NotNil(t, cookie, "expected a flash cookie")
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	require.NoError(t, err)
	var flash session.Flash
	require.NoError(t, json.Unmarshal(raw, &flash))
	return flash
}

// completeLogin runs the full login flow and returns the session cookie.
func completeLogin(t *testing.T, env *testEnv) *http.Cookie {
	t.Helper()

	loginRec := httptest.NewRecorder()
	env.router.ServeHTTP(loginRec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	state := cookieByName(loginRec, "oauth_state")
	require.NotNil(t, state, "login did not set the state cookie")

	callbackReq := httptest.NewRequest(http.MethodGet,
		"/auth/google/callback?state="+state.Value+"&code=fake-code", nil)
	callbackReq.AddCookie(state)
	callbackRec := httptest.NewRecorder()
	env.router.ServeHTTP(callbackRec, callbackReq)

	require.Equal(t, http.StatusSeeOther, callbackRec.Code)
	sessionCookie := cookieByName(callbackRec, "session")
	require.NotNil(t, sessionCookie, "callback did not establish a session")
	return sessionCookie
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestHandleLogin_RedirectsToProvider(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	state := cookieByName(rec, "oauth_state")
	require.NotNil(t, state)
	assert.Equal(t, "https://provider.example/authorize?state="+state.Value,
		rec.Header().Get("Location"))
}

func TestHandleLogin_UnknownProvider(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/facebook/login", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleLogin_AlreadyAuthenticated(t *testing.T) {
	env := newTestEnv(t)
	sessionCookie := completeLogin(t, env)

	// A second login attempt skips the provider entirely.
	req := httptest.NewRequest(http.MethodGet, "/auth/google/login", nil)
	req.AddCookie(sessionCookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Nil(t, cookieByName(rec, "oauth_state"), "no new OAuth flow should start")
}

// =========================================================================
// CALLBACK TESTS
// =========================================================================

func TestHandleCallback_SuccessfulLogin(t *testing.T) {
	env := newTestEnv(t)

	loginRec := httptest.NewRecorder()
	env.router.ServeHTTP(loginRec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	state := cookieByName(loginRec, "oauth_state")
	require.NotNil(t, state)

	req := httptest.NewRequest(http.MethodGet,
		"/auth/google/callback?state="+state.Value+"&code=fake-code", nil)
	req.AddCookie(state)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	sessionCookie := cookieByName(rec, "session")
	require.NotNil(t, sessionCookie, "no session cookie after successful login")

	// The session resolves to the reconciled user.
	check := httptest.NewRequest(http.MethodGet, "/", nil)
	check.AddCookie(sessionCookie)
	userID, ok := env.sessions.CurrentUserID(check)
	assert.True(t, ok)
	assert.NotEmpty(t, userID)

	flash := popFlash(t, rec)
	assert.Equal(t, "Successfully authenticated with Google!", flash.Notice)
	assert.Empty(t, flash.Alert)

	// The state cookie is single-use.
	cleared := cookieByName(rec, "oauth_state")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestHandleCallback_StateMismatch(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet,
		"/auth/google/callback?state=forged&code=fake-code", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "the-real-state"})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Nil(t, cookieByName(rec, "session"), "no session on a forged callback")

	flash := popFlash(t, rec)
	assert.Equal(t, "Authentication failed. Please try again.", flash.Alert)
}

func TestHandleCallback_ProviderReportedError(t *testing.T) {
	env := newTestEnv(t)

	loginRec := httptest.NewRecorder()
	env.router.ServeHTTP(loginRec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	state := cookieByName(loginRec, "oauth_state")
	require.NotNil(t, state)

	// The provider sends the user back with error instead of code.
	req := httptest.NewRequest(http.MethodGet,
		"/auth/google/callback?state="+state.Value+"&error=access_denied", nil)
	req.AddCookie(state)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)

	flash := popFlash(t, rec)
	assert.Equal(t, "Authentication failed: access_denied", flash.Alert)
	assert.Empty(t, flash.Notice)
}

func TestHandleCallback_ExchangeFailure(t *testing.T) {
	env := newTestEnv(t)
	env.provider.exchangeErr = errors.New("token endpoint unreachable")

	loginRec := httptest.NewRecorder()
	env.router.ServeHTTP(loginRec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	state := cookieByName(loginRec, "oauth_state")
	require.NotNil(t, state)

	req := httptest.NewRequest(http.MethodGet,
		"/auth/google/callback?state="+state.Value+"&code=fake-code", nil)
	req.AddCookie(state)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Nil(t, cookieByName(rec, "session"))

	flash := popFlash(t, rec)
	assert.Equal(t, "Authentication failed. Please try again.", flash.Alert)
}

func TestHandleCallback_ReturningUserKeepsAccount(t *testing.T) {
	env := newTestEnv(t)

	first := completeLogin(t, env)
	second := completeLogin(t, env)

	check := func(c *http.Cookie) string {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(c)
		id, ok := env.sessions.CurrentUserID(req)
		require.True(t, ok)
		return id
	}
	assert.Equal(t, check(first), check(second), "both logins should resolve to the same user")
}

// =========================================================================
// FAILURE / LOGOUT / ME TESTS
// =========================================================================

func TestHandleFailure_SurfacesReasonVerbatim(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/auth/failure?message=invalid_credentials", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	flash := popFlash(t, rec)
	assert.Equal(t, "Authentication failed: invalid_credentials", flash.Alert)
}

func TestHandleLogout(t *testing.T) {
	env := newTestEnv(t)
	sessionCookie := completeLogin(t, env)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(sessionCookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)

	cleared := cookieByName(rec, "session")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	flash := popFlash(t, rec)
	assert.Equal(t, "Successfully logged out.", flash.Notice)
}

func TestHandleLogout_WhenAnonymous(t *testing.T) {
	env := newTestEnv(t)

	// Logging out without a session is the same as logging out with one.
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	flash := popFlash(t, rec)
	assert.Equal(t, "Successfully logged out.", flash.Notice)
}

func TestHandleMe(t *testing.T) {
	env := newTestEnv(t)
	sessionCookie := completeLogin(t, env)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(sessionCookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		User struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"user"`
		Identities []struct {
			Provider string `json:"provider"`
			UID      string `json:"uid"`
		} `json:"identities"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	assert.Equal(t, "Jane Doe", body.User.Username)
	assert.Equal(t, "jane@example.com", body.User.Email)
	require.Len(t, body.Identities, 1)
	assert.Equal(t, "google", body.Identities[0].Provider)
	assert.Equal(t, "g-12345", body.Identities[0].UID)
}

func TestHandleMe_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
