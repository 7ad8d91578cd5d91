package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dodontommy/what-the-game/internal/auth"
	"github.com/dodontommy/what-the-game/internal/model"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewManager(tokens, false)
}

// cookieByName digs a named cookie out of a recorded response, or nil.
func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// =========================================================================
// LOGIN / LOGOUT TESTS
// =========================================================================

func TestLoginEstablishesSession(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()

	if err := m.Login(rec, &model.User{ID: "user-1"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	cookie := cookieByName(t, rec, "session")
	if cookie == nil {
		t.Fatal("Login() did not set the session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	// A request carrying the cookie resolves back to the same user.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	userID, ok := m.CurrentUserID(req)
	if !ok {
		t.Fatal("CurrentUserID() = anonymous, want authenticated")
	}
	if userID != "user-1" {
		t.Errorf("CurrentUserID() = %q, want %q", userID, "user-1")
	}
}

func TestLoginIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	user := &model.User{ID: "user-1"}

	// Logging in twice just re-issues the cookie; both resolve to the user.
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		if err := m.Login(rec, user); err != nil {
			t.Fatalf("Login() #%d error = %v", i+1, err)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookieByName(t, rec, "session"))
		if userID, ok := m.CurrentUserID(req); !ok || userID != "user-1" {
			t.Fatalf("CurrentUserID() after login #%d = (%q, %v), want (user-1, true)", i+1, userID, ok)
		}
	}
}

func TestLogoutClearsSession(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()

	m.Logout(rec)

	cookie := cookieByName(t, rec, "session")
	if cookie == nil {
		t.Fatal("Logout() did not touch the session cookie")
	}
	if cookie.MaxAge != -1 {
		t.Errorf("session cookie MaxAge = %d, want -1", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Errorf("session cookie value = %q, want empty", cookie.Value)
	}
}

func TestLogoutWhenAnonymous(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()

	// No session existed; logging out is still fine.
	m.Logout(rec)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := m.CurrentUserID(req); ok {
		t.Error("CurrentUserID() after logout = authenticated, want anonymous")
	}
}

func TestCurrentUserID_Anonymous(t *testing.T) {
	m := newTestManager(t)

	t.Run("no cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if _, ok := m.CurrentUserID(req); ok {
			t.Error("CurrentUserID() without cookie should be anonymous")
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "not.a.jwt"})
		if _, ok := m.CurrentUserID(req); ok {
			t.Error("CurrentUserID() with a garbage token should be anonymous")
		}
	})
}

// =========================================================================
// FLASH TESTS
// =========================================================================

func TestFlashIsOneShot(t *testing.T) {
	m := newTestManager(t)

	rec := httptest.NewRecorder()
	m.SetNotice(rec, "Successfully logged out.")

	flashCookie := cookieByName(t, rec, "flash")
	if flashCookie == nil {
		t.Fatal("SetNotice() did not set the flash cookie")
	}

	// First read returns the message and clears the cookie.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(flashCookie)
	popRec := httptest.NewRecorder()

	flash, ok := m.PopFlash(popRec, req)
	if !ok {
		t.Fatal("PopFlash() found no flash, want one")
	}
	if flash.Notice != "Successfully logged out." {
		t.Errorf("flash.Notice = %q, want %q", flash.Notice, "Successfully logged out.")
	}
	if flash.Alert != "" {
		t.Errorf("flash.Alert = %q, want empty", flash.Alert)
	}

	cleared := cookieByName(t, popRec, "flash")
	if cleared == nil || cleared.MaxAge != -1 {
		t.Error("PopFlash() did not clear the flash cookie")
	}

	// A follow-up request without the cookie sees nothing.
	again := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := m.PopFlash(httptest.NewRecorder(), again); ok {
		t.Error("PopFlash() on a second request should find nothing")
	}
}

func TestPopFlash_MalformedCookie(t *testing.T) {
	m := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "flash", Value: "%%%not-base64%%%"})
	rec := httptest.NewRecorder()

	if _, ok := m.PopFlash(rec, req); ok {
		t.Error("PopFlash() should drop a malformed flash")
	}
	// Even a malformed flash gets cleared rather than retried.
	if cleared := cookieByName(t, rec, "flash"); cleared == nil || cleared.MaxAge != -1 {
		t.Error("PopFlash() should clear a malformed flash cookie")
	}
}

func TestSetAlert(t *testing.T) {
	m := newTestManager(t)

	rec := httptest.NewRecorder()
	m.SetAlert(rec, "Authentication failed. Please try again.")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookieByName(t, rec, "flash"))

	flash, ok := m.PopFlash(httptest.NewRecorder(), req)
	if !ok {
		t.Fatal("PopFlash() found no flash, want one")
	}
	if flash.Alert != "Authentication failed. Please try again." {
		t.Errorf("flash.Alert = %q, want the generic failure alert", flash.Alert)
	}
}

// =========================================================================
// MIDDLEWARE TESTS
// =========================================================================

func TestRequireAuth(t *testing.T) {
	m := newTestManager(t)

	var gotUserID string
	protected := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("anonymous request is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("authenticated request passes with principal in context", func(t *testing.T) {
		loginRec := httptest.NewRecorder()
		if err := m.Login(loginRec, &model.User{ID: "user-7"}); err != nil {
			t.Fatalf("Login() error = %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(cookieByName(t, loginRec, "session"))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if gotUserID != "user-7" {
			t.Errorf("context userID = %q, want %q", gotUserID, "user-7")
		}
	})
}

func TestUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := UserIDFromContext(req.Context()); ok {
		t.Error("UserIDFromContext() on a bare context should report anonymous")
	}
}

// =========================================================================
// MESSAGE TESTS
// =========================================================================

func TestAuthSuccessNotice(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{provider: "google", want: "Successfully authenticated with Google!"},
		{provider: "facebook", want: "Successfully authenticated with Facebook!"},
		{provider: "gog", want: "Successfully authenticated with GOG!"},
		{provider: "steam", want: "Successfully authenticated with Steam!"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			if got := AuthSuccessNotice(tt.provider); got != tt.want {
				t.Errorf("AuthSuccessNotice(%q) = %q, want %q", tt.provider, got, tt.want)
			}
		})
	}
}

func TestAuthFailureAlert(t *testing.T) {
	got := AuthFailureAlert("invalid_credentials")
	want := "Authentication failed: invalid_credentials"
	if got != want {
		t.Errorf("AuthFailureAlert() = %q, want %q", got, want)
	}
}

func TestLogoutNotice(t *testing.T) {
	if LogoutNotice != "Successfully logged out." {
		t.Errorf("LogoutNotice = %q", LogoutNotice)
	}
}
