package handler

import (
	"net/http"

	"github.com/dodontommy/what-the-game/internal/session"
)

// HomeHandler serves the landing view: authentication state plus any pending
// one-shot notice/alert. Reading the flash here consumes it; it will not
// appear on the next request.
type HomeHandler struct {
	sessions *session.Manager
}

func NewHomeHandler(sessions *session.Manager) *HomeHandler {
	return &HomeHandler{sessions: sessions}
}

// HandleHome renders the landing payload.
//
// HTTP: GET /
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	_, authenticated := h.sessions.CurrentUserID(r)

	view := map[string]any{
		"authenticated": authenticated,
	}
	if flash, ok := h.sessions.PopFlash(w, r); ok {
		if flash.Notice != "" {
			view["notice"] = flash.Notice
		}
		if flash.Alert != "" {
			view["alert"] = flash.Alert
		}
	}

	writeJSON(w, http.StatusOK, view)
}
