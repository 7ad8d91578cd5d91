package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dodontommy/what-the-game/internal/model"
	"github.com/dodontommy/what-the-game/internal/platform"
	"github.com/dodontommy/what-the-game/internal/service"
	"github.com/dodontommy/what-the-game/internal/session"
)

// LibraryHandler serves the game catalog, per-user library, linked services,
// and recommendations.
type LibraryHandler struct {
	library *service.LibraryService
	recs    *service.RecommendationService
	logger  *slog.Logger
}

func NewLibraryHandler(
	library *service.LibraryService,
	recs *service.RecommendationService,
	logger *slog.Logger,
) *LibraryHandler {
	return &LibraryHandler{
		library: library,
		recs:    recs,
		logger:  logger,
	}
}

// HandleListGames returns a page of the game catalog.
//
// HTTP: GET /api/games?limit=20&offset=0
func (h *LibraryHandler) HandleListGames(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	games, err := h.library.ListGames(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// HandleGetGame returns one catalog entry.
//
// HTTP: GET /api/games/{id}
func (h *LibraryHandler) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.library.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// HandleCreateGame adds a game to the catalog.
//
// HTTP: POST /api/games (behind RequireAuth)
func (h *LibraryHandler) HandleCreateGame(w http.ResponseWriter, r *http.Request) {
	var game model.Game
	if err := json.NewDecoder(r.Body).Decode(&game); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid JSON body",
		})
		return
	}

	if err := h.library.CreateGame(r.Context(), &game); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// HandleListLibrary returns the authenticated user's library.
//
// HTTP: GET /api/library (behind RequireAuth)
func (h *LibraryHandler) HandleListLibrary(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())

	entries, err := h.library.ListLibrary(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleAddToLibrary adds a game to the authenticated user's library.
//
// HTTP: POST /api/library (behind RequireAuth)
func (h *LibraryHandler) HandleAddToLibrary(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())

	var entry model.UserGame
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid JSON body",
		})
		return
	}
	entry.UserID = userID

	if err := h.library.AddToLibrary(r.Context(), &entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// HandleUpdateLibraryEntry updates one of the user's library entries.
//
// HTTP: PUT /api/library/{id} (behind RequireAuth)
func (h *LibraryHandler) HandleUpdateLibraryEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())

	var entry model.UserGame
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid JSON body",
		})
		return
	}
	entry.ID = chi.URLParam(r, "id")

	if err := h.library.UpdateLibraryEntry(r.Context(), userID, &entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleListServices returns the user's linked game services.
//
// HTTP: GET /api/services (behind RequireAuth)
func (h *LibraryHandler) HandleListServices(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())

	links, err := h.library.ListServices(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// HandleLinkService links (or re-links) an external game service.
//
// HTTP: PUT /api/services (behind RequireAuth)
func (h *LibraryHandler) HandleLinkService(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())

	var link model.GameService
	if err := json.NewDecoder(r.Body).Decode(&link); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid JSON body",
		})
		return
	}
	link.UserID = userID

	if err := h.library.LinkService(r.Context(), &link); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// HandleServiceLibrary proxies the user's library on an external platform.
// Unconfigured platforms report configured=false with an empty list instead
// of erroring.
//
// HTTP: GET /api/services/{name}/library (behind RequireAuth)
func (h *LibraryHandler) HandleServiceLibrary(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	link, err := h.library.FindService(r.Context(), userID, name)
	if err != nil {
		writeError(w, err)
		return
	}

	token := ""
	if link != nil {
		token = link.AccessToken
	}
	p := platform.ForService(name, token)

	records, err := p.FetchLibrary(r.Context())
	if err != nil {
		h.logger.Error("platform library fetch failed",
			slog.String("service", name),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"configured": p.Configured(),
		"games":      records,
	})
}

// HandleRecommendations returns the user's stored recommendations.
//
// HTTP: GET /api/recommendations?limit=5 (behind RequireAuth)
func (h *LibraryHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	recs, err := h.recs.Generate(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
