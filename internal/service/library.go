package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dodontommy/what-the-game/internal/apperror"
	"github.com/dodontommy/what-the-game/internal/model"
	"github.com/dodontommy/what-the-game/internal/repository"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// LibraryService handles the game catalog, per-user libraries, and linked
// game-service accounts. All field-level validation for these records lives
// here; repositories only persist.
type LibraryService struct {
	games    repository.GameRepository
	library  repository.UserGameRepository
	services repository.GameServiceRepository
	logger   *slog.Logger
}

func NewLibraryService(
	games repository.GameRepository,
	library repository.UserGameRepository,
	services repository.GameServiceRepository,
	logger *slog.Logger,
) *LibraryService {
	return &LibraryService{
		games:    games,
		library:  library,
		services: services,
		logger:   logger,
	}
}

// CreateGame validates and persists a catalog entry.
func (s *LibraryService) CreateGame(ctx context.Context, game *model.Game) error {
	game.Title = strings.TrimSpace(game.Title)
	if game.Title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if strings.TrimSpace(game.Platform) == "" {
		return apperror.ValidationFailed("platform", "platform is required")
	}

	if err := s.games.Create(ctx, game); err != nil {
		return fmt.Errorf("service/library: creating game: %w", err)
	}

	s.logger.Info("game created", slog.String("gameID", game.ID), slog.String("title", game.Title))
	return nil
}

// GetGame returns a catalog entry by ID.
func (s *LibraryService) GetGame(ctx context.Context, id string) (*model.Game, error) {
	game, err := s.games.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/library: fetching game %s: %w", id, err)
	}
	return game, nil
}

// ListGames returns a page of the catalog. Limit is clamped to MaxListLimit.
func (s *LibraryService) ListGames(ctx context.Context, limit, offset int) ([]model.Game, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	games, err := s.games.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("service/library: listing games: %w", err)
	}
	return games, nil
}

// AddToLibrary validates and persists a library entry for the user.
func (s *LibraryService) AddToLibrary(ctx context.Context, entry *model.UserGame) error {
	if entry.UserID == "" {
		return apperror.ValidationFailed("userId", "user is required")
	}
	if entry.GameID == "" {
		return apperror.ValidationFailed("gameId", "game is required")
	}
	if err := validateUserGame(entry); err != nil {
		return err
	}

	// The entry must point at a real catalog game; the foreign key would
	// reject it anyway, but a NotFound reads better than a constraint error.
	if _, err := s.games.GetByID(ctx, entry.GameID); err != nil {
		return fmt.Errorf("service/library: checking game %s: %w", entry.GameID, err)
	}

	if err := s.library.Create(ctx, entry); err != nil {
		return fmt.Errorf("service/library: adding library entry: %w", err)
	}
	return nil
}

// UpdateLibraryEntry validates and persists changes to an existing entry.
// Only the owner may update it.
func (s *LibraryService) UpdateLibraryEntry(ctx context.Context, userID string, entry *model.UserGame) error {
	existing, err := s.library.GetByID(ctx, entry.ID)
	if err != nil {
		return fmt.Errorf("service/library: fetching library entry %s: %w", entry.ID, err)
	}
	if existing.UserID != userID {
		return apperror.Forbidden("library entry belongs to another user")
	}
	if err := validateUserGame(entry); err != nil {
		return err
	}

	entry.UserID = existing.UserID
	entry.GameID = existing.GameID
	if err := s.library.Update(ctx, entry); err != nil {
		return fmt.Errorf("service/library: updating library entry %s: %w", entry.ID, err)
	}
	return nil
}

// ListLibrary returns the user's library entries.
func (s *LibraryService) ListLibrary(ctx context.Context, userID string) ([]model.UserGame, error) {
	entries, err := s.library.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/library: listing library: %w", err)
	}
	return entries, nil
}

// LinkService validates and upserts a game-service link for the user.
// Re-linking the same service refreshes the stored tokens.
func (s *LibraryService) LinkService(ctx context.Context, link *model.GameService) error {
	if link.UserID == "" {
		return apperror.ValidationFailed("userId", "user is required")
	}
	if !slices.Contains(model.SupportedServices, link.ServiceName) {
		return apperror.ValidationFailed("serviceName",
			fmt.Sprintf("service must be one of: %s", strings.Join(model.SupportedServices, ", ")))
	}

	if err := s.services.Upsert(ctx, link); err != nil {
		return fmt.Errorf("service/library: linking %s: %w", link.ServiceName, err)
	}

	s.logger.Info("game service linked",
		slog.String("userID", link.UserID),
		slog.String("service", link.ServiceName),
	)
	return nil
}

// ListServices returns the user's linked game services.
func (s *LibraryService) ListServices(ctx context.Context, userID string) ([]model.GameService, error) {
	links, err := s.services.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/library: listing services: %w", err)
	}
	return links, nil
}

// FindService returns the user's link for a service, or (nil, nil) when the
// service is not linked.
func (s *LibraryService) FindService(ctx context.Context, userID, serviceName string) (*model.GameService, error) {
	link, err := s.services.FindByUserAndService(ctx, userID, serviceName)
	if err != nil {
		return nil, fmt.Errorf("service/library: finding service %s: %w", serviceName, err)
	}
	return link, nil
}

// validateUserGame checks the field-level invariants of a library entry.
func validateUserGame(entry *model.UserGame) error {
	if !slices.Contains(model.UserGameStatuses, entry.Status) {
		return apperror.ValidationFailed("status",
			fmt.Sprintf("status must be one of: %s", strings.Join(model.UserGameStatuses, ", ")))
	}
	if p := entry.CompletionPercentage; p != nil && (*p < 0 || *p > 100) {
		return apperror.ValidationFailed("completionPercentage", "completion percentage must be between 0 and 100")
	}
	if p := entry.Priority; p != nil && (*p < 1 || *p > 10) {
		return apperror.ValidationFailed("priority", "priority must be between 1 and 10")
	}
	if entry.HoursPlayed < 0 {
		return apperror.ValidationFailed("hoursPlayed", "hours played cannot be negative")
	}
	return nil
}
