package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dodontommy/what-the-game/internal/model"
	"github.com/dodontommy/what-the-game/internal/repository"
)

// RecommendationService generates game recommendations for a user.
//
// The engine itself is not built yet: Generate returns whatever has been
// persisted (nothing, until an engine writes rows) and Evaluate returns a
// neutral placeholder. The service exists so the web layer and storage are
// already shaped for the real engine.
type RecommendationService struct {
	recs   repository.RecommendationRepository
	logger *slog.Logger
}

func NewRecommendationService(recs repository.RecommendationRepository, logger *slog.Logger) *RecommendationService {
	return &RecommendationService{recs: recs, logger: logger}
}

// DefaultRecommendationLimit caps Generate when the caller passes no limit.
const DefaultRecommendationLimit = 5

// Generate returns up to limit recommendations for the user.
// TODO: plug in the AI engine (analyze library, genres, completion rates)
// and persist its output here instead of reading back stored rows.
func (s *RecommendationService) Generate(ctx context.Context, userID string, limit int) ([]model.Recommendation, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	recs, err := s.recs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/recommend: listing recommendations: %w", err)
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Evaluate scores a single game for the user. Placeholder until the engine
// is configured.
func (s *RecommendationService) Evaluate(ctx context.Context, userID string, game *model.Game) model.Recommendation {
	return model.Recommendation{
		UserID: userID,
		GameID: game.ID,
		Score:  0.5,
		Reason: "Recommendation engine not yet configured",
	}
}
