package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/dodontommy/what-the-game/internal/model"
)

type fakeRecommendationRepo struct {
	recs   []model.Recommendation
	nextID int
}

func (f *fakeRecommendationRepo) Create(ctx context.Context, rec *model.Recommendation) error {
	f.nextID++
	rec.ID = fmt.Sprintf("rec-fake-%d", f.nextID)
	f.recs = append(f.recs, *rec)
	return nil
}

func (f *fakeRecommendationRepo) ListByUser(ctx context.Context, userID string) ([]model.Recommendation, error) {
	var out []model.Recommendation
	for _, r := range f.recs {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestRecommendationService(t *testing.T, repo *fakeRecommendationRepo) *RecommendationService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRecommendationService(repo, logger)
}

func TestGenerate_EmptyWithoutStoredRows(t *testing.T) {
	svc := newTestRecommendationService(t, &fakeRecommendationRepo{})

	recs, err := svc.Generate(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Generate() returned %d recs, want 0", len(recs))
	}
}

func TestGenerate_LimitClamping(t *testing.T) {
	repo := &fakeRecommendationRepo{}
	for i := 0; i < 10; i++ {
		repo.Create(context.Background(), &model.Recommendation{
			UserID: "user-1",
			GameID: fmt.Sprintf("game-%d", i),
			Score:  0.5,
		})
	}
	svc := newTestRecommendationService(t, repo)

	// No limit falls back to the default.
	recs, err := svc.Generate(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(recs) != DefaultRecommendationLimit {
		t.Errorf("Generate(limit=0) returned %d recs, want %d", len(recs), DefaultRecommendationLimit)
	}

	recs, err = svc.Generate(context.Background(), "user-1", 3)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("Generate(limit=3) returned %d recs, want 3", len(recs))
	}
}

func TestEvaluate_Placeholder(t *testing.T) {
	svc := newTestRecommendationService(t, &fakeRecommendationRepo{})

	rec := svc.Evaluate(context.Background(), "user-1", &model.Game{ID: "game-1"})
	if rec.Score != 0.5 {
		t.Errorf("Score = %v, want the neutral 0.5", rec.Score)
	}
	if rec.Reason == "" {
		t.Error("Reason should explain the engine is not configured")
	}
	if rec.UserID != "user-1" || rec.GameID != "game-1" {
		t.Errorf("binding = (%q, %q), want the caller's user and game", rec.UserID, rec.GameID)
	}
}
