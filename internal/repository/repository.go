// Package repository defines the persistence interfaces the services program
// against. The sqlite subpackage is the only implementation today.
//
// Convention: Find* methods return (nil, nil) when no row matches; absence
// is an expected outcome during reconciliation, not an error. Get* methods
// return apperror.NotFound instead, because their callers hold an ID that is
// supposed to exist.
package repository

import (
	"context"

	"github.com/dodontommy/what-the-game/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// FindByProviderUID looks up a user by the legacy single-provider fields.
	FindByProviderUID(ctx context.Context, provider, uid string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type IdentityRepository interface {
	Create(ctx context.Context, identity *model.Identity) error
	Update(ctx context.Context, identity *model.Identity) error
	FindByProviderUID(ctx context.Context, provider, uid string) (*model.Identity, error)
	ListByUser(ctx context.Context, userID string) ([]model.Identity, error)
}

type GameRepository interface {
	Create(ctx context.Context, game *model.Game) error
	GetByID(ctx context.Context, id string) (*model.Game, error)
	List(ctx context.Context, opts ListOptions) ([]model.Game, error)
}

type UserGameRepository interface {
	Create(ctx context.Context, entry *model.UserGame) error
	Update(ctx context.Context, entry *model.UserGame) error
	GetByID(ctx context.Context, id string) (*model.UserGame, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserGame, error)
}

type GameServiceRepository interface {
	// Upsert creates or replaces the link for (user, service).
	Upsert(ctx context.Context, link *model.GameService) error
	FindByUserAndService(ctx context.Context, userID, serviceName string) (*model.GameService, error)
	ListByUser(ctx context.Context, userID string) ([]model.GameService, error)
}

type RecommendationRepository interface {
	Create(ctx context.Context, rec *model.Recommendation) error
	ListByUser(ctx context.Context, userID string) ([]model.Recommendation, error)
}
