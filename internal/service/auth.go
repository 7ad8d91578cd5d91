// Package service contains the business logic layer: reconciliation of OAuth
// logins, library management, and the recommendation stub. Services sit
// between the HTTP handlers and the repositories and never touch HTTP
// concerns directly.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dodontommy/what-the-game/internal/apperror"
	"github.com/dodontommy/what-the-game/internal/auth"
	"github.com/dodontommy/what-the-game/internal/model"
	"github.com/dodontommy/what-the-game/internal/repository"
)

// AuthService is the identity reconciliation engine: it maps a normalized
// OAuth payload to a durable local User and a durable per-provider Identity,
// handling first-login creation, returning-user matching, and cross-provider
// account linking by email.
type AuthService struct {
	users      repository.UserRepository
	identities repository.IdentityRepository
	passwords  *auth.PasswordService // reserved for the email/password login path
	logger     *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	identities repository.IdentityRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		identities: identities,
		passwords:  passwords,
		logger:     logger,
	}
}

// ReconcileOAuthLogin resolves an OAuth payload to a persisted User, creating
// or updating the backing Identity along the way. It never fails silently:
// the result is either a valid persisted User or a classified error
// (upstream-auth for a bad payload, validation for a model invariant,
// conflict for a lost uniqueness race).
//
// Resolution order for the owning user:
//  1. legacy (provider, uid) fields on users; preserves single-provider-era
//     behavior for accounts that predate the identities table;
//  2. email, when the payload carries one; lets a user who first signed in
//     via provider A link provider B through a shared address instead of
//     ending up with two accounts;
//  3. otherwise a fresh User is created.
//
// On a matched user the legacy provider/uid/avatar fields are overwritten
// with this login's values (last-login-wins); email and username are never
// touched on update.
func (s *AuthService) ReconcileOAuthLogin(ctx context.Context, payload *auth.Payload) (*model.User, error) {
	if payload == nil {
		return nil, apperror.UpstreamAuth("auth payload is missing")
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	username := payload.DeriveUsername()
	if username == "" {
		// Unreachable given the user_<uid> fallback, but the invariant is
		// cheap to state: a User must never be saved without a username.
		return nil, apperror.ValidationFailed("username", "username could not be derived from auth payload")
	}

	user, err := s.resolveUser(ctx, payload, username)
	if err != nil {
		return nil, err
	}

	if err := s.reconcileIdentity(ctx, payload, user); err != nil {
		return nil, err
	}

	s.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("provider", payload.Provider),
		slog.String("uid", payload.UID),
	)

	return user, nil
}

// resolveUser finds or creates the User that owns this login.
func (s *AuthService) resolveUser(ctx context.Context, payload *auth.Payload, username string) (*model.User, error) {
	user, err := s.users.FindByProviderUID(ctx, payload.Provider, payload.UID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up user by provider/uid: %w", err)
	}

	if user == nil && payload.Info.Email != "" {
		user, err = s.users.FindByEmail(ctx, payload.Info.Email)
		if err != nil {
			return nil, fmt.Errorf("service/auth: looking up user by email: %w", err)
		}
	}

	if user == nil {
		user = &model.User{
			Email:     payload.Info.Email,
			Username:  username,
			AvatarURL: payload.Info.Image,
			Provider:  payload.Provider,
			UID:       payload.UID,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating user: %w", err)
		}

		s.logger.Info("new user created",
			slog.String("userID", user.ID),
			slog.String("username", user.Username),
			slog.String("provider", payload.Provider),
		)
		return user, nil
	}

	// Last-login-wins: the legacy fields always reflect the most recent
	// provider used, even when it differs from the original one.
	user.Provider = payload.Provider
	user.UID = payload.UID
	user.AvatarURL = payload.Info.Image
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: updating user %s: %w", user.ID, err)
	}
	return user, nil
}

// reconcileIdentity finds or creates the Identity keyed by (provider, uid),
// rebinds it to the resolved user, and refreshes its token fields and extra
// bag from the payload. A lost create race against a concurrent callback for
// the same (provider, uid) surfaces as apperror.ErrConflict.
func (s *AuthService) reconcileIdentity(ctx context.Context, payload *auth.Payload, user *model.User) error {
	identity, err := s.identities.FindByProviderUID(ctx, payload.Provider, payload.UID)
	if err != nil {
		return fmt.Errorf("service/auth: looking up identity: %w", err)
	}

	extra := payload.Extra
	if extra == nil {
		extra = map[string]any{}
	}

	if identity == nil {
		identity = &model.Identity{
			UserID:       user.ID,
			Provider:     payload.Provider,
			UID:          payload.UID,
			AccessToken:  payload.Credentials.Token,
			RefreshToken: payload.Credentials.RefreshToken,
			ExpiresAt:    payload.ExpiryTime(),
			ExtraInfo:    extra,
		}
		if err := s.identities.Create(ctx, identity); err != nil {
			// Conflict here means a concurrent callback won the create; the
			// storage UNIQUE index is the only serialization point.
			return fmt.Errorf("service/auth: creating identity %s/%s: %w", payload.Provider, payload.UID, err)
		}
		return nil
	}

	identity.UserID = user.ID
	identity.AccessToken = payload.Credentials.Token
	identity.RefreshToken = payload.Credentials.RefreshToken
	identity.ExpiresAt = payload.ExpiryTime()
	identity.ExtraInfo = extra
	if err := s.identities.Update(ctx, identity); err != nil {
		return fmt.Errorf("service/auth: updating identity %s/%s: %w", payload.Provider, payload.UID, err)
	}
	return nil
}

// GetUserByID returns the user for the given internal ID. Used by the
// /api/me handler after the session middleware resolves the principal.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

// Identities returns the identities linked to a user, for the account
// settings view.
func (s *AuthService) Identities(ctx context.Context, userID string) ([]model.Identity, error) {
	if userID == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}
	identities, err := s.identities.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: listing identities for %s: %w", userID, err)
	}
	return identities, nil
}
