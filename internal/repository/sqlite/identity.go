package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/dodontommy/what-the-game/internal/model"
	"github.com/dodontommy/what-the-game/internal/repository"
)

// IdentityDB implements repository.IdentityRepository.
type IdentityDB struct {
	db *DB
}

// Identities returns the identity repository view of the database.
func (db *DB) Identities() *IdentityDB {
	return &IdentityDB{db: db}
}

var _ repository.IdentityRepository = (*IdentityDB)(nil)

const identityColumns = `id, user_id, provider, uid, access_token, refresh_token, expires_at, extra_info, created_at, updated_at`

// Create inserts a new identity. The UNIQUE(provider, uid) index is the
// serialization point for concurrent logins: when two callbacks race to
// create the same identity, the loser gets a conflict error here.
func (r *IdentityDB) Create(ctx context.Context, identity *model.Identity) error {
	now := time.Now()
	identity.ID = xid.New().String()
	identity.CreatedAt = now
	identity.UpdatedAt = now

	extra, err := marshalExtra(identity.ExtraInfo)
	if err != nil {
		return fmt.Errorf("sqlite: encoding identity extra info: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		`INSERT INTO identities (`+identityColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		identity.ID,
		identity.UserID,
		identity.Provider,
		identity.UID,
		identity.AccessToken,
		identity.RefreshToken,
		nullTime(identity.ExpiresAt),
		extra,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		key := identity.Provider + "/" + identity.UID
		if cerr := classifyConstraint(err, "identity", key); cerr != err {
			return cerr
		}
		return fmt.Errorf("sqlite: inserting identity (%s): %w", key, err)
	}
	return nil
}

// Update persists the identity's owning user, tokens, expiry and extra bag,
// which is everything the reconciliation engine refreshes on a returning login.
func (r *IdentityDB) Update(ctx context.Context, identity *model.Identity) error {
	identity.UpdatedAt = time.Now()

	extra, err := marshalExtra(identity.ExtraInfo)
	if err != nil {
		return fmt.Errorf("sqlite: encoding identity extra info: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		`UPDATE identities
		 SET user_id = ?, access_token = ?, refresh_token = ?, expires_at = ?, extra_info = ?, updated_at = ?
		 WHERE id = ?`,
		identity.UserID,
		identity.AccessToken,
		identity.RefreshToken,
		nullTime(identity.ExpiresAt),
		extra,
		identity.UpdatedAt,
		identity.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating identity %s: %w", identity.ID, err)
	}
	return nil
}

// FindByProviderUID looks up an identity by its unique (provider, uid) key.
// Returns (nil, nil) when no identity matches.
func (r *IdentityDB) FindByProviderUID(ctx context.Context, provider, uid string) (*model.Identity, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE provider = ? AND uid = ?`,
		provider, uid)

	identity, err := scanIdentity(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: finding identity %s/%s: %w", provider, uid, err)
	}
	return identity, nil
}

// ListByUser returns all identities owned by the given user.
func (r *IdentityDB) ListByUser(ctx context.Context, userID string) ([]model.Identity, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE user_id = ? ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing identities for user %s: %w", userID, err)
	}
	defer rows.Close()

	var identities []model.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning identity row: %w", err)
		}
		identities = append(identities, *identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: listing identities for user %s: %w", userID, err)
	}
	return identities, nil
}

func scanIdentity(scan func(...any) error) (*model.Identity, error) {
	var (
		i       model.Identity
		expires sql.NullTime
		extra   string
	)
	err := scan(
		&i.ID,
		&i.UserID,
		&i.Provider,
		&i.UID,
		&i.AccessToken,
		&i.RefreshToken,
		&expires,
		&extra,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expires.Valid {
		t := expires.Time
		i.ExpiresAt = &t
	}
	if err := json.Unmarshal([]byte(extra), &i.ExtraInfo); err != nil {
		return nil, fmt.Errorf("decoding extra info: %w", err)
	}
	return &i, nil
}

// marshalExtra serializes the opaque extra-info bag; a nil bag is stored as
// an empty mapping.
func marshalExtra(extra map[string]any) (string, error) {
	if extra == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
