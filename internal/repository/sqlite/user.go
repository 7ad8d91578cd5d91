package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/dodontommy/what-the-game/internal/apperror"
	"github.com/dodontommy/what-the-game/internal/model"
	"github.com/dodontommy/what-the-game/internal/repository"
)

// UserDB implements repository.UserRepository.
type UserDB struct {
	db *DB
}

// Users returns the user repository view of the database.
func (db *DB) Users() *UserDB {
	return &UserDB{db: db}
}

var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, email, username, avatar_url, provider, uid, created_at, updated_at`

// Create inserts a new user, generating its ID and timestamps. A duplicate
// non-blank email violates the partial unique index and comes back as a
// conflict.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.AvatarURL,
		user.Provider,
		user.UID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if cerr := classifyConstraint(err, "user", user.Email); cerr != err {
			return cerr
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}
	return nil
}

// Update persists the user's mutable fields. Email and username are included
// even though the reconciliation engine never changes them on login; other
// callers (profile editing) do.
func (u *UserDB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := u.db.conn.ExecContext(ctx,
		`UPDATE users
		 SET email = ?, username = ?, avatar_url = ?, provider = ?, uid = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email,
		user.Username,
		user.AvatarURL,
		user.Provider,
		user.UID,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if cerr := classifyConstraint(err, "user", user.Email); cerr != err {
			return cerr
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// FindByProviderUID looks up a user by the legacy single-provider fields.
// Returns (nil, nil) when no user matches.
func (u *UserDB) FindByProviderUID(ctx context.Context, provider, uid string) (*model.User, error) {
	row := u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE provider = ? AND uid = ?`,
		provider, uid)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: finding user by provider %s uid %s: %w", provider, uid, err)
	}
	return user, nil
}

// FindByEmail looks up a user by email. Returns (nil, nil) when no user
// matches. Blank emails never match anything; the column default is blank
// for users whose provider withheld the address.
func (u *UserDB) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, nil
	}

	row := u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: finding user by email %s: %w", email, err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.AvatarURL,
		&u.Provider,
		&u.UID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
