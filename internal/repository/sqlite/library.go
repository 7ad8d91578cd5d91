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

// GameDB implements repository.GameRepository.
type GameDB struct{ db *DB }

// Games returns the game catalog view of the database.
func (db *DB) Games() *GameDB { return &GameDB{db: db} }

var _ repository.GameRepository = (*GameDB)(nil)

const gameColumns = `id, title, platform, genre, developer, publisher, description, external_id, release_date, created_at, updated_at`

func (g *GameDB) Create(ctx context.Context, game *model.Game) error {
	now := time.Now()
	game.ID = xid.New().String()
	game.CreatedAt = now
	game.UpdatedAt = now

	_, err := g.db.conn.ExecContext(ctx,
		`INSERT INTO games (`+gameColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		game.ID, game.Title, game.Platform, game.Genre, game.Developer,
		game.Publisher, game.Description, game.ExternalID,
		nullTime(game.ReleaseDate), game.CreatedAt, game.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting game %q: %w", game.Title, err)
	}
	return nil
}

func (g *GameDB) GetByID(ctx context.Context, id string) (*model.Game, error) {
	row := g.db.conn.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = ?`, id)

	game, err := scanGame(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("game", id)
		}
		return nil, fmt.Errorf("sqlite: getting game %s: %w", id, err)
	}
	return game, nil
}

func (g *GameDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Game, error) {
	rows, err := g.db.conn.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing games: %w", err)
	}
	defer rows.Close()

	games := []model.Game{}
	for rows.Next() {
		game, err := scanGame(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning game row: %w", err)
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

func scanGame(scan func(...any) error) (*model.Game, error) {
	var (
		g       model.Game
		release sql.NullTime
	)
	err := scan(&g.ID, &g.Title, &g.Platform, &g.Genre, &g.Developer,
		&g.Publisher, &g.Description, &g.ExternalID, &release, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if release.Valid {
		t := release.Time
		g.ReleaseDate = &t
	}
	return &g, nil
}

// UserGameDB implements repository.UserGameRepository.
type UserGameDB struct{ db *DB }

// Library returns the per-user library view of the database.
func (db *DB) Library() *UserGameDB { return &UserGameDB{db: db} }

var _ repository.UserGameRepository = (*UserGameDB)(nil)

const userGameColumns = `id, user_id, game_id, status, completion_percentage, priority, hours_played, notes, created_at, updated_at`

func (l *UserGameDB) Create(ctx context.Context, entry *model.UserGame) error {
	now := time.Now()
	entry.ID = xid.New().String()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err := l.db.conn.ExecContext(ctx,
		`INSERT INTO user_games (`+userGameColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.GameID, entry.Status,
		entry.CompletionPercentage, entry.Priority, entry.HoursPlayed,
		entry.Notes, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting library entry (user=%s game=%s): %w", entry.UserID, entry.GameID, err)
	}
	return nil
}

func (l *UserGameDB) Update(ctx context.Context, entry *model.UserGame) error {
	entry.UpdatedAt = time.Now()

	res, err := l.db.conn.ExecContext(ctx,
		`UPDATE user_games
		 SET status = ?, completion_percentage = ?, priority = ?, hours_played = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		entry.Status, entry.CompletionPercentage, entry.Priority,
		entry.HoursPlayed, entry.Notes, entry.UpdatedAt, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating library entry %s: %w", entry.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating library entry %s: %w", entry.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("library entry", entry.ID)
	}
	return nil
}

func (l *UserGameDB) GetByID(ctx context.Context, id string) (*model.UserGame, error) {
	var e model.UserGame
	err := l.db.conn.QueryRowContext(ctx,
		`SELECT `+userGameColumns+` FROM user_games WHERE id = ?`, id,
	).Scan(&e.ID, &e.UserID, &e.GameID, &e.Status, &e.CompletionPercentage,
		&e.Priority, &e.HoursPlayed, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("library entry", id)
		}
		return nil, fmt.Errorf("sqlite: getting library entry %s: %w", id, err)
	}
	return &e, nil
}

func (l *UserGameDB) ListByUser(ctx context.Context, userID string) ([]model.UserGame, error) {
	rows, err := l.db.conn.QueryContext(ctx,
		`SELECT `+userGameColumns+` FROM user_games WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing library for user %s: %w", userID, err)
	}
	defer rows.Close()

	entries := []model.UserGame{}
	for rows.Next() {
		var e model.UserGame
		if err := rows.Scan(&e.ID, &e.UserID, &e.GameID, &e.Status, &e.CompletionPercentage,
			&e.Priority, &e.HoursPlayed, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning library row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GameServiceDB implements repository.GameServiceRepository.
type GameServiceDB struct{ db *DB }

// Services returns the linked game-service view of the database.
func (db *DB) Services() *GameServiceDB { return &GameServiceDB{db: db} }

var _ repository.GameServiceRepository = (*GameServiceDB)(nil)

const gameServiceColumns = `id, user_id, service_name, access_token, refresh_token, token_expires_at, created_at, updated_at`

// Upsert creates or refreshes the (user, service) link. The UNIQUE index
// makes re-linking an update rather than a duplicate.
func (s *GameServiceDB) Upsert(ctx context.Context, link *model.GameService) error {
	existing, err := s.FindByUserAndService(ctx, link.UserID, link.ServiceName)
	if err != nil {
		return err
	}

	now := time.Now()
	if existing != nil {
		link.ID = existing.ID
		link.CreatedAt = existing.CreatedAt
		link.UpdatedAt = now
		_, err = s.db.conn.ExecContext(ctx,
			`UPDATE game_services
			 SET access_token = ?, refresh_token = ?, token_expires_at = ?, updated_at = ?
			 WHERE id = ?`,
			link.AccessToken, link.RefreshToken, nullTime(link.TokenExpiresAt),
			link.UpdatedAt, link.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating game service %s: %w", link.ID, err)
		}
		return nil
	}

	link.ID = xid.New().String()
	link.CreatedAt = now
	link.UpdatedAt = now
	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO game_services (`+gameServiceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		link.ID, link.UserID, link.ServiceName, link.AccessToken,
		link.RefreshToken, nullTime(link.TokenExpiresAt), link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		key := link.UserID + "/" + link.ServiceName
		if cerr := classifyConstraint(err, "game service", key); cerr != err {
			return cerr
		}
		return fmt.Errorf("sqlite: inserting game service (%s): %w", key, err)
	}
	return nil
}

func (s *GameServiceDB) FindByUserAndService(ctx context.Context, userID, serviceName string) (*model.GameService, error) {
	var (
		link    model.GameService
		expires sql.NullTime
	)
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT `+gameServiceColumns+` FROM game_services WHERE user_id = ? AND service_name = ?`,
		userID, serviceName,
	).Scan(&link.ID, &link.UserID, &link.ServiceName, &link.AccessToken,
		&link.RefreshToken, &expires, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: finding game service %s/%s: %w", userID, serviceName, err)
	}
	if expires.Valid {
		t := expires.Time
		link.TokenExpiresAt = &t
	}
	return &link, nil
}

func (s *GameServiceDB) ListByUser(ctx context.Context, userID string) ([]model.GameService, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+gameServiceColumns+` FROM game_services WHERE user_id = ? ORDER BY service_name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing game services for user %s: %w", userID, err)
	}
	defer rows.Close()

	links := []model.GameService{}
	for rows.Next() {
		var (
			link    model.GameService
			expires sql.NullTime
		)
		if err := rows.Scan(&link.ID, &link.UserID, &link.ServiceName, &link.AccessToken,
			&link.RefreshToken, &expires, &link.CreatedAt, &link.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning game service row: %w", err)
		}
		if expires.Valid {
			t := expires.Time
			link.TokenExpiresAt = &t
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// RecommendationDB implements repository.RecommendationRepository.
type RecommendationDB struct{ db *DB }

// Recommendations returns the recommendation view of the database.
func (db *DB) Recommendations() *RecommendationDB { return &RecommendationDB{db: db} }

var _ repository.RecommendationRepository = (*RecommendationDB)(nil)

func (r *RecommendationDB) Create(ctx context.Context, rec *model.Recommendation) error {
	now := time.Now()
	rec.ID = xid.New().String()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO recommendations (id, user_id, game_id, score, reason, ai_model, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.GameID, rec.Score, rec.Reason, rec.AIModel,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting recommendation (user=%s game=%s): %w", rec.UserID, rec.GameID, err)
	}
	return nil
}

func (r *RecommendationDB) ListByUser(ctx context.Context, userID string) ([]model.Recommendation, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, user_id, game_id, score, reason, ai_model, created_at, updated_at
		 FROM recommendations WHERE user_id = ? ORDER BY score DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recommendations for user %s: %w", userID, err)
	}
	defer rows.Close()

	recs := []model.Recommendation{}
	for rows.Next() {
		var rec model.Recommendation
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.GameID, &rec.Score, &rec.Reason,
			&rec.AIModel, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recommendation row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
