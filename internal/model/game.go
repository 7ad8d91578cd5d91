package model

import "time"

// Game is a catalog entry, shared across users. ExternalID is the
// platform-specific identifier (Steam app ID, GOG product ID, ...).
type Game struct {
	ID          string     `json:"id"          db:"id"`
	Title       string     `json:"title"       db:"title"`
	Platform    string     `json:"platform"    db:"platform"`
	Genre       string     `json:"genre"       db:"genre"`
	Developer   string     `json:"developer"   db:"developer"`
	Publisher   string     `json:"publisher"   db:"publisher"`
	Description string     `json:"description" db:"description"`
	ExternalID  string     `json:"externalId"  db:"external_id"`
	ReleaseDate *time.Time `json:"releaseDate" db:"release_date"`
	CreatedAt   time.Time  `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt"   db:"updated_at"`
}

// UserGame statuses. A library entry is always in exactly one of these.
const (
	StatusBacklog   = "backlog"
	StatusPlaying   = "playing"
	StatusCompleted = "completed"
	StatusAbandoned = "abandoned"
	StatusWishlist  = "wishlist"
)

// UserGameStatuses lists the valid values for UserGame.Status.
var UserGameStatuses = []string{
	StatusBacklog, StatusPlaying, StatusCompleted, StatusAbandoned, StatusWishlist,
}

// UserGame is one entry in a user's library: a Game plus the user's own
// tracking state. CompletionPercentage is 0–100 and Priority is 1–10; both
// are pointers because "not set" is distinct from zero.
type UserGame struct {
	ID                   string    `json:"id"                   db:"id"`
	UserID               string    `json:"userId"               db:"user_id"`
	GameID               string    `json:"gameId"               db:"game_id"`
	Status               string    `json:"status"               db:"status"`
	CompletionPercentage *int      `json:"completionPercentage" db:"completion_percentage"`
	Priority             *int      `json:"priority"             db:"priority"`
	HoursPlayed          float64   `json:"hoursPlayed"          db:"hours_played"`
	Notes                string    `json:"notes"                db:"notes"`
	CreatedAt            time.Time `json:"createdAt"            db:"created_at"`
	UpdatedAt            time.Time `json:"updatedAt"            db:"updated_at"`
}

// Supported game-service names for GameService.ServiceName.
const (
	ServiceSteam = "steam"
	ServiceGOG   = "gog"
	ServiceEpic  = "epic"
)

// SupportedServices lists the platforms a user can link.
var SupportedServices = []string{ServiceSteam, ServiceGOG, ServiceEpic}

// GameService links a user to an external game platform account. One link per
// (user, service). Tokens are stored plaintext for now; encrypting them at
// rest is a pending production requirement.
type GameService struct {
	ID             string     `json:"id"             db:"id"`
	UserID         string     `json:"userId"         db:"user_id"`
	ServiceName    string     `json:"serviceName"    db:"service_name"`
	AccessToken    string     `json:"-"              db:"access_token"`
	RefreshToken   string     `json:"-"              db:"refresh_token"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt" db:"token_expires_at"`
	CreatedAt      time.Time  `json:"createdAt"      db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt"      db:"updated_at"`
}

// Recommendation is a scored game suggestion for a user. Score is 0–1.
type Recommendation struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	GameID    string    `json:"gameId"    db:"game_id"`
	Score     float64   `json:"score"     db:"score"`
	Reason    string    `json:"reason"    db:"reason"`
	AIModel   string    `json:"aiModel"   db:"ai_model"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
