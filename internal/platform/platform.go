// Package platform defines the capability interface for external game
// platforms (Steam, GOG, Epic) and their per-provider implementations.
//
// The integrations are not built yet: every implementation reports whether it
// is configured and returns empty results rather than failing, so callers can
// ship the surrounding plumbing (linking accounts, sync endpoints) before the
// API clients exist.
package platform

import "context"

// GameRecord is a platform-neutral description of one game as reported by an
// external service.
type GameRecord struct {
	ExternalID  string  `json:"externalId"`
	Title       string  `json:"title"`
	Platform    string  `json:"platform"`
	HoursPlayed float64 `json:"hoursPlayed"`
	IconURL     string  `json:"iconUrl"`
}

// Platform is the capability interface every game service implements.
type Platform interface {
	// Configured reports whether the platform has the credentials it needs.
	Configured() bool
	// FetchLibrary returns the user's game library on the platform.
	FetchLibrary(ctx context.Context) ([]GameRecord, error)
	// FetchGameDetails returns details for one game by its platform ID.
	FetchGameDetails(ctx context.Context, gameID string) (GameRecord, error)
}

// ForService returns the Platform implementation for a service name.
// Unknown services get an unconfigured stub so callers never have to
// special-case them.
func ForService(name, accessToken string) Platform {
	switch name {
	case "steam":
		return &Steam{accessToken: accessToken}
	case "gog":
		return &GOG{accessToken: accessToken}
	case "epic":
		return &Epic{accessToken: accessToken}
	}
	return unconfigured{}
}

// unconfigured is the Platform for services we don't recognize.
type unconfigured struct{}

func (unconfigured) Configured() bool { return false }

func (unconfigured) FetchLibrary(context.Context) ([]GameRecord, error) {
	return []GameRecord{}, nil
}

func (unconfigured) FetchGameDetails(context.Context, string) (GameRecord, error) {
	return GameRecord{}, nil
}
