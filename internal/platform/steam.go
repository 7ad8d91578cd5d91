package platform

import "context"

// steamBaseURL is the Steam Web API root, for the eventual integration.
const steamBaseURL = "https://api.steampowered.com"

// Steam integrates with the Steam Web API.
type Steam struct {
	accessToken string
}

func (s *Steam) Configured() bool { return s.accessToken != "" }

// FetchLibrary returns the user's Steam library.
// TODO: call IPlayerService/GetOwnedGames once the API key flow lands.
func (s *Steam) FetchLibrary(ctx context.Context) ([]GameRecord, error) {
	return []GameRecord{}, nil
}

// FetchGameDetails returns details for one Steam app ID.
// TODO: call the Steam Store API once the API key flow lands.
func (s *Steam) FetchGameDetails(ctx context.Context, gameID string) (GameRecord, error) {
	return GameRecord{}, nil
}
