package platform

import "context"

// gogBaseURL is the GOG API root, for the eventual integration.
const gogBaseURL = "https://api.gog.com"

// GOG integrates with the GOG Galaxy API.
type GOG struct {
	accessToken string
}

func (g *GOG) Configured() bool { return g.accessToken != "" }

// FetchLibrary returns the user's GOG library.
// TODO: call the Galaxy owned-products endpoint once the client exists.
func (g *GOG) FetchLibrary(ctx context.Context) ([]GameRecord, error) {
	return []GameRecord{}, nil
}

// FetchGameDetails returns details for one GOG product ID.
// TODO: call the Galaxy products endpoint once the client exists.
func (g *GOG) FetchGameDetails(ctx context.Context, gameID string) (GameRecord, error) {
	return GameRecord{}, nil
}
