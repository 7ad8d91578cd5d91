package platform

import "context"

// epicBaseURL is the Epic Games Store API root, for the eventual integration.
const epicBaseURL = "https://api.epicgames.dev"

// Epic integrates with the Epic Games Store API.
type Epic struct {
	accessToken string
}

func (e *Epic) Configured() bool { return e.accessToken != "" }

// FetchLibrary returns the user's Epic library.
// TODO: call the EGS library endpoint once the client exists.
func (e *Epic) FetchLibrary(ctx context.Context) ([]GameRecord, error) {
	return []GameRecord{}, nil
}

// FetchGameDetails returns details for one Epic catalog item.
// TODO: call the EGS catalog endpoint once the client exists.
func (e *Epic) FetchGameDetails(ctx context.Context, gameID string) (GameRecord, error) {
	return GameRecord{}, nil
}
