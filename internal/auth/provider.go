package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

// Provider abstracts one OAuth identity provider. Implementations perform the
// Authorization Code flow and normalize the provider's profile response into
// a Payload. The reconciliation engine never talks to a Provider directly;
// only the callback handler does.
type Provider interface {
	// Name returns the provider's registry key, e.g. "google".
	Name() string
	// AuthURL returns the URL to redirect the user to for authorization.
	// The state parameter is verified on callback to prevent CSRF.
	AuthURL(state string) string
	// Exchange trades the authorization code for a normalized Payload.
	Exchange(ctx context.Context, code string) (*Payload, error)
}

// Registry holds the configured providers, keyed by name.
type Registry map[string]Provider

// Lookup returns the provider registered under name, or false if none is.
func (r Registry) Lookup(name string) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}

// googleUserInfo is the portion of Google's userinfo response we care about.
//
// API docs: https://developers.google.com/identity/openid-connect/openid-connect#obtaininguserprofileinformation
type googleUserInfo struct {
	Sub     string `json:"sub"`     // Google's stable account ID
	Email   string `json:"email"`   // may be absent if the email scope was denied
	Name    string `json:"name"`    // display name
	Picture string `json:"picture"` // avatar URL
}

// GoogleProvider wraps golang.org/x/oauth2 for the Google Authorization Code
// flow. The code-for-token exchange happens server-to-server using the client
// secret, so the access token never touches the browser.
type GoogleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider creates a GoogleProvider with the given credentials.
// callbackURL must exactly match the redirect URI registered in the Google
// Cloud console.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) AuthURL(state string) string {
	// prompt=select_account forces the account chooser even when only one
	// Google account is signed in, matching the login UX we want.
	return p.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Exchange completes the OAuth flow: trades the authorization code for an
// access token, fetches the userinfo profile, and normalizes both into a
// Payload.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Payload, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code with google: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, token)

	resp, err := client.Get("https://openidconnect.googleapis.com/v1/userinfo")
	if err != nil {
		return nil, fmt.Errorf("auth: calling google userinfo API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: google userinfo API returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("auth: decoding google userinfo response: %w", err)
	}

	if info.Sub == "" {
		return nil, fmt.Errorf("auth: google returned an invalid user (empty sub)")
	}

	return &Payload{
		Provider: p.Name(),
		UID:      info.Sub,
		Info: Info{
			Email: info.Email,
			Name:  info.Name,
			Image: info.Picture,
		},
		Credentials: credentialsFromToken(token),
	}, nil
}

// facebookUser is the Graph API /me response shape. The picture field nests
// the avatar URL inside a data envelope.
type facebookUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"` // absent when the email permission was declined
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// FacebookProvider wraps golang.org/x/oauth2 for the Facebook Authorization
// Code flow, reading the profile from the Graph API.
type FacebookProvider struct {
	config *oauth2.Config
}

// NewFacebookProvider creates a FacebookProvider with the given credentials.
func NewFacebookProvider(clientID, clientSecret, callbackURL string) *FacebookProvider {
	return &FacebookProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
	}
}

func (p *FacebookProvider) Name() string { return "facebook" }

func (p *FacebookProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades the authorization code for a token, fetches the Graph API
// profile, and normalizes both into a Payload. Facebook issues no refresh
// token; its long-lived tokens carry the expiry instead.
func (p *FacebookProvider) Exchange(ctx context.Context, code string) (*Payload, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code with facebook: %w", err)
	}

	client := p.config.Client(ctx, token)

	resp, err := client.Get("https://graph.facebook.com/me?fields=id,name,email,picture")
	if err != nil {
		return nil, fmt.Errorf("auth: calling facebook graph API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: facebook graph API returned status %d", resp.StatusCode)
	}

	var u facebookUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("auth: decoding facebook graph response: %w", err)
	}

	if u.ID == "" {
		return nil, fmt.Errorf("auth: facebook returned an invalid user (empty id)")
	}

	return &Payload{
		Provider: p.Name(),
		UID:      u.ID,
		Info: Info{
			Email: u.Email,
			Name:  u.Name,
			Image: u.Picture.Data.URL,
		},
		Credentials: credentialsFromToken(token),
	}, nil
}

// gogUser is GOG's embassy/users response shape.
type gogUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// GOGProvider implements the Authorization Code flow against GOG's embassy
// endpoints. GOG has no published x/oauth2 endpoint, so the URLs are spelled
// out here.
type GOGProvider struct {
	config *oauth2.Config
}

// NewGOGProvider creates a GOGProvider with the given credentials.
func NewGOGProvider(clientID, clientSecret, callbackURL string) *GOGProvider {
	return &GOGProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"users.read"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://auth.gog.com/auth",
				TokenURL: "https://auth.gog.com/token",
			},
		},
	}
}

func (p *GOGProvider) Name() string { return "gog" }

func (p *GOGProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (p *GOGProvider) Exchange(ctx context.Context, code string) (*Payload, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code with gog: %w", err)
	}

	client := p.config.Client(ctx, token)

	resp, err := client.Get("https://embed.gog.com/users/info/v2")
	if err != nil {
		return nil, fmt.Errorf("auth: calling gog users API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: gog users API returned status %d", resp.StatusCode)
	}

	var u gogUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("auth: decoding gog users response: %w", err)
	}

	if u.ID == "" {
		return nil, fmt.Errorf("auth: gog returned an invalid user (empty id)")
	}

	return &Payload{
		Provider: p.Name(),
		UID:      u.ID,
		Info: Info{
			Email:    u.Email,
			Nickname: u.Username,
			Image:    u.Avatar,
		},
		Credentials: credentialsFromToken(token),
	}, nil
}

// credentialsFromToken normalizes an oauth2 token into the payload's
// credentials block. A zero token expiry stays zero (no expiry reported).
func credentialsFromToken(token *oauth2.Token) Credentials {
	c := Credentials{
		Token:        token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		c.ExpiresAt = token.Expiry.Unix()
	}
	return c
}
