// Package auth provides the OAuth provider integrations, the normalized
// authentication payload they produce, and token utilities.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User visits /auth/{provider}/login → redirected to the provider
// 2. Provider calls back /auth/{provider}/callback with a code
// 3. The provider implementation exchanges the code for a normalized Payload
// 4. The reconciliation engine maps the Payload to a local User + Identity
// 5. The session manager issues the session cookie for the resolved User
package auth

import (
	"fmt"
	"time"

	"github.com/dodontommy/what-the-game/internal/apperror"
)

// Info is the profile block of a Payload. Every field is optional; providers
// routinely withhold email or supply only one of name/nickname.
type Info struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Image    string `json:"image"` // avatar URL
}

// Credentials is the token block of a Payload. ExpiresAt is epoch seconds;
// zero means the provider reported no expiry.
type Credentials struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Payload is the normalized result of a completed OAuth handshake, the only
// input the reconciliation engine accepts. Provider and UID are mandatory;
// everything else may be absent.
type Payload struct {
	Provider    string         `json:"provider"`
	UID         string         `json:"uid"`
	Info        Info           `json:"info"`
	Credentials Credentials    `json:"credentials"`
	Extra       map[string]any `json:"extra"`
}

// Validate checks the payload's mandatory fields. A payload without provider
// or uid means the upstream handshake was malformed, so the error is
// classified as an upstream auth failure rather than a validation error on
// our own models.
func (p *Payload) Validate() error {
	if p.Provider == "" {
		return apperror.UpstreamAuth("auth payload is missing provider")
	}
	if p.UID == "" {
		return apperror.UpstreamAuth(fmt.Sprintf("auth payload for %s is missing uid", p.Provider))
	}
	return nil
}

// DeriveUsername returns a non-blank username for the payload:
// nickname, else name, else "user_<uid>". The fallback guarantees
// derivation is total even when the provider supplies no profile name.
func (p *Payload) DeriveUsername() string {
	if p.Info.Nickname != "" {
		return p.Info.Nickname
	}
	if p.Info.Name != "" {
		return p.Info.Name
	}
	return "user_" + p.UID
}

// ExpiryTime converts the credentials' epoch-seconds expiry into a time,
// or nil when the provider reported none.
func (p *Payload) ExpiryTime() *time.Time {
	if p.Credentials.ExpiresAt == 0 {
		return nil
	}
	t := time.Unix(p.Credentials.ExpiresAt, 0)
	return &t
}
