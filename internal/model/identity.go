package model

import "time"

// Identity binds one (provider, uid) pair to exactly one User, letting a
// single account authenticate via multiple providers. The (provider, uid)
// pair is globally unique; the database index on it is the serialization
// point for concurrent logins.
//
// Token fields are refreshed on every login. ExtraInfo is an opaque bag of
// provider-specific profile data stored as-is; nothing consumes it today
// beyond passthrough storage.
type Identity struct {
	ID           string         `json:"id"           db:"id"`
	UserID       string         `json:"userId"       db:"user_id"`
	Provider     string         `json:"provider"     db:"provider"`
	UID          string         `json:"uid"          db:"uid"`
	AccessToken  string         `json:"-"            db:"access_token"`
	RefreshToken string         `json:"-"            db:"refresh_token"`
	ExpiresAt    *time.Time     `json:"expiresAt"    db:"expires_at"` // nil when the provider reported no expiry
	ExtraInfo    map[string]any `json:"extraInfo"    db:"extra_info"`
	CreatedAt    time.Time      `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt"    db:"updated_at"`
}

// Expired reports whether the identity's access token has expired.
// An identity with no recorded expiry never counts as expired.
func (i *Identity) Expired() bool {
	return i.ExpiresAt != nil && i.ExpiresAt.Before(time.Now())
}
