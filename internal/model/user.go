// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a local account.
//
// Authentication is delegated to third-party OAuth providers; a User owns one
// Identity per provider they have signed in with. The Provider and UID fields
// predate the identities table (single-provider era) and are kept for
// backward compatibility; they are overwritten on every login to reflect the
// most recent provider used, never the original one.
//
// Email can be empty when the provider withholds it (e.g. hidden in the
// user's privacy settings). When present it is unique across all users and
// doubles as the cross-provider account-linking key.
type User struct {
	ID        string    `json:"id"        db:"id"`
	Email     string    `json:"email"     db:"email"`
	Username  string    `json:"username"  db:"username"`
	AvatarURL string    `json:"avatarUrl" db:"avatar_url"`
	Provider  string    `json:"provider"  db:"provider"` // legacy: most recent login provider
	UID       string    `json:"uid"       db:"uid"`      // legacy: most recent login uid
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
