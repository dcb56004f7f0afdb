package models

import "time"

// RefreshToken is a stored refresh grant. Stores keep only a digest of the
// token; Token is filled from the caller's input on lookup.
type RefreshToken struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
