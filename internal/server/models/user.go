// Package models defines server-side data models persisted by the
// repositories.
package models

import "time"

// Account roles.
const (
	RoleTourist = "tourist"
	RoleSeller  = "seller"
)

// ValidRole reports whether r is a role an account can be created with.
func ValidRole(r string) bool {
	return r == RoleTourist || r == RoleSeller
}

// User is an account with its credential. PasswordHash is an argon2id PHC
// string.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	PhotoURL     string
	CreatedAt    time.Time
}

// Profile is the public part of the account, as returned on sign in and
// stored in the users collection.
func (u *User) Profile() map[string]any {
	p := map[string]any{
		"id":        u.ID,
		"email":     u.Email,
		"name":      u.Name,
		"role":      u.Role,
		"createdAt": u.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if u.PhotoURL != "" {
		p["photoURL"] = u.PhotoURL
	}
	return p
}
