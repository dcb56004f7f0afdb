// Package models defines client-side data models used by the Turismap
// synchronizers and the CLI.
package models

import (
	"fmt"
	"time"
)

// Role is the account type chosen at sign-up.
type Role string

const (
	RoleTourist Role = "tourist"
	RoleSeller  Role = "seller"
)

// ParseRole accepts "tourist" or "seller".
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleTourist, RoleSeller:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Profile is the account record stored in the users collection.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	PhotoURL  string    `json:"photoURL,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
