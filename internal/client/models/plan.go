package models

import (
	"strings"
	"time"
)

// Plan is a travel itinerary over a set of places.
type Plan struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required,gtefield=StartDate"`

	// Offline marks a plan whose places should be kept available without
	// a connection.
	Offline bool     `json:"offline"`
	Places  []string `json:"places" validate:"min=1,dive,required"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlanPatch is a partial plan update. Nil fields are left untouched.
type PlanPatch struct {
	Name      *string    `validate:"omitempty,min=1"`
	StartDate *time.Time
	EndDate   *time.Time
	Offline   *bool
	Places    []string `validate:"omitempty,min=1,dive,required"`
}

// Apply returns a copy of p with the patch applied.
func (pp PlanPatch) Apply(p Plan) Plan {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.StartDate != nil {
		p.StartDate = *pp.StartDate
	}
	if pp.EndDate != nil {
		p.EndDate = *pp.EndDate
	}
	if pp.Offline != nil {
		p.Offline = *pp.Offline
	}
	if pp.Places != nil {
		p.Places = append([]string(nil), pp.Places...)
	}
	return p
}

// Empty reports whether the patch changes nothing.
func (pp PlanPatch) Empty() bool {
	return pp.Name == nil && pp.StartDate == nil && pp.EndDate == nil &&
		pp.Offline == nil && pp.Places == nil
}

// ParseList splits a comma separated list, dropping blanks.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
