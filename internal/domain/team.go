package domain

import "time"

// Team is a named tenant owning dashboard resources.
type Team struct {
	ID        string
	Name      string
	Slug      *string // URL-safe alias, may be absent
	CreatedAt time.Time
}

// SlugOrID returns the team's slug when present, falling back to its ID.
// Tenant-scoped paths are built from this value.
func (t *Team) SlugOrID() string {
	if t.Slug != nil && *t.Slug != "" {
		return *t.Slug
	}
	return t.ID
}

// Membership is a (user, team) relation row. At most one membership per user
// carries IsDefault=true across all of that user's teams.
type Membership struct {
	UserID    string
	TeamID    string
	IsDefault bool
}

// MembershipWithTeam is a membership row with its team record embedded.
// Team is nil when the relation dangles (the team failed to load); callers
// must discard such rows rather than fail.
type MembershipWithTeam struct {
	Membership
	Team *Team
}

// ResolvedTeam is a team annotated with the calling user's default flag and
// an optional derived display name. DisplayName is never persisted; it is
// recomputed on every read.
type ResolvedTeam struct {
	Team
	IsDefault bool
	// DisplayName is set when the team is an auto-created personal team
	// (stored name equals the default member's email). Empty otherwise.
	DisplayName string
}

// CreateTeamRequest holds parameters for creating a team.
type CreateTeamRequest struct {
	Name string
	Slug string
}

// Validate checks that the request is well-formed.
func (r *CreateTeamRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("team name is required")
	}
	return nil
}
