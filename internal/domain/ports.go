package domain

import "context"

// MembershipStore is the persistence port for the team membership catalog.
// Implementations must support the filtered joins the resolver needs; the
// store is read-mostly — the gateway never runs read-modify-write sequences.
type MembershipStore interface {
	// ListMemberships returns all membership rows for the user with the team
	// record embedded. Rows whose team cannot be loaded carry a nil Team.
	ListMemberships(ctx context.Context, userID string) ([]MembershipWithTeam, error)

	// ListDefaultRelations returns every membership row flagged is_default
	// across all members of the given teams.
	ListDefaultRelations(ctx context.Context, teamIDs []string) ([]Membership, error)

	// ListDefaultMemberEmails returns userID -> email for the default members
	// of the given teams, projected from the auth user mirror.
	ListDefaultMemberEmails(ctx context.Context, teamIDs []string) (map[string]string, error)
}

// MembershipAdmin extends the store with the write operations the ops CLI
// and seeding use. The serving path never writes.
type MembershipAdmin interface {
	MembershipStore
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*Team, error)
	UpsertAuthUser(ctx context.Context, id, email string) error
	AddMembership(ctx context.Context, m Membership) error
	CountTeams(ctx context.Context) (int64, error)
}
