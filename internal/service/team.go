// Package service contains the business logic between the HTTP flows and the
// membership store and downstream services.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"tenantgate/internal/domain"
)

// TeamService resolves a principal's teams and the personal-team display
// heuristic. It only reads; membership writes belong to the ops CLI.
type TeamService struct {
	store  domain.MembershipStore
	logger *slog.Logger
}

func NewTeamService(store domain.MembershipStore, logger *slog.Logger) *TeamService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamService{store: store, logger: logger.With("component", "team-service")}
}

// UserTeams returns the principal's teams annotated with the caller's
// is_default flag and, where the personal-team heuristic applies, a derived
// display name.
//
// Enrichment (cross-membership default relations plus member emails) is
// best-effort: if it fails the teams come back without display names, and the
// request proceeds. Only the base membership fetch can fail the call.
func (s *TeamService) UserTeams(ctx context.Context, userID string) ([]domain.ResolvedTeam, error) {
	memberships, err := s.store.ListMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	// A dangling relation (team row gone) must not crash resolution.
	teams := make([]domain.ResolvedTeam, 0, len(memberships))
	teamIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if m.Team == nil {
			s.logger.Warn("discarding dangling membership",
				"key", "team_resolve:dangling_relation",
				"user_id", userID, "team_id", m.TeamID)
			continue
		}
		teams = append(teams, domain.ResolvedTeam{Team: *m.Team, IsDefault: m.IsDefault})
		teamIDs = append(teamIDs, m.Team.ID)
	}
	if len(teams) == 0 {
		return nil, nil
	}

	// Both enrichment reads are keyed on the team-ID set and independent of
	// each other, so they run concurrently. Both must land before the
	// heuristic below.
	var (
		relations []domain.Membership
		emails    map[string]string
		emailsErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		relations, err = s.store.ListDefaultRelations(gctx, teamIDs)
		return err
	})
	g.Go(func() error {
		emails, emailsErr = s.store.ListDefaultMemberEmails(gctx, teamIDs)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("team enrichment failed, returning base teams",
			"key", "team_resolve:enrichment_failed",
			"user_id", userID, "error", err)
		return teams, nil
	}
	if emailsErr != nil {
		s.logger.Warn("default member email lookup failed, skipping display names",
			"key", "team_resolve:email_lookup_failed",
			"user_id", userID, "error", emailsErr)
		return teams, nil
	}

	defaultUserByTeam := make(map[string]string, len(relations))
	for _, rel := range relations {
		defaultUserByTeam[rel.TeamID] = rel.UserID
	}

	// Personal-team heuristic: a team whose stored name equals its default
	// member's email was auto-created at signup and gets a friendlier label.
	for i := range teams {
		defaultUser, ok := defaultUserByTeam[teams[i].ID]
		if !ok {
			continue
		}
		email, ok := emails[defaultUser]
		if !ok || teams[i].Name != email {
			continue
		}
		teams[i].DisplayName = PersonalTeamName(email)
	}

	return teams, nil
}

// ResolveDefault returns the principal's single default team, or nil when the
// principal has no teams or the single-default invariant is violated (zero or
// multiple defaults). It errors only on infrastructure failure.
func (s *TeamService) ResolveDefault(ctx context.Context, userID string) (*domain.ResolvedTeam, error) {
	teams, err := s.UserTeams(ctx, userID)
	if err != nil {
		return nil, err
	}
	return pickDefault(s.logger, userID, teams), nil
}

// DefaultTeamIdentity is the lean variant of ResolveDefault used where only
// tenant identity matters: it skips enrichment entirely.
func (s *TeamService) DefaultTeamIdentity(ctx context.Context, userID string) (*domain.ResolvedTeam, error) {
	memberships, err := s.store.ListMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	teams := make([]domain.ResolvedTeam, 0, len(memberships))
	for _, m := range memberships {
		if m.Team == nil {
			continue
		}
		teams = append(teams, domain.ResolvedTeam{Team: *m.Team, IsDefault: m.IsDefault})
	}
	return pickDefault(s.logger, userID, teams), nil
}

// pickDefault enforces the exactly-one-default invariant. Zero and multiple
// defaults fail identically: both mean the stored relations are in a state
// resolution must not guess its way out of.
func pickDefault(logger *slog.Logger, userID string, teams []domain.ResolvedTeam) *domain.ResolvedTeam {
	var found *domain.ResolvedTeam
	for i := range teams {
		if !teams[i].IsDefault {
			continue
		}
		if found != nil {
			logger.Error("multiple default teams for user",
				"key", "team_resolve:ambiguous_default", "user_id", userID)
			return nil
		}
		found = &teams[i]
	}
	return found
}

// PersonalTeamName derives the display label for an auto-created personal
// team from its default member's email: "alice@example.com" -> "Alice's Team".
func PersonalTeamName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "Your Team"
	}
	r, size := utf8.DecodeRuneInString(local)
	return string(unicode.ToUpper(r)) + local[size:] + "'s Team"
}
