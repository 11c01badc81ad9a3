package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tenantgate/internal/domain"
)

// newSeedCmd populates the store with a demo user, their personal team, and
// a shared team. Idempotent — does nothing when teams already exist.
func newSeedCmd(dbPath *string) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the membership store with demo data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, cleanup, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()

			n, err := repo.CountTeams(ctx)
			if err != nil {
				return fmt.Errorf("count teams: %w", err)
			}
			if n > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "store already seeded, nothing to do")
				return nil
			}

			userID := uuid.NewString()
			if err := repo.UpsertAuthUser(ctx, userID, email); err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			// Personal teams are stored under the owner's email; the display
			// name is derived at read time.
			personal, err := repo.CreateTeam(ctx, domain.CreateTeamRequest{Name: email})
			if err != nil {
				return fmt.Errorf("create personal team: %w", err)
			}
			if err := repo.AddMembership(ctx, domain.Membership{
				UserID: userID, TeamID: personal.ID, IsDefault: true,
			}); err != nil {
				return fmt.Errorf("add personal membership: %w", err)
			}

			shared, err := repo.CreateTeam(ctx, domain.CreateTeamRequest{
				Name: "Acme Engineering",
				Slug: "acme-engineering",
			})
			if err != nil {
				return fmt.Errorf("create shared team: %w", err)
			}
			if err := repo.AddMembership(ctx, domain.Membership{
				UserID: userID, TeamID: shared.ID,
			}); err != nil {
				return fmt.Errorf("add shared membership: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded user %s (%s)\n", email, userID)
			fmt.Fprintf(cmd.OutOrStdout(), "  personal team %s\n", personal.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "  shared team   %s (%s)\n", shared.ID, shared.SlugOrID())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "demo@example.com", "Email of the demo user")
	cmd.PreRunE = func(*cobra.Command, []string) error {
		if !strings.Contains(email, "@") {
			return fmt.Errorf("--email must be an email address, got %q", email)
		}
		return nil
	}
	return cmd
}
