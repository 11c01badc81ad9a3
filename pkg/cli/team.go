package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tenantgate/internal/domain"
)

func newTeamCmd(dbPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage teams and memberships",
	}
	cmd.AddCommand(newTeamCreateCmd(dbPath))
	cmd.AddCommand(newTeamAddMemberCmd(dbPath))
	cmd.AddCommand(newTeamListCmd(dbPath))
	return cmd
}

func newTeamCreateCmd(dbPath *string) *cobra.Command {
	var name, slug string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, cleanup, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			team, err := repo.CreateTeam(cmd.Context(), domain.CreateTeamRequest{Name: name, Slug: slug})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created team %s (%s)\n", team.ID, team.SlugOrID())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Team name (required)")
	cmd.Flags().StringVar(&slug, "slug", "", "URL-safe team slug (optional)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTeamAddMemberCmd(dbPath *string) *cobra.Command {
	var (
		userID     string
		email      string
		setDefault bool
	)

	cmd := &cobra.Command{
		Use:   "add-member <team-id>",
		Short: "Add a user to a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cleanup, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			if err := repo.UpsertAuthUser(ctx, userID, email); err != nil {
				return fmt.Errorf("upsert user: %w", err)
			}
			if err := repo.AddMembership(ctx, domain.Membership{
				UserID:    userID,
				TeamID:    args[0],
				IsDefault: setDefault,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s to team %s\n", userID, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID as issued by the identity provider (required)")
	cmd.Flags().StringVar(&email, "email", "", "User email (required)")
	cmd.Flags().BoolVar(&setDefault, "default", false, "Mark this team as the user's default")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newTeamListCmd(dbPath *string) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's team memberships",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, cleanup, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			memberships, err := repo.ListMemberships(cmd.Context(), userID)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TEAM ID\tNAME\tSLUG\tDEFAULT")
			for _, m := range memberships {
				if m.Team == nil {
					fmt.Fprintf(tw, "%s\t(dangling)\t\t%v\n", m.TeamID, m.IsDefault)
					continue
				}
				slug := ""
				if m.Team.Slug != nil {
					slug = *m.Team.Slug
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", m.Team.ID, m.Team.Name, slug, m.IsDefault)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID to list memberships for (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
