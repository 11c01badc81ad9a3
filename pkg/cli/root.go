// Package cli implements the tenantgate admin CLI. It operates directly on
// the SQLite membership store; the HTTP server does not need to be running.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	internaldb "tenantgate/internal/db"
	"tenantgate/internal/db/repository"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var dbPath string

	rootCmd := &cobra.Command{
		Use:           "tenantgate",
		Short:         "Tenant gateway admin CLI",
		Long:          "Administer the tenant gateway membership store (teams, users, memberships).",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "Path to the SQLite membership store")

	rootCmd.AddCommand(newSeedCmd(&dbPath))
	rootCmd.AddCommand(newTeamCmd(&dbPath))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// defaultDBPath mirrors the server's DB_PATH resolution so both binaries hit
// the same store when run from the same directory.
func defaultDBPath() string {
	if v := os.Getenv("DB_PATH"); v != "" {
		return v
	}
	return "tenantgate.sqlite"
}

// openStore opens the membership store and applies pending migrations.
// The returned cleanup closes both pools.
func openStore(dbPath string) (*repository.TeamRepo, func(), error) {
	writeDB, readDB, err := internaldb.OpenSQLitePair(dbPath, 2)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	cleanup := func() {
		_ = writeDB.Close()
		_ = readDB.Close()
	}
	if err := internaldb.RunMigrations(writeDB); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	return repository.NewTeamRepo(writeDB, readDB), cleanup, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tenantgate %s (%s)\n", version, commit)
		},
	}
}
