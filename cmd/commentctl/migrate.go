package main

import (
	"fmt"
	"strconv"

	"github.com/newsroom-comments-api/internal/config"
	"github.com/newsroom-comments-api/internal/database"
	"github.com/newsroom-comments-api/pkg/logger"
	"github.com/spf13/cobra"
)

var migrationsPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *database.DB, path string) error {
			return db.RunMigrations(path)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *database.DB, path string) error {
			return db.MigrateDown(path)
		})
	},
}

var migrateToCmd = &cobra.Command{
	Use:   "to VERSION",
	Short: "Migrate up or down to a specific version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersion(args[0])
		if err != nil {
			return err
		}
		return withDatabase(func(db *database.DB, path string) error {
			return db.MigrateToVersion(path, version)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *database.DB, path string) error {
			version, dirty, err := db.MigrationVersion(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		})
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "migrations directory (default: MIGRATIONS_PATH)")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateToCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func parseVersion(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: must be a non-negative integer", s)
	}
	return uint(v), nil
}

// withDatabase opens the configured database for the duration of fn
func withDatabase(fn func(db *database.DB, path string) error) error {
	log := logger.New("commentctl")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	path := migrationsPath
	if path == "" {
		path = cfg.Database.MigrationsPath
	}
	return fn(db, path)
}
