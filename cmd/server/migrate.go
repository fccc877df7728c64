package main

import (
	"account_service/internal/platform/config"
	"account_service/internal/platform/database"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// schemaMigrator is implemented by *database.Migrator.
type schemaMigrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Close() error
}

var newMigrator = func(databaseURL string) (schemaMigrator, error) {
	return database.NewMigrator(databaseURL)
}

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigration(cmd, schemaMigrator.Up)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigration(cmd, schemaMigrator.Down)
		},
	})

	return cmd
}

func runMigration(cmd *cobra.Command, step func(schemaMigrator) error) error {
	databaseURL, err := config.LoadDatabaseURL()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := step(m); err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	cmd.Printf("Schema at version %d (dirty: %t)\n", version, dirty)
	return nil
}
