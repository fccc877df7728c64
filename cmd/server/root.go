package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account-service",
		Short: "Account registration, login, verification and password reset",
		Long: `account-service serves the account HTTP API backed by PostgreSQL
and delivers verification and reset mail through a Redis queue.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
