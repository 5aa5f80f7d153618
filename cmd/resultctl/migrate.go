package main

import (
	"github.com/spf13/cobra"

	"github.com/noah-isme/result-ledger-api/pkg/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate COMMAND [ARGS...]",
		Short:     "Run a goose command (up, down, status, up-to N, ...) against the embedded migrations",
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: []string{"up", "up-by-one", "up-to", "down", "down-to", "redo", "reset", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrateFunc(cmd.Context(), cli.db, args[0], args[1:]...)
		},
	}
}
