package main

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/noah-isme/result-ledger-api/internal/grading"
	"github.com/noah-isme/result-ledger-api/internal/models"
)

type accountCreator interface {
	Create(ctx context.Context, req models.CreateUserRequest, actorID string, meta models.LoginRequest) (*models.User, error)
}

type ledgerTables interface {
	Table(ctx context.Context, scope models.ResultScope, mode models.LedgerMode) (grading.Table, error)
}

type commandLine struct {
	db       *sql.DB
	accounts accountCreator
	ledgers  ledgerTables
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "resultctl",
		Short:         "Operate the result ledger database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(cli.migrateCmd(), cli.addUserCmd(), cli.ledgerCmd())
	return root
}
