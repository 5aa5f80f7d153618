// Command resultctl is the operator CLI: schema migrations, account
// bootstrap and terminal ledgers.
package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/result-ledger-api/internal/bootstrap"
	"github.com/noah-isme/result-ledger-api/pkg/config"
	"github.com/noah-isme/result-ledger-api/pkg/database"
	"github.com/noah-isme/result-ledger-api/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// the CLI never runs export workers
	cfg.Reports.Enabled = false

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	svcs, err := bootstrap.New(cfg, db, nil, logr)
	if err != nil {
		return err
	}

	cli := &commandLine{
		db:       db.DB,
		accounts: svcs.Accounts,
		ledgers:  svcs.Ledgers,
	}
	return cli.rootCmd().Execute()
}
