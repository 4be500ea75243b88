package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/spf13/cobra"

	"github.com/tickerflow/tickerdesk/internal/duckdb/migrate"
)

var migrateStatusOnly bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending catalog schema migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatusOnly, "status", false, "report the schema version without applying anything")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	db, err := sql.Open("duckdb", cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", shortenPath(cfg.DBPath), err)
	}
	defer db.Close()

	r := migrate.NewRunner(db)
	out := cmd.OutOrStdout()

	if !migrateStatusOnly {
		if err := r.RunContext(cmd.Context()); err != nil {
			return err
		}
	}
	cur, pending, err := r.Status()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: schema version %d, %d pending\n", shortenPath(cfg.DBPath), cur, pending)

	migs, err := migrate.Migrations()
	if err != nil {
		return err
	}
	for _, m := range migs {
		mark := "applied"
		if m.Version > cur {
			mark = "pending"
		}
		fmt.Fprintf(out, "  %03d %-28s %s\n", m.Version, m.Name, mark)
	}
	return nil
}
