package main

import (
	"flag"
	"io"

	"github.com/banshee-data/formsense/internal/db"
)

func runMigrate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dbPath := fs.String("db", defaultDBPath, "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return db.RunMigrateCommand(fs.Args(), *dbPath, out)
}
