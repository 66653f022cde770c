package db

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrUsage is returned for an unknown or incomplete migrate action.
var ErrUsage = errors.New("usage: formsense migrate up|down|status|force <version>")

// RunMigrateCommand applies a migrate action to the database at dbPath and
// writes a status line to out.
func RunMigrateCommand(args []string, dbPath string, out io.Writer) error {
	if len(args) < 1 {
		return ErrUsage
	}
	database, err := OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()
	migrations := MigrationsFS()

	switch args[0] {
	case "up":
		if err := database.MigrateUp(migrations); err != nil {
			return err
		}
	case "down":
		if err := database.MigrateDown(migrations); err != nil {
			return err
		}
	case "force":
		if len(args) < 2 {
			return ErrUsage
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version number %q: %w", args[1], err)
		}
		if err := database.MigrateForce(migrations, v); err != nil {
			return err
		}
	case "status":
	default:
		return fmt.Errorf("unknown migrate action %q: %w", args[0], ErrUsage)
	}

	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		return err
	}
	latest, err := LatestMigrationVersion(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "version %d of %d (dirty: %v)\n", version, latest, dirty)
	return nil
}
