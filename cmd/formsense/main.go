// Command formsense serves the pose pipeline over HTTP, replays recorded
// frame streams, and manages the database schema.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/formsense/internal/db"
	"github.com/banshee-data/formsense/internal/version"
)

const usage = `usage: formsense [serve|replay|migrate] [flags]

  serve    run the HTTP API (default)
  replay   run a JSON-lines frame recording through the pipeline
  migrate  manage the database schema (up, down, status, force N)
  version  print build information
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, db.ErrUsage) || errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		log.Fatal(err)
	}
}

var errUsage = errors.New("unknown command")

func run(args []string, out io.Writer) error {
	cmd := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve":
		return runServe(args)
	case "replay":
		return runReplay(args, out)
	case "migrate":
		return runMigrate(args, out)
	case "version":
		fmt.Fprintln(out, version.String())
		return nil
	case "help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("%w: %q", errUsage, cmd)
	}
}
