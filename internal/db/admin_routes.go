package db

import (
	"fmt"
	"net/http"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"
)

// AttachAdminRoutes mounts the tsweb debug index on mux with a live SQL
// console over this database at /debug/tailsql/. The returned handler
// accepts further debug pages; tsweb.Debugger must not be called again on
// the same mux.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) (*tsweb.DebugHandler, error) {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return nil, fmt.Errorf("create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+db.path, db.DB, &tailsql.DBOptions{
		Label: "formsense DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	return debug, nil
}
