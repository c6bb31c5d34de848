// Package migrate manages the schema of the local auth-event database with
// embedded goose migrations.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"log"
	"strings"

	"github.com/pressly/goose/v3"
	_ "github.com/glebarez/go-sqlite"
)

// migrationsFS holds embedded SQL migrations in migrate/sql.
//
//go:embed sql/*.sql
var migrationsFS embed.FS

// Options defines how to run migrations.
type Options struct {
	DSN     string      // path of the SQLite events database
	Command string      // up, down, status, version (default: up)
	Logger  *log.Logger // optional logger
}

// Run executes migrations based on provided options. An empty DSN is a no-op.
func Run(opts Options) error {
	if strings.TrimSpace(opts.DSN) == "" {
		return nil
	}

	if opts.Logger != nil {
		goose.SetLogger(opts.Logger)
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	db, err := sql.Open("sqlite", opts.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	dir := "sql"
	switch strings.ToLower(strings.TrimSpace(opts.Command)) {
	case "", "up":
		return goose.Up(db, dir)
	case "down":
		return goose.Down(db, dir)
	case "status":
		return goose.Status(db, dir)
	case "version":
		return goose.Version(db, dir)
	default:
		return fmt.Errorf("unknown migration command: %s", opts.Command)
	}
}
