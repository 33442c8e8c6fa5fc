// Package repomanager vends repository implementations for the configured
// SQL backend and runs the embedded goose migrations for it.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/geodash/internal/dbx"
	"github.com/dmitrijs2005/geodash/internal/server/migrations"
	"github.com/dmitrijs2005/geodash/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Dialect() dbx.Dialect
}

// SQLRepositoryManager serves both supported dialects; they differ only in
// the database/sql driver, the goose dialect and the migrations directory.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect {
	return m.dialect
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	gooseDialect, dir := "pgx", "postgres"
	if m.dialect == dbx.DialectSQLite {
		gooseDialect, dir = "sqlite3", "sqlite"
	}

	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return err
	}
	return nil
}

// NewRepositoryManager returns the manager for driver ("postgres" or
// "sqlite").
func NewRepositoryManager(driver string) (RepositoryManager, error) {
	switch dbx.Dialect(driver) {
	case dbx.DialectPostgres, dbx.DialectSQLite:
		return &SQLRepositoryManager{dialect: dbx.Dialect(driver)}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

// OpenDB opens and pings the database for dialect d.
func OpenDB(ctx context.Context, d dbx.Dialect, dsn string) (*sql.DB, error) {
	driverName := "pgx"
	if d == dbx.DialectSQLite {
		driverName = "sqlite"
		dsn = SQLiteDSN(dsn)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	if d == dbx.DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// SQLiteDSN makes SQLite store times in its own text format, which the
// users repository compares and shifts with strftime.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "_time_format=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_time_format=sqlite"
	}
	return dsn + "?_time_format=sqlite"
}
