package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

//go:generate sh -c "cd ../.. && sqlc generate"

// pragmas are applied to every connection modernc opens.
const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// DB is the shared handle of the plan, recipe, session and metrics repositories.
type DB struct {
	SQL *sql.DB
}

// NewDB opens the SQLite file at dbPath, creating its directory, and brings the schema
// up to date before any repository sees the handle.
func NewDB(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?%s", dbPath, pragmas))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time; the sync controllers and the webhook share this handle
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrateUp(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{SQL: conn}, nil
}

// migrateUp applies the embedded migrations over conn.
func migrateUp(conn *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	defer source.Close()

	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// m.Close would close conn as well; the caller owns it.

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		return nil
	case err != nil:
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	if v, _, verr := m.Version(); verr == nil {
		log.Printf("Database schema migrated to version %d", v)
	}
	return nil
}

// SchemaVersion reports the applied migration version and whether the last one failed
// halfway.
func (d *DB) SchemaVersion() (uint, bool, error) {
	var (
		version int64
		dirty   bool
	)
	err := d.SQL.QueryRow(`SELECT version, dirty FROM ` + migratesqlite.DefaultMigrationsTable + ` LIMIT 1`).Scan(&version, &dirty)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return uint(version), dirty, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.SQL.Close()
}
