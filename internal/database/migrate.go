package database

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// RunMigrations applies every pending migration found at the root of fsys.
// databaseURL selects the driver by scheme: pgx5:// for PostgreSQL, sqlite3:// for SQLite.
func RunMigrations(fsys fs.FS, databaseURL string) error {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// PostgresURL turns a postgres:// DSN into the URL the pgx/v5 migrate driver expects.
// table names the version table, so several schemas can share one database.
func PostgresURL(dsn, table string) string {
	url := dsn
	if _, rest, ok := strings.Cut(dsn, "://"); ok {
		url = "pgx5://" + rest
	}
	if table == "" {
		return url
	}
	return withParam(url, "x-migrations-table", table)
}

// SQLiteURL returns the migrate URL of a SQLite file.
func SQLiteURL(path, table string) string {
	url := "sqlite3://" + path
	if table == "" {
		return url
	}
	return withParam(url, "x-migrations-table", table)
}

func withParam(url, key, value string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + key + "=" + value
}
