package database_test

import (
	"testing"

	"github.com/Mujanati13/xcite/internal/database"
	"github.com/stretchr/testify/assert"
)

func TestPostgresURL(t *testing.T) {
	tests := []struct {
		dsn, table, want string
	}{
		{"postgres://u:p@db:5432/xcite?sslmode=disable", "", "pgx5://u:p@db:5432/xcite?sslmode=disable"},
		{"postgresql://u:p@db/xcite", "export_migrations", "pgx5://u:p@db/xcite?x-migrations-table=export_migrations"},
		{"postgres://u:p@db/xcite?sslmode=require", "t", "pgx5://u:p@db/xcite?sslmode=require&x-migrations-table=t"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, database.PostgresURL(tt.dsn, tt.table))
	}
}

func TestSQLiteURL(t *testing.T) {
	assert.Equal(t, "sqlite3:///tmp/x.db", database.SQLiteURL("/tmp/x.db", ""))
	assert.Equal(t, "sqlite3://x.db?x-migrations-table=m", database.SQLiteURL("x.db", "m"))
}
