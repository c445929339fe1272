// Package exportstore holds the implementations of the secondary record store.
package exportstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/table"
)

var ErrNotFound = errors.New("export record not found")

// Drivers accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
)

// Config selects and addresses a store.
type Config struct {
	Driver string
	// DSN is the PostgreSQL connection string, the MongoDB URI or the SQLite file path.
	DSN      string
	Database string // mongo only
}

// Store is a record store that owns a connection.
type Store interface {
	table.RecordStore
	Close() error
}

// Open connects the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("export store %q: empty dsn", cfg.Driver)
	}
	switch cfg.Driver {
	case DriverPostgres:
		return OpenPG(ctx, cfg.DSN)
	case DriverMongo:
		return OpenMongo(ctx, cfg.DSN, cfg.Database)
	case DriverSQLite, "":
		return OpenSQLite(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown export store driver %q", cfg.Driver)
	}
}

func decodeRecord(handle string, doc []byte) (models.ExportRecord, error) {
	var rec models.ExportRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return models.ExportRecord{}, fmt.Errorf("decode export record %s: %w", handle, err)
	}
	rec.Handle = handle
	return rec, nil
}
