package exportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Mujanati13/xcite/internal/database"
	"github.com/Mujanati13/xcite/internal/exportstore/migrations"
	"github.com/Mujanati13/xcite/internal/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
)

const sqliteMigrationsTable = "export_schema_migrations"

// SQLiteStore keeps export records in a local SQLite file, for offline use.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the file at path and applies the store migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := database.RunMigrations(migrations.SQLite(), database.SQLiteURL(path, sqliteMigrationsTable)); err != nil {
		return nil, fmt.Errorf("migrate export store: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateExportRecord(ctx context.Context, rec models.ExportRecord) (string, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode export record: %w", err)
	}
	handle := xid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO export_records (handle, document, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		handle, string(doc), now(), now(),
	)
	if err != nil {
		return "", fmt.Errorf("insert export record: %w", err)
	}
	return handle, nil
}

func (s *SQLiteStore) ScanExportRecords(ctx context.Context) ([]models.ExportRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT handle, document FROM export_records ORDER BY created_at, handle`)
	if err != nil {
		return nil, fmt.Errorf("query export records: %w", err)
	}
	defer rows.Close()

	var out []models.ExportRecord
	for rows.Next() {
		var handle, doc string
		if err := rows.Scan(&handle, &doc); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(handle, []byte(doc))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetExportRecord(ctx context.Context, handle string) (models.ExportRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM export_records WHERE handle = ?`, handle).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ExportRecord{}, fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	if err != nil {
		return models.ExportRecord{}, fmt.Errorf("get export record: %w", err)
	}
	return decodeRecord(handle, []byte(doc))
}

func (s *SQLiteStore) UpdateExportRecord(ctx context.Context, handle string, rec models.ExportRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode export record: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE export_records SET document = ?, updated_at = ? WHERE handle = ?`,
		string(doc), now(), handle,
	)
	if err != nil {
		return fmt.Errorf("update export record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
