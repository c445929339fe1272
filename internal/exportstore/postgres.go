package exportstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Mujanati13/xcite/internal/database"
	"github.com/Mujanati13/xcite/internal/exportstore/migrations"
	"github.com/Mujanati13/xcite/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/xid"
)

const pgMigrationsTable = "export_schema_migrations"

// PGStore keeps export records as jsonb documents in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// OpenPG connects to dsn and applies the store migrations.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	if err := database.RunMigrations(migrations.Postgres(), database.PostgresURL(dsn, pgMigrationsTable)); err != nil {
		return nil, fmt.Errorf("migrate export store: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConns = 4
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return NewPGStore(pool), nil
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PGStore) CreateExportRecord(ctx context.Context, rec models.ExportRecord) (string, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode export record: %w", err)
	}
	handle := xid.New().String()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO export_records (handle, document) VALUES ($1, $2)`,
		handle, doc,
	)
	if err != nil {
		return "", fmt.Errorf("insert export record: %w", err)
	}
	return handle, nil
}

func (s *PGStore) ScanExportRecords(ctx context.Context) ([]models.ExportRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT handle, document FROM export_records ORDER BY created_at, handle`)
	if err != nil {
		return nil, fmt.Errorf("query export records: %w", err)
	}
	defer rows.Close()

	var out []models.ExportRecord
	for rows.Next() {
		var handle string
		var doc []byte
		if err := rows.Scan(&handle, &doc); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(handle, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PGStore) GetExportRecord(ctx context.Context, handle string) (models.ExportRecord, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT document FROM export_records WHERE handle = $1`, handle).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ExportRecord{}, fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	if err != nil {
		return models.ExportRecord{}, fmt.Errorf("get export record: %w", err)
	}
	return decodeRecord(handle, doc)
}

func (s *PGStore) UpdateExportRecord(ctx context.Context, handle string, rec models.ExportRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode export record: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE export_records SET document = $2, updated_at = now() WHERE handle = $1`,
		handle, doc,
	)
	if err != nil {
		return fmt.Errorf("update export record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	return nil
}
