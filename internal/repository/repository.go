package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mujanati13/xcite/config"
	"github.com/Mujanati13/xcite/internal/database"
	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/repository/db"
	"github.com/Mujanati13/xcite/internal/repository/migrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewPool(ctx context.Context, pg config.PG) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(pg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.PingTimeout = 30 * time.Second
	poolCfg.MaxConns = int32(pg.PoolMax)
	poolCfg.MinConns = 2
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	err = p.Ping(ctx)
	if err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// Migrate brings the property schema up to date.
func Migrate(pg config.PG) error {
	return database.RunMigrations(migrations.FS, database.PostgresURL(pg.DSN(), "schema_migrations"))
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{
		q:    db.New(pool),
		pool: pool,
	}
}

// CountProperties counts the properties of agentID, or of all agents when agentID is nil.
func (r *Repository) CountProperties(ctx context.Context, agentID *int64) (int, error) {
	count, err := r.q.CountProperties(ctx, nullableInt8(agentID))
	if err != nil {
		return 0, fmt.Errorf("count properties: %w", err)
	}
	return int(count), nil
}

func (r *Repository) ListProperties(ctx context.Context, agentID *int64, limit, offset int) ([]models.Property, error) {
	rows, err := r.q.ListProperties(ctx, db.ListPropertiesParams{
		MaklerID: nullableInt8(agentID),
		Limit:    int32(limit),
		Offset:   int32(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}

	props := make([]models.Property, len(rows))
	for i, row := range rows {
		props[i] = toProperty(row.XsLiegenschaften, row.MeterCount)
	}
	return props, nil
}

func (r *Repository) ListAgentMeterRows(ctx context.Context, agentID int64) ([]models.AgentMeterRow, error) {
	rows, err := r.q.ListAgentMeterRows(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("query agent properties: %w", err)
	}

	out := make([]models.AgentMeterRow, len(rows))
	for i, row := range rows {
		out[i] = models.AgentMeterRow{
			Property:      toProperty(row.XsLiegenschaften, 0),
			EnergyType:    nullableText(row.Energieart),
			MeterNumber:   nullableText(row.Zaehlernummer),
			MeterStatus:   nullableText(row.Zaehlerstatus),
			MeteringPoint: nullableText(row.Zaehlpunktbezeichnung),
			HTNT:          nullableBool(row.HtNt),
		}
	}
	return out, nil
}

func (r *Repository) ListContracts(ctx context.Context, propertyID int64) ([]models.Contract, error) {
	rows, err := r.q.ListContracts(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}

	contracts := make([]models.Contract, len(rows))
	for i, row := range rows {
		contracts[i] = models.Contract{
			ID:            row.ID,
			PropertyID:    row.XsLiegenschaftenID,
			EnergyType:    row.Energieart.String,
			MeterNumber:   row.Zaehlernummer.String,
			MeterStatus:   row.Zaehlerstatus.String,
			MeteringPoint: row.Zaehlpunktbezeichnung.String,
			HTNT:          row.HtNt,
		}
	}
	return contracts, nil
}

// UpdateProperty applies the set fields of upd and returns the stored row.
// Update and read-back run in one transaction.
func (r *Repository) UpdateProperty(ctx context.Context, propertyID int64, upd models.PropertyUpdate) (models.Property, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.Property{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	q := r.q.WithTx(tx)
	n, err := q.UpdatePropertyAddress(ctx, db.UpdatePropertyAddressParams{
		ID:                         propertyID,
		Strasse:                    textParam(upd.Street),
		Hausnummer:                 textParam(upd.HouseNumber),
		Plz:                        textParam(upd.PostalCode),
		Ort:                        textParam(upd.City),
		LeistungsempfaengerName:    textParam(upd.RecipientName),
		LeistungsempfaengerStrasse: textParam(upd.RecipientStreet),
		LeistungsempfaengerHnr:     textParam(upd.RecipientHouseNumber),
		LeistungsempfaengerPlz:     textParam(upd.RecipientPostalCode),
		LeistungsempfaengerOrt:     textParam(upd.RecipientCity),
	})
	if err != nil {
		return models.Property{}, fmt.Errorf("update property: %w", err)
	}
	if n == 0 {
		return models.Property{}, ErrNotFound
	}

	row, err := q.GetProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Property{}, ErrNotFound
		}
		return models.Property{}, fmt.Errorf("read property: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Property{}, fmt.Errorf("commit: %w", err)
	}
	return toProperty(row.XsLiegenschaften, row.MeterCount), nil
}

func toProperty(row db.XsLiegenschaften, meterCount int64) models.Property {
	return models.Property{
		ID:                   row.ID,
		AgentID:              row.MaklerID,
		Status:               int(row.Status),
		Street:               row.Strasse.String,
		HouseNumber:          row.Hausnummer.String,
		PostalCode:           row.Plz.String,
		City:                 row.Ort.String,
		Remark:               row.BemerkungObjekt.String,
		RecipientName:        row.LeistungsempfaengerName.String,
		RecipientStreet:      row.LeistungsempfaengerStrasse.String,
		RecipientHouseNumber: row.LeistungsempfaengerHnr.String,
		RecipientPostalCode:  row.LeistungsempfaengerPlz.String,
		RecipientCity:        row.LeistungsempfaengerOrt.String,
		CreatedAt:            row.ErstelltAm,
		UpdatedAt:            row.AktualisiertAm,
		MeterCount:           int(meterCount),
	}
}

func nullableText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func nullableBool(b pgtype.Bool) *bool {
	if !b.Valid {
		return nil
	}
	return &b.Bool
}

func nullableInt8(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}

func textParam(v *string) pgtype.Text {
	if v == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *v, Valid: true}
}
