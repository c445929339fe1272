package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const countProperties = `-- name: CountProperties :one
SELECT count(*) FROM xs_liegenschaften
WHERE ($1::bigint IS NULL OR makler_id = $1)
`

func (q *Queries) CountProperties(ctx context.Context, maklerID pgtype.Int8) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countProperties, maklerID).Scan(&count)
	return count, err
}

const listProperties = `-- name: ListProperties :many
SELECT p.id, p.makler_id, p.status, p.strasse, p.hausnummer, p.plz, p.ort,
       p.bemerkung_objekt, p.leistungsempfaenger_name, p.leistungsempfaenger_strasse,
       p.leistungsempfaenger_hnr, p.leistungsempfaenger_plz, p.leistungsempfaenger_ort,
       p.erstellt_am, p.aktualisiert_am, count(z.id) AS meter_count
FROM xs_liegenschaften p
LEFT JOIN xs_liegenschaften_zaehler z ON p.id = z.xs_liegenschaften_id
WHERE ($1::bigint IS NULL OR p.makler_id = $1)
GROUP BY p.id
ORDER BY p.id
LIMIT $2 OFFSET $3
`

type ListPropertiesParams struct {
	MaklerID pgtype.Int8
	Limit    int32
	Offset   int32
}

type ListPropertiesRow struct {
	XsLiegenschaften
	MeterCount int64
}

func (q *Queries) ListProperties(ctx context.Context, arg ListPropertiesParams) ([]ListPropertiesRow, error) {
	rows, err := q.db.Query(ctx, listProperties, arg.MaklerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListPropertiesRow
	for rows.Next() {
		var i ListPropertiesRow
		if err := rows.Scan(
			&i.ID, &i.MaklerID, &i.Status, &i.Strasse, &i.Hausnummer,
			&i.Plz, &i.Ort, &i.BemerkungObjekt, &i.LeistungsempfaengerName,
			&i.LeistungsempfaengerStrasse, &i.LeistungsempfaengerHnr,
			&i.LeistungsempfaengerPlz, &i.LeistungsempfaengerOrt,
			&i.ErstelltAm, &i.AktualisiertAm, &i.MeterCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getProperty = `-- name: GetProperty :one
SELECT p.id, p.makler_id, p.status, p.strasse, p.hausnummer, p.plz, p.ort,
       p.bemerkung_objekt, p.leistungsempfaenger_name, p.leistungsempfaenger_strasse,
       p.leistungsempfaenger_hnr, p.leistungsempfaenger_plz, p.leistungsempfaenger_ort,
       p.erstellt_am, p.aktualisiert_am,
       (SELECT count(*) FROM xs_liegenschaften_zaehler z WHERE z.xs_liegenschaften_id = p.id) AS meter_count
FROM xs_liegenschaften p
WHERE p.id = $1
`

func (q *Queries) GetProperty(ctx context.Context, id int64) (ListPropertiesRow, error) {
	var i ListPropertiesRow
	err := q.db.QueryRow(ctx, getProperty, id).Scan(
		&i.ID, &i.MaklerID, &i.Status, &i.Strasse, &i.Hausnummer,
		&i.Plz, &i.Ort, &i.BemerkungObjekt, &i.LeistungsempfaengerName,
		&i.LeistungsempfaengerStrasse, &i.LeistungsempfaengerHnr,
		&i.LeistungsempfaengerPlz, &i.LeistungsempfaengerOrt,
		&i.ErstelltAm, &i.AktualisiertAm, &i.MeterCount,
	)
	return i, err
}

const listAgentMeterRows = `-- name: ListAgentMeterRows :many
SELECT p.id, p.makler_id, p.status, p.strasse, p.hausnummer, p.plz, p.ort,
       p.bemerkung_objekt, p.leistungsempfaenger_name, p.leistungsempfaenger_strasse,
       p.leistungsempfaenger_hnr, p.leistungsempfaenger_plz, p.leistungsempfaenger_ort,
       p.erstellt_am, p.aktualisiert_am,
       z.energieart, z.zaehlernummer, z.zaehlerstatus, z.zaehlpunktbezeichnung, z.ht_nt
FROM xs_liegenschaften p
LEFT JOIN xs_liegenschaften_zaehler z ON p.id = z.xs_liegenschaften_id
WHERE p.makler_id = $1
ORDER BY p.id, z.id
`

type ListAgentMeterRowsRow struct {
	XsLiegenschaften
	Energieart            pgtype.Text
	Zaehlernummer         pgtype.Text
	Zaehlerstatus         pgtype.Text
	Zaehlpunktbezeichnung pgtype.Text
	HtNt                  pgtype.Bool
}

func (q *Queries) ListAgentMeterRows(ctx context.Context, maklerID int64) ([]ListAgentMeterRowsRow, error) {
	rows, err := q.db.Query(ctx, listAgentMeterRows, maklerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListAgentMeterRowsRow
	for rows.Next() {
		var i ListAgentMeterRowsRow
		if err := rows.Scan(
			&i.ID, &i.MaklerID, &i.Status, &i.Strasse, &i.Hausnummer,
			&i.Plz, &i.Ort, &i.BemerkungObjekt, &i.LeistungsempfaengerName,
			&i.LeistungsempfaengerStrasse, &i.LeistungsempfaengerHnr,
			&i.LeistungsempfaengerPlz, &i.LeistungsempfaengerOrt,
			&i.ErstelltAm, &i.AktualisiertAm,
			&i.Energieart, &i.Zaehlernummer, &i.Zaehlerstatus,
			&i.Zaehlpunktbezeichnung, &i.HtNt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listContracts = `-- name: ListContracts :many
SELECT id, xs_liegenschaften_id, energieart, zaehlernummer, zaehlerstatus,
       zaehlpunktbezeichnung, ht_nt
FROM xs_liegenschaften_zaehler
WHERE xs_liegenschaften_id = $1
ORDER BY id
`

func (q *Queries) ListContracts(ctx context.Context, propertyID int64) ([]XsLiegenschaftenZaehler, error) {
	rows, err := q.db.Query(ctx, listContracts, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []XsLiegenschaftenZaehler
	for rows.Next() {
		var i XsLiegenschaftenZaehler
		if err := rows.Scan(
			&i.ID, &i.XsLiegenschaftenID, &i.Energieart, &i.Zaehlernummer,
			&i.Zaehlerstatus, &i.Zaehlpunktbezeichnung, &i.HtNt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updatePropertyAddress = `-- name: UpdatePropertyAddress :execrows
UPDATE xs_liegenschaften SET
    strasse                     = COALESCE($2, strasse),
    hausnummer                  = COALESCE($3, hausnummer),
    plz                         = COALESCE($4, plz),
    ort                         = COALESCE($5, ort),
    leistungsempfaenger_name    = COALESCE($6, leistungsempfaenger_name),
    leistungsempfaenger_strasse = COALESCE($7, leistungsempfaenger_strasse),
    leistungsempfaenger_hnr     = COALESCE($8, leistungsempfaenger_hnr),
    leistungsempfaenger_plz     = COALESCE($9, leistungsempfaenger_plz),
    leistungsempfaenger_ort     = COALESCE($10, leistungsempfaenger_ort),
    aktualisiert_am             = now()
WHERE id = $1
`

type UpdatePropertyAddressParams struct {
	ID                         int64
	Strasse                    pgtype.Text
	Hausnummer                 pgtype.Text
	Plz                        pgtype.Text
	Ort                        pgtype.Text
	LeistungsempfaengerName    pgtype.Text
	LeistungsempfaengerStrasse pgtype.Text
	LeistungsempfaengerHnr     pgtype.Text
	LeistungsempfaengerPlz     pgtype.Text
	LeistungsempfaengerOrt     pgtype.Text
}

func (q *Queries) UpdatePropertyAddress(ctx context.Context, arg UpdatePropertyAddressParams) (int64, error) {
	result, err := q.db.Exec(ctx, updatePropertyAddress,
		arg.ID,
		arg.Strasse,
		arg.Hausnummer,
		arg.Plz,
		arg.Ort,
		arg.LeistungsempfaengerName,
		arg.LeistungsempfaengerStrasse,
		arg.LeistungsempfaengerHnr,
		arg.LeistungsempfaengerPlz,
		arg.LeistungsempfaengerOrt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
