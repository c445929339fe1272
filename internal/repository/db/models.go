package db

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type XsLiegenschaften struct {
	ID                         int64
	MaklerID                   int64
	Status                     int32
	Strasse                    pgtype.Text
	Hausnummer                 pgtype.Text
	Plz                        pgtype.Text
	Ort                        pgtype.Text
	BemerkungObjekt            pgtype.Text
	LeistungsempfaengerName    pgtype.Text
	LeistungsempfaengerStrasse pgtype.Text
	LeistungsempfaengerHnr     pgtype.Text
	LeistungsempfaengerPlz     pgtype.Text
	LeistungsempfaengerOrt     pgtype.Text
	ErstelltAm                 time.Time
	AktualisiertAm             time.Time
}

type XsLiegenschaftenZaehler struct {
	ID                    int64
	XsLiegenschaftenID    int64
	Energieart            pgtype.Text
	Zaehlernummer         pgtype.Text
	Zaehlerstatus         pgtype.Text
	Zaehlpunktbezeichnung pgtype.Text
	HtNt                  bool
}
