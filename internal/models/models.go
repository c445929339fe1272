package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StatusActive marks a property that may be selected and exported.
const StatusActive = 1

// MeterStatusActive is the zaehlerstatus value of an active meter.
const MeterStatusActive = "1"

// Property is one row of xs_liegenschaften together with its meter count.
// All fields are values, so a plain copy is an independent snapshot.
type Property struct {
	ID                   int64     `json:"id" bson:"id"`
	AgentID              int64     `json:"makler_id" bson:"makler_id"`
	Status               int       `json:"status" bson:"status"`
	Street               string    `json:"strasse" bson:"strasse"`
	HouseNumber          string    `json:"hausnummer" bson:"hausnummer"`
	PostalCode           string    `json:"plz" bson:"plz"`
	City                 string    `json:"ort" bson:"ort"`
	Remark               string    `json:"bemerkung_objekt" bson:"bemerkung_objekt"`
	RecipientName        string    `json:"leistungsempfaenger_name" bson:"leistungsempfaenger_name"`
	RecipientStreet      string    `json:"leistungsempfaenger_strasse" bson:"leistungsempfaenger_strasse"`
	RecipientHouseNumber string    `json:"leistungsempfaenger_hnr" bson:"leistungsempfaenger_hnr"`
	RecipientPostalCode  string    `json:"leistungsempfaenger_plz" bson:"leistungsempfaenger_plz"`
	RecipientCity        string    `json:"leistungsempfaenger_ort" bson:"leistungsempfaenger_ort"`
	CreatedAt            time.Time `json:"erstellt_am" bson:"erstellt_am"`
	UpdatedAt            time.Time `json:"aktualisiert_am" bson:"aktualisiert_am"`
	MeterCount           int       `json:"meter_count" bson:"meter_count"`
}

// Eligible reports whether the property can be selected for export.
func (p Property) Eligible() bool {
	return p.Status == StatusActive
}

// Contract is a meter attached to a property (xs_liegenschaften_zaehler).
type Contract struct {
	ID            int64  `json:"id" bson:"id"`
	PropertyID    int64  `json:"xs_liegenschaften_id" bson:"xs_liegenschaften_id"`
	EnergyType    string `json:"energieart" bson:"energieart"`
	MeterNumber   string `json:"zaehlernummer" bson:"zaehlernummer"`
	MeterStatus   string `json:"zaehlerstatus" bson:"zaehlerstatus"`
	MeteringPoint string `json:"zaehlpunktbezeichnung" bson:"zaehlpunktbezeichnung"`
	HTNT          bool   `json:"ht_nt" bson:"ht_nt"`
}

// DisplayEnergyType returns the energy type normalised for display.
// Meters without an energy type are electricity meters.
func (c Contract) DisplayEnergyType() string {
	v := strings.TrimSpace(c.EnergyType)
	if v == "" {
		return "Strom"
	}
	return cases.Title(language.German).String(strings.ToLower(v))
}

// Active reports whether the meter is active.
func (c Contract) Active() bool {
	return c.MeterStatus == MeterStatusActive
}

// AgentMeterRow is one line of the property × meter join returned for a single agent.
// Meter columns are empty for properties without meters.
type AgentMeterRow struct {
	Property
	EnergyType    *string `json:"energieart"`
	MeterNumber   *string `json:"zaehlernummer"`
	MeterStatus   *string `json:"zaehlerstatus"`
	MeteringPoint *string `json:"zaehlpunktbezeichnung"`
	HTNT          *bool   `json:"ht_nt"`
}

// PropertyPage is one page of the property listing.
type PropertyPage struct {
	Properties []Property
	Pagination Pagination
}
