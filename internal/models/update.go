package models

import "slices"

// Keys of the editable address and recipient fields, as used on the wire.
const (
	FieldStreet               = "strasse"
	FieldHouseNumber          = "hausnummer"
	FieldPostalCode           = "plz"
	FieldCity                 = "ort"
	FieldRecipientName        = "leistungsempfaenger_name"
	FieldRecipientStreet      = "leistungsempfaenger_strasse"
	FieldRecipientHouseNumber = "leistungsempfaenger_hnr"
	FieldRecipientPostalCode  = "leistungsempfaenger_plz"
	FieldRecipientCity        = "leistungsempfaenger_ort"
)

// EditableFields lists the editable keys in display order.
var EditableFields = []string{
	FieldStreet,
	FieldHouseNumber,
	FieldPostalCode,
	FieldCity,
	FieldRecipientName,
	FieldRecipientStreet,
	FieldRecipientHouseNumber,
	FieldRecipientPostalCode,
	FieldRecipientCity,
}

// PropertyUpdate is a partial update of a property's address and recipient block.
// A nil field is left untouched.
type PropertyUpdate struct {
	Street               *string `json:"strasse,omitempty"`
	HouseNumber          *string `json:"hausnummer,omitempty"`
	PostalCode           *string `json:"plz,omitempty"`
	City                 *string `json:"ort,omitempty"`
	RecipientName        *string `json:"leistungsempfaenger_name,omitempty"`
	RecipientStreet      *string `json:"leistungsempfaenger_strasse,omitempty"`
	RecipientHouseNumber *string `json:"leistungsempfaenger_hnr,omitempty"`
	RecipientPostalCode  *string `json:"leistungsempfaenger_plz,omitempty"`
	RecipientCity        *string `json:"leistungsempfaenger_ort,omitempty"`
}

// fields pairs every wire key with the update pointer and the property field it targets.
func (u *PropertyUpdate) fields(p *Property) []struct {
	key    string
	value  **string
	target *string
} {
	if p == nil {
		p = &Property{}
	}
	return []struct {
		key    string
		value  **string
		target *string
	}{
		{FieldStreet, &u.Street, &p.Street},
		{FieldHouseNumber, &u.HouseNumber, &p.HouseNumber},
		{FieldPostalCode, &u.PostalCode, &p.PostalCode},
		{FieldCity, &u.City, &p.City},
		{FieldRecipientName, &u.RecipientName, &p.RecipientName},
		{FieldRecipientStreet, &u.RecipientStreet, &p.RecipientStreet},
		{FieldRecipientHouseNumber, &u.RecipientHouseNumber, &p.RecipientHouseNumber},
		{FieldRecipientPostalCode, &u.RecipientPostalCode, &p.RecipientPostalCode},
		{FieldRecipientCity, &u.RecipientCity, &p.RecipientCity},
	}
}

// IsEmpty reports whether the update changes nothing.
func (u PropertyUpdate) IsEmpty() bool {
	return len(u.Values()) == 0
}

// Values returns the set fields keyed by wire name.
func (u PropertyUpdate) Values() map[string]string {
	out := make(map[string]string)
	for _, f := range u.fields(nil) {
		if *f.value != nil {
			out[f.key] = **f.value
		}
	}
	return out
}

// Set assigns the field with the given wire key. It returns false for unknown keys.
func (u *PropertyUpdate) Set(key, value string) bool {
	for _, f := range u.fields(nil) {
		if f.key == key {
			v := value
			*f.value = &v
			return true
		}
	}
	return false
}

// ApplyTo copies every set field onto p.
func (u PropertyUpdate) ApplyTo(p *Property) {
	for _, f := range u.fields(p) {
		if *f.value != nil {
			*f.target = **f.value
		}
	}
}

// AddressOf returns an update carrying all nine editable fields of p.
func AddressOf(p Property) PropertyUpdate {
	var u PropertyUpdate
	for _, f := range u.fields(&p) {
		v := *f.target
		*f.value = &v
	}
	return u
}

// IsEditableField reports whether key names an editable field.
func IsEditableField(key string) bool {
	return slices.Contains(EditableFields, key)
}
