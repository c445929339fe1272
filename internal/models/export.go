package models

import (
	"slices"
	"time"
)

// ExportRecord is one document of the secondary store: a denormalised bundle of
// properties and their contracts. Handle is assigned by the store and is not part
// of the document itself.
type ExportRecord struct {
	Handle              string             `json:"-" bson:"-"`
	ExportDate          time.Time          `json:"exportDate" bson:"exportDate"`
	ExportedBy          string             `json:"exportedBy" bson:"exportedBy"`
	PropertiesCount     int                `json:"propertiesCount" bson:"propertiesCount"`
	TotalContractsCount int                `json:"totalContractsCount" bson:"totalContractsCount"`
	Properties          []PropertySnapshot `json:"properties" bson:"properties"`
	LastUpdated         *time.Time         `json:"lastUpdated,omitempty" bson:"lastUpdated,omitempty"`
}

// PropertySnapshot is a copy of a property taken at export time together with
// its contracts. It is independent of the live row: later edits reach it only
// through an explicit write-through.
type PropertySnapshot struct {
	Property       `bson:",inline"`
	Contracts      []Contract `json:"contracts" bson:"contracts"`
	ContractsCount int        `json:"contractsCount" bson:"contractsCount"`
}

// NewSnapshot copies p and contracts into a snapshot.
func NewSnapshot(p Property, contracts []Contract) PropertySnapshot {
	cs := slices.Clone(contracts)
	if cs == nil {
		cs = []Contract{}
	}
	return PropertySnapshot{
		Property:       p,
		Contracts:      cs,
		ContractsCount: len(cs),
	}
}

// NewExportRecord assembles a record from snapshots and fills in the totals.
func NewExportRecord(snapshots []PropertySnapshot, exportedBy string, at time.Time) ExportRecord {
	total := 0
	for _, s := range snapshots {
		total += s.ContractsCount
	}
	return ExportRecord{
		ExportDate:          at,
		ExportedBy:          exportedBy,
		PropertiesCount:     len(snapshots),
		TotalContractsCount: total,
		Properties:          snapshots,
	}
}

// Find returns the index of the snapshot for the property id, or -1.
func (r ExportRecord) Find(id int64) int {
	return slices.IndexFunc(r.Properties, func(s PropertySnapshot) bool {
		return s.ID == id
	})
}

// Contains reports whether the record holds a snapshot of the property.
func (r ExportRecord) Contains(id int64) bool {
	return r.Find(id) >= 0
}

// Clone returns a deep copy of the record.
func (r ExportRecord) Clone() ExportRecord {
	out := r
	out.Properties = make([]PropertySnapshot, len(r.Properties))
	for i, s := range r.Properties {
		out.Properties[i] = NewSnapshot(s.Property, s.Contracts)
		out.Properties[i].ContractsCount = s.ContractsCount
	}
	if r.LastUpdated != nil {
		t := *r.LastUpdated
		out.LastUpdated = &t
	}
	return out
}

// ApplyAddress overwrites the snapshot's address and recipient block with all
// nine values of addr. Contracts and counts are left alone.
func (s *PropertySnapshot) ApplyAddress(addr PropertyUpdate) {
	addr.ApplyTo(&s.Property)
}
