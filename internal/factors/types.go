// Package factors defines emissions factor records, the storage contracts
// they are read through, and the resolution algorithms that select a factor
// for a division/year or a scope/level classification.
//
// Storage is pluggable: anything implementing FactorStore can back a
// Resolver. The resolution rules (year retries for divisions, nearest
// preceding year for scope lookups) live here and nowhere else.
package factors

import (
	"strconv"
	"strings"
)

// RecordKind identifies the concrete type behind a Record.
type RecordKind string

// Record kinds accepted in seed files and bulk imports.
const (
	KindUtilityLookup        RecordKind = "utility_lookup"
	KindEmissionsFactor      RecordKind = "emissions_factor"
	KindActivityFactorLookup RecordKind = "activity_factor_lookup"
)

// Record is the closed set of reference data kinds loaded into a store.
// Only types in this package implement it.
type Record interface {
	// Kind reports the concrete record kind.
	Kind() RecordKind

	// Key returns the record's identity within its kind.
	Key() string

	isRecord()
}

// Division is a geographic or regulatory partition for electricity factors.
type Division struct {
	// ID is the division identifier, e.g. "CA", "WECC" or "USA".
	ID string `json:"division_id" yaml:"division_id" db:"division_id"`

	// Type is the division type, e.g. "STATE", "NERC_REGION" or "Country".
	Type string `json:"division_type" yaml:"division_type" db:"division_type"`
}

// UtilityLookupItem is a registered electric utility and its division.
type UtilityLookupItem struct {
	UUID          string   `json:"uuid" yaml:"uuid" db:"uuid"`
	Year          int      `json:"year,omitempty" yaml:"year,omitempty" db:"year"`
	UtilityNumber string   `json:"utility_number,omitempty" yaml:"utility_number,omitempty" db:"utility_number"`
	UtilityName   string   `json:"utility_name,omitempty" yaml:"utility_name,omitempty" db:"utility_name"`
	Country       string   `json:"country,omitempty" yaml:"country,omitempty" db:"country"`
	StateProvince string   `json:"state_province,omitempty" yaml:"state_province,omitempty" db:"state_province"`
	Division      Division `json:"division" yaml:"division" db:"division"`
}

// Kind implements Record.
func (UtilityLookupItem) Kind() RecordKind { return KindUtilityLookup }

// Key implements Record.
func (u UtilityLookupItem) Key() string { return u.UUID }

func (UtilityLookupItem) isRecord() {}

// EmissionsFactor is one factor row: either an electricity factor for a
// (division, year) pair or a per-unit factor for a scope/level
// classification. Optional numeric fields are nil when absent.
type EmissionsFactor struct {
	UUID         string `json:"uuid" yaml:"uuid" db:"uuid"`
	Type         string `json:"type,omitempty" yaml:"type,omitempty" db:"type"`
	Scope        string `json:"scope,omitempty" yaml:"scope,omitempty" db:"scope"`
	Level1       string `json:"level_1,omitempty" yaml:"level_1,omitempty" db:"level_1"`
	Level2       string `json:"level_2,omitempty" yaml:"level_2,omitempty" db:"level_2"`
	Level3       string `json:"level_3,omitempty" yaml:"level_3,omitempty" db:"level_3"`
	Level4       string `json:"level_4,omitempty" yaml:"level_4,omitempty" db:"level_4"`
	Text         string `json:"text,omitempty" yaml:"text,omitempty" db:"text"`
	Year         int    `json:"year,omitempty" yaml:"year,omitempty" db:"year"`
	FromYear     int    `json:"from_year,omitempty" yaml:"from_year,omitempty" db:"from_year"`
	ThruYear     int    `json:"thru_year,omitempty" yaml:"thru_year,omitempty" db:"thru_year"`
	Country      string `json:"country,omitempty" yaml:"country,omitempty" db:"country"`
	DivisionType string `json:"division_type,omitempty" yaml:"division_type,omitempty" db:"division_type"`
	DivisionID   string `json:"division_id,omitempty" yaml:"division_id,omitempty" db:"division_id"`
	DivisionName string `json:"division_name,omitempty" yaml:"division_name,omitempty" db:"division_name"`
	ActivityUOM  string `json:"activity_uom,omitempty" yaml:"activity_uom,omitempty" db:"activity_uom"`

	NetGeneration    *float64 `json:"net_generation,omitempty" yaml:"net_generation,omitempty" db:"net_generation"`
	NetGenerationUOM string   `json:"net_generation_uom,omitempty" yaml:"net_generation_uom,omitempty" db:"net_generation_uom"`

	CO2EquivalentEmissions    *float64 `json:"co2_equivalent_emissions,omitempty" yaml:"co2_equivalent_emissions,omitempty" db:"co2_equivalent_emissions"`
	CO2EquivalentEmissionsUOM string   `json:"co2_equivalent_emissions_uom,omitempty" yaml:"co2_equivalent_emissions_uom,omitempty" db:"co2_equivalent_emissions_uom"`

	Source              string   `json:"source,omitempty" yaml:"source,omitempty" db:"source"`
	NonRenewables       *float64 `json:"non_renewables,omitempty" yaml:"non_renewables,omitempty" db:"non_renewables"`
	Renewables          *float64 `json:"renewables,omitempty" yaml:"renewables,omitempty" db:"renewables"`
	PercentOfRenewables *float64 `json:"percent_of_renewables,omitempty" yaml:"percent_of_renewables,omitempty" db:"percent_of_renewables"`
}

// Kind implements Record.
func (EmissionsFactor) Kind() RecordKind { return KindEmissionsFactor }

// Key implements Record.
func (f EmissionsFactor) Key() string { return f.UUID }

func (EmissionsFactor) isRecord() {}

// Usable reports whether the factor carries a CO2e value and unit.
func (f EmissionsFactor) Usable() bool {
	return f.CO2EquivalentEmissions != nil && strings.TrimSpace(f.CO2EquivalentEmissionsUOM) != ""
}

// NaturalKey identifies a factor by its classification rather than its UUID.
// Re-imports of the same dataset row produce the same natural key.
func (f EmissionsFactor) NaturalKey() string {
	parts := []string{
		f.Type, f.Scope, f.Level1, f.Level2, f.Level3, f.Level4, f.Text,
		f.DivisionType, f.DivisionID, f.ActivityUOM, strconv.Itoa(f.Year),
	}
	for i, p := range parts {
		parts[i] = strings.ToUpper(strings.TrimSpace(p))
	}
	return strings.Join(parts, "|")
}

// Levels returns level_1..level_4 in order.
func (f EmissionsFactor) Levels() [4]string {
	return [4]string{f.Level1, f.Level2, f.Level3, f.Level4}
}

// ActivityFactorLookup maps an activity class (a carrier mode or a flight
// seat class) to the classification of the factor that prices it.
type ActivityFactorLookup struct {
	// Type is the lookup family, "carrier" or "flight".
	Type string `json:"type" yaml:"type" db:"type"`

	// Class is the mode or seat class within Type.
	Class       string `json:"class" yaml:"class" db:"class"`
	Scope       string `json:"scope,omitempty" yaml:"scope,omitempty" db:"scope"`
	Level1      string `json:"level_1,omitempty" yaml:"level_1,omitempty" db:"level_1"`
	Level2      string `json:"level_2,omitempty" yaml:"level_2,omitempty" db:"level_2"`
	Level3      string `json:"level_3,omitempty" yaml:"level_3,omitempty" db:"level_3"`
	Level4      string `json:"level_4,omitempty" yaml:"level_4,omitempty" db:"level_4"`
	Text        string `json:"text,omitempty" yaml:"text,omitempty" db:"text"`
	ActivityUOM string `json:"activity_uom,omitempty" yaml:"activity_uom,omitempty" db:"activity_uom"`
}

// Kind implements Record.
func (ActivityFactorLookup) Kind() RecordKind { return KindActivityFactorLookup }

// Key implements Record.
func (l ActivityFactorLookup) Key() string {
	return strings.ToLower(l.Type) + "/" + strings.ToLower(l.Class)
}

func (ActivityFactorLookup) isRecord() {}

// Query converts the lookup into a scope query without a year bound.
func (l ActivityFactorLookup) Query() ScopeQuery {
	return ScopeQuery{
		Scope:       l.Scope,
		Level1:      l.Level1,
		Level2:      l.Level2,
		Level3:      l.Level3,
		Level4:      l.Level4,
		Text:        l.Text,
		ActivityUOM: l.ActivityUOM,
	}
}
