// Package units provides the unit-of-measure conversion table used by the
// emissions engine.
//
// Every unit belongs to exactly one quantity family and carries a multiplier
// against that family's base unit:
//   - Energy: watt-hour
//   - Mass: kilogram
//   - Volume: cubic metre
//   - Distance: kilometre
//
// Lookups are case-insensitive and collapse repeated whitespace. Conversions
// between families are rejected with ErrUnknownUOM.
package units

import (
	"fmt"
	"sort"
	"strings"
)

// Family is the physical quantity a unit measures.
type Family int

const (
	// FamilyUnknown is the zero value and never matches a table entry.
	FamilyUnknown Family = iota
	// Energy units convert to watt-hours.
	Energy
	// Mass units convert to kilograms.
	Mass
	// Volume units convert to cubic metres.
	Volume
	// Distance units convert to kilometres.
	Distance
)

// String returns the lower-case family name.
func (f Family) String() string {
	switch f {
	case Energy:
		return "energy"
	case Mass:
		return "mass"
	case Volume:
		return "volume"
	case Distance:
		return "distance"
	case FamilyUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// ParseFamily converts a family name to a Family.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "energy":
		return Energy, nil
	case "mass", "weight":
		return Mass, nil
	case "volume":
		return Volume, nil
	case "distance":
		return Distance, nil
	default:
		return FamilyUnknown, fmt.Errorf("unknown unit family %q", s)
	}
}

// Factor is a single conversion table entry.
type Factor struct {
	// Unit is the normalized (lower-case) unit key.
	Unit string `json:"unit"`

	// Multiplier converts one Unit into the family's base unit.
	Multiplier float64 `json:"multiplier"`

	// Family is the quantity family the unit belongs to.
	Family Family `json:"family"`
}

// table maps normalized unit keys to their factor.
//
//nolint:gochecknoglobals // Read-only lookup table built once at init.
var table = buildTable()

func buildTable() map[string]Factor {
	t := make(map[string]Factor)
	add := func(family Family, multiplier float64, aliases ...string) {
		for _, alias := range aliases {
			if _, dup := t[alias]; dup {
				panic("units: duplicate alias " + alias)
			}
			t[alias] = Factor{Unit: alias, Multiplier: multiplier, Family: family}
		}
	}

	add(Energy, WhToWh, "wh")
	add(Energy, KWhToWh, "kwh")
	add(Energy, MWhToWh, "mwh")
	add(Energy, GWhToWh, "gwh")
	add(Energy, TWhToWh, "twh")

	add(Mass, GramsToKg, "g", "gram", "grams", "gco2e")
	add(Mass, KgToKg, "kg", "kilogram", "kilograms", "kgco2e")
	add(Mass, TonnesToKg, "t", "ton", "tons", "tonne", "tonnes",
		"metric ton", "metric tons", "tco2e", "mtco2e")
	add(Mass, KilotonnesToKg, "kt")
	add(Mass, MegatonnesToKg, "mt", "pg", "million tons", "million tonnes")
	add(Mass, GigatonnesToKg, "gt")
	add(Mass, PoundsToKg, "lb", "lbs", "pound", "pounds", "lbco2e")
	add(Mass, ShortTonToKg, "short ton", "short tons")
	add(Mass, LongTonToKg, "long ton", "long tons")

	add(Volume, CubicMetreToM3, "m3", "cubic meter", "cubic meters", "cubic metre", "cubic metres")
	add(Volume, thousand*CubicMetreToM3, "kcm", "thousand m3", "thousand cubic meters", "thousand cubic metres")
	add(Volume, million*CubicMetreToM3, "mcm", "million m3", "million cubic meters", "million cubic metres")
	add(Volume, billion*CubicMetreToM3, "bcm", "billion m3", "billion cubic meters", "billion cubic metres")
	add(Volume, CubicFootToM3, "cf", "cubic feet", "cubic foot")
	add(Volume, thousand*CubicFootToM3, "mcf", "thousand cubic feet")
	add(Volume, million*CubicFootToM3, "mmcf", "million cubic feet")
	add(Volume, billion*CubicFootToM3, "bcf", "billion cubic feet")
	add(Volume, LitreToM3, "l", "litre", "litres", "liter", "liters")

	add(Distance, KmToKm, "km", "kilometer", "kilometers", "kilometre", "kilometres")
	add(Distance, MileToKm, "mi", "mile", "miles")
	add(Distance, MetreToKm, "m", "meter", "meters", "metre", "metres")

	return t
}

// normalize lower-cases a unit and collapses interior whitespace.
func normalize(uom string) string {
	return strings.ToLower(strings.Join(strings.Fields(uom), " "))
}

// Lookup returns the table entry for uom.
// It returns ErrUnknownUOM when uom is empty or not in the table.
func Lookup(uom string) (Factor, error) {
	key := normalize(uom)
	if key == "" {
		return Factor{}, fmt.Errorf("%w: empty unit", ErrUnknownUOM)
	}
	f, ok := table[key]
	if !ok {
		return Factor{}, fmt.Errorf("%w: %q", ErrUnknownUOM, uom)
	}
	return f, nil
}

// IsKnown reports whether uom resolves to a table entry.
func IsKnown(uom string) bool {
	_, err := Lookup(uom)
	return err == nil
}

// FamilyOf returns the family of uom, or FamilyUnknown.
func FamilyOf(uom string) Family {
	f, err := Lookup(uom)
	if err != nil {
		return FamilyUnknown
	}
	return f.Family
}

// Units returns the sorted unit keys of a family. FamilyUnknown returns every key.
func Units(family Family) []string {
	keys := make([]string, 0, len(table))
	for k, f := range table {
		if family == FamilyUnknown || f.Family == family {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
