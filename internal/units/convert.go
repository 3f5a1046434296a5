package units

import (
	"fmt"
	"math"
	"strings"
)

// GetUomFactor returns the multiplier of uom against its family's base unit.
// Empty or unknown units return ErrUnknownUOM.
func GetUomFactor(uom string) (float64, error) {
	f, err := Lookup(uom)
	if err != nil {
		return 0, err
	}
	return f.Multiplier, nil
}

// FactorFor is the family-aware form of GetUomFactor. A unit from another
// family is rejected with ErrUnknownUOM instead of returning its multiplier.
func FactorFor(family Family, uom string) (float64, error) {
	f, err := Lookup(uom)
	if err != nil {
		return 0, err
	}
	if f.Family != family {
		return 0, fmt.Errorf("%w: %q is a %s unit, not %s", ErrUnknownUOM, uom, f.Family, family)
	}
	return f.Multiplier, nil
}

// Ratio returns f(from)/f(to), the multiplier that converts a quantity in
// from into to. Both units must belong to the same family.
func Ratio(from, to string) (float64, error) {
	src, err := Lookup(from)
	if err != nil {
		return 0, err
	}
	dst, err := FactorFor(src.Family, to)
	if err != nil {
		return 0, err
	}
	return src.Multiplier / dst, nil
}

// Convert converts value from one unit into another of the same family.
func Convert(value float64, from, to string) (float64, error) {
	r, err := Ratio(from, to)
	if err != nil {
		return 0, err
	}
	out := value * r
	if math.IsInf(out, 0) || math.IsNaN(out) {
		return 0, fmt.Errorf("converting %g %s to %s: result out of range", value, from, to)
	}
	return out, nil
}

// ToKg converts a mass value into kilograms. Emissions suffixes such as
// "CO2e" are accepted ("kgCO2e", "tons CO2e"). An empty unit means the value
// is already in kilograms.
func ToKg(value float64, uom string) (float64, error) {
	if strings.TrimSpace(uom) == "" {
		return value, nil
	}
	factor, err := FactorFor(Mass, uom)
	if err == nil {
		return value * factor, nil
	}
	if joined := joinEmissionsSuffix(uom); joined != normalize(uom) {
		if f, jerr := FactorFor(Mass, joined); jerr == nil {
			return value * f, nil
		}
	}
	stripped := StripEmissionsSuffix(uom)
	if stripped == normalize(uom) {
		return 0, err
	}
	factor, err = FactorFor(Mass, stripped)
	if err != nil {
		return 0, err
	}
	return value * factor, nil
}

// StripEmissionsSuffix removes everything from the first "co2" onward and
// returns the normalized remainder ("kgCO2e" -> "kg").
func StripEmissionsSuffix(uom string) string {
	n := normalize(uom)
	if i := strings.Index(n, "co2"); i >= 0 {
		n = strings.TrimSpace(n[:i])
	}
	return n
}

// joinEmissionsSuffix drops whitespace between a unit and its "co2" suffix
// so "Mt CO2e" and "MtCO2e" name the same table entry.
func joinEmissionsSuffix(uom string) string {
	n := normalize(uom)
	if i := strings.Index(n, "co2"); i > 0 {
		n = strings.TrimSpace(n[:i]) + n[i:]
	}
	return n
}
