// Package equivalency expresses CO2e quantities as everyday activities
// using EPA greenhouse gas equivalency factors.
package equivalency

import (
	"fmt"
	"math"

	"github.com/rshade/carbonledger/internal/units"
)

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Errors returned by Of. Compare with errors.Is.
const (
	ErrNegativeValue = constError("negative carbon value")
	ErrOverflow      = constError("carbon value out of range")
)

// EPA equivalency factors (2024 edition), in kg CO2e per unit of activity.
//
//	equivalent = kg_CO2e / factor
const (
	MilesDrivenFactor        = 0.192
	SmartphoneChargeFactor   = 0.00822
	TreeSeedlingFactor       = 60.0
	HomeElectricityDayFactor = 18.3
)

// Display thresholds.
const (
	// MinKg is the smallest quantity given equivalencies.
	MinKg = 1.0

	millionThreshold = 1_000_000
	billionThreshold = 1_000_000_000
)

// Kind is a category of equivalency.
type Kind int

const (
	MilesDriven Kind = iota
	SmartphonesCharged
	TreeSeedlings
	HomeElectricityDays
)

// String returns the kind's label as shown in prose.
func (k Kind) String() string {
	switch k {
	case MilesDriven:
		return "miles driven"
	case SmartphonesCharged:
		return "smartphones charged"
	case TreeSeedlings:
		return "tree seedlings grown for 10 years"
	case HomeElectricityDays:
		return "days of home electricity"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) factor() float64 {
	switch k {
	case MilesDriven:
		return MilesDrivenFactor
	case SmartphonesCharged:
		return SmartphoneChargeFactor
	case TreeSeedlings:
		return TreeSeedlingFactor
	default:
		return HomeElectricityDayFactor
	}
}

// Item is one computed equivalency.
type Item struct {
	Kind      Kind    `json:"kind" yaml:"kind"`
	Value     float64 `json:"value" yaml:"value"`
	Formatted string  `json:"formatted" yaml:"formatted"`
}

// Equivalency describes a CO2e quantity in everyday terms. Items is empty
// when the quantity is below MinKg.
type Equivalency struct {
	Kg    float64 `json:"kg" yaml:"kg"`
	Items []Item  `json:"items,omitempty" yaml:"items,omitempty"`
}

// Empty reports whether no equivalencies were computed.
func (e Equivalency) Empty() bool { return len(e.Items) == 0 }

// Get returns the item of kind k.
func (e Equivalency) Get(k Kind) (Item, bool) {
	for _, it := range e.Items {
		if it.Kind == k {
			return it, true
		}
	}
	return Item{}, false
}

// Text renders the miles and smartphones equivalencies as prose, e.g.
// "Equivalent to driving ~781 miles or charging ~18,248 smartphones".
func (e Equivalency) Text() string {
	miles, okMiles := e.Get(MilesDriven)
	phones, okPhones := e.Get(SmartphonesCharged)
	if !okMiles || !okPhones {
		return ""
	}
	return fmt.Sprintf("Equivalent to driving ~%s miles or charging ~%s smartphones", miles.Formatted, phones.Formatted)
}

// Compact renders a short form, e.g. "(≈ 781 mi, 18,248 phones)".
func (e Equivalency) Compact() string {
	miles, okMiles := e.Get(MilesDriven)
	phones, okPhones := e.Get(SmartphonesCharged)
	if !okMiles || !okPhones {
		return ""
	}
	return fmt.Sprintf("(≈ %s mi, %s phones)", miles.Formatted, phones.Formatted)
}

// Of converts value in uom (any mass unit, optionally with a CO2e suffix)
// to kilograms and computes every Kind.
func Of(value float64, uom string) (Equivalency, error) {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return Equivalency{}, ErrOverflow
	}
	if value < 0 {
		return Equivalency{}, fmt.Errorf("%w: %g", ErrNegativeValue, value)
	}
	kg, err := units.ToKg(value, uom)
	if err != nil {
		return Equivalency{}, err
	}
	if math.IsInf(kg, 0) {
		return Equivalency{}, ErrOverflow
	}

	out := Equivalency{Kg: kg}
	if kg < MinKg {
		return out, nil
	}
	for _, k := range []Kind{MilesDriven, SmartphonesCharged, TreeSeedlings, HomeElectricityDays} {
		v := kg / k.factor()
		out.Items = append(out.Items, Item{Kind: k, Value: v, Formatted: FormatLarge(v)})
	}
	return out, nil
}

// FormatLarge renders n with thousand separators below one million and
// as "~1.5 million" or "~1.5 billion" above.
func FormatLarge(n float64) string {
	switch {
	case n >= billionThreshold:
		return fmt.Sprintf("~%.1f billion", n/billionThreshold)
	case n >= millionThreshold:
		return fmt.Sprintf("~%.1f million", n/millionThreshold)
	default:
		return units.FormatNumber(int64(math.Round(n)))
	}
}
