package emissions

import (
	"fmt"
	"strings"

	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/units"
)

// PassengerUnit is the activity unit part counting passengers.
const PassengerUnit = "passenger"

// FlightActivityUOM is the activity unit flight factors must use.
const FlightActivityUOM = "passenger.km"

// ActivityInput carries the quantities an activity reports. Nil pointers
// mean the quantity is absent.
type ActivityInput struct {
	Amount      *float64
	AmountUOM   string
	Weight      *float64
	WeightUOM   string
	Distance    *float64
	DistanceUOM string
	Passengers  int
}

// ActivityEmission is an emission in kgCO2e together with the normalized
// dimensions the factor consumed.
type ActivityEmission struct {
	Emission Quantity

	// DistanceKm is set when the factor priced a distance.
	DistanceKm *float64

	// WeightKg is set when the factor priced a weight.
	WeightKg *float64

	// Passengers is non-zero when the factor priced passengers.
	Passengers int

	// Amount is set when the factor priced the activity amount.
	Amount *Quantity
}

// ComputeActivityEmission prices in against a per-unit factor.
//
// The factor's activity unit is split on "." and each part consumes one
// input: "passenger" the passenger count, a mass unit the weight, a
// distance unit the distance, and anything else the activity amount
// converted into that part's unit. The product is converted to kilograms
// using the factor's CO2e unit.
func ComputeActivityEmission(f factors.EmissionsFactor, in ActivityInput) (ActivityEmission, error) {
	if !f.Usable() {
		return ActivityEmission{}, fmt.Errorf("%w: factor %s has no co2 equivalent emissions", ErrInvalidFactorForActivity, f.UUID)
	}
	if strings.TrimSpace(f.ActivityUOM) == "" {
		return ActivityEmission{}, fmt.Errorf("%w: factor %s has no activity unit", ErrInvalidFactorForActivity, f.UUID)
	}

	var out ActivityEmission
	value := *f.CO2EquivalentEmissions
	amountUsed := false

	for _, part := range strings.Split(strings.ToLower(f.ActivityUOM), ".") {
		part = strings.TrimSpace(part)
		switch {
		case part == PassengerUnit:
			if in.Passengers <= 0 {
				return ActivityEmission{}, fmt.Errorf("%w: factor %s requires a number of passengers", ErrInvalidFactorForActivity, f.UUID)
			}
			value *= float64(in.Passengers)
			out.Passengers = in.Passengers

		case units.FamilyOf(part) == units.Mass:
			if in.Weight == nil || in.WeightUOM == "" {
				return ActivityEmission{}, fmt.Errorf("%w: factor %s requires a weight and weight unit", ErrInvalidFactorForActivity, f.UUID)
			}
			w, err := units.Convert(*in.Weight, in.WeightUOM, part)
			if err != nil {
				return ActivityEmission{}, fmt.Errorf("weight: %w", err)
			}
			kg, err := units.Convert(*in.Weight, in.WeightUOM, "kg")
			if err != nil {
				return ActivityEmission{}, fmt.Errorf("weight: %w", err)
			}
			value *= w
			out.WeightKg = &kg

		case units.FamilyOf(part) == units.Distance:
			if in.Distance == nil || in.DistanceUOM == "" {
				return ActivityEmission{}, fmt.Errorf("%w: factor %s requires a distance and distance unit", ErrInvalidFactorForActivity, f.UUID)
			}
			d, err := units.Convert(*in.Distance, in.DistanceUOM, part)
			if err != nil {
				return ActivityEmission{}, fmt.Errorf("distance: %w", err)
			}
			km, err := units.Convert(*in.Distance, in.DistanceUOM, "km")
			if err != nil {
				return ActivityEmission{}, fmt.Errorf("distance: %w", err)
			}
			value *= d
			out.DistanceKm = &km

		default:
			if amountUsed {
				continue
			}
			if in.Amount == nil || in.AmountUOM == "" {
				return ActivityEmission{}, fmt.Errorf("%w: factor %s requires an activity amount and unit", ErrInvalidFactorForActivity, f.UUID)
			}
			r, err := amountRatio(in.AmountUOM, part)
			if err != nil {
				return ActivityEmission{}, fmt.Errorf("activity amount: %w", err)
			}
			value *= *in.Amount * r
			out.Amount = &Quantity{Value: *in.Amount, UOM: in.AmountUOM}
			amountUsed = true
		}
	}

	kg, err := units.ToKg(value, f.CO2EquivalentEmissionsUOM)
	if err != nil {
		return ActivityEmission{}, fmt.Errorf("emissions unit: %w", err)
	}
	out.Emission = Quantity{Value: kg, UOM: KgCO2e}
	return out, nil
}

// amountRatio converts an activity amount unit into a factor unit part.
// Identical units need no table entry.
func amountRatio(from, to string) (float64, error) {
	if strings.EqualFold(strings.Join(strings.Fields(from), " "), strings.Join(strings.Fields(to), " ")) {
		return 1, nil
	}
	return units.Ratio(from, to)
}

// KgToUOM returns how many of the given mass unit make one kilogram.
// The unit is the first part of a dotted activity unit such as "tonne.km".
func KgToUOM(activityUOM string) (float64, error) {
	prefix, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(activityUOM)), ".")
	switch prefix {
	case "kg":
		return 1, nil
	case "lb", "lbs", "pound":
		return 2.20462, nil
	case "t", "tonne", "tons":
		return 0.001, nil
	case "g":
		return 1000, nil
	default:
		return 0, fmt.Errorf("%w: unsupported freight weight unit %q", units.ErrUnknownUOM, prefix)
	}
}

// ComputeFreightEmission prices moving weightKg over distanceKm against a
// weight-distance factor such as "tonne.km".
func ComputeFreightEmission(weightKg, distanceKm float64, f factors.EmissionsFactor) (Quantity, error) {
	if f.CO2EquivalentEmissions == nil {
		return Quantity{}, fmt.Errorf("%w: factor %s has no co2 equivalent emissions", ErrInvalidFactorForActivity, f.UUID)
	}
	convert, err := KgToUOM(f.ActivityUOM)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: weightKg * convert * distanceKm * *f.CO2EquivalentEmissions, UOM: KgCO2e}, nil
}

// ComputeFlightEmission prices a flight of distanceKm for passengers
// against a "passenger.km" factor.
func ComputeFlightEmission(passengers int, distanceKm float64, f factors.EmissionsFactor) (Quantity, error) {
	if !strings.EqualFold(strings.TrimSpace(f.ActivityUOM), FlightActivityUOM) {
		return Quantity{}, fmt.Errorf("%w: flight factor %s unit is %q, want %q",
			ErrInvalidFactorForActivity, f.UUID, f.ActivityUOM, FlightActivityUOM)
	}
	if f.CO2EquivalentEmissions == nil {
		return Quantity{}, fmt.Errorf("%w: factor %s has no co2 equivalent emissions", ErrInvalidFactorForActivity, f.UUID)
	}
	value := float64(passengers) * distanceKm * *f.CO2EquivalentEmissions
	kg, err := units.ToKg(value, f.CO2EquivalentEmissionsUOM)
	if err != nil {
		return Quantity{}, fmt.Errorf("emissions unit: %w", err)
	}
	return Quantity{Value: kg, UOM: KgCO2e}, nil
}
