// Package emissions turns a resolved emissions factor and an activity
// quantity into an amount of CO2-equivalent.
//
// ComputeEmission prices electricity against a division factor (net
// generation based, with a renewable split). ComputeActivityEmission prices
// any per-unit factor whose activity unit is a dotted product such as
// "tonne.km" or "passenger.km". Freight and flight helpers cover the
// lookup-table driven shipment and flight paths.
package emissions

import (
	"fmt"
	"math"
	"strings"

	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/units"
)

// Output units.
const (
	// DefaultTargetUOM is the ComputeEmission output unit unless overridden.
	DefaultTargetUOM = "tons"

	// KgCO2e is the unit of every activity-based result.
	KgCO2e = "kgCO2e"
)

// Quantity is a value with its unit.
type Quantity struct {
	Value float64 `json:"value" yaml:"value"`
	UOM   string  `json:"uom" yaml:"uom"`
}

// CO2Emission is the result of pricing electricity usage.
type CO2Emission struct {
	Emission                    Quantity `json:"emission" yaml:"emission"`
	DivisionType                string   `json:"division_type,omitempty" yaml:"division_type,omitempty"`
	DivisionID                  string   `json:"division_id,omitempty" yaml:"division_id,omitempty"`
	RenewableEnergyUseAmount    float64  `json:"renewable_energy_use_amount" yaml:"renewable_energy_use_amount"`
	NonrenewableEnergyUseAmount float64  `json:"nonrenewable_energy_use_amount" yaml:"nonrenewable_energy_use_amount"`
	Year                        int      `json:"year,omitempty" yaml:"year,omitempty"`
}

type options struct {
	targetUOM string
}

// Option configures ComputeEmission.
type Option func(*options)

// WithTargetUOM sets the mass unit of the computed emission.
func WithTargetUOM(uom string) Option {
	return func(o *options) {
		if strings.TrimSpace(uom) != "" {
			o.targetUOM = uom
		}
	}
}

// ComputeEmission prices usage (in usageUOM, an energy unit) against f.
//
// When f carries a percent of renewables, its CO2e unit must be a
// "mass/energy" rate and the renewable split follows the percentage.
// Otherwise f must carry a net generation: the emission is
// co2e/net_generation scaled by usage, and the split follows the factor's
// renewables and non-renewables when both are present.
func ComputeEmission(f factors.EmissionsFactor, usage float64, usageUOM string, opts ...Option) (CO2Emission, error) {
	o := options{targetUOM: DefaultTargetUOM}
	for _, opt := range opts {
		opt(&o)
	}

	if !f.Usable() {
		return CO2Emission{}, fmt.Errorf("%w: factor %s has no co2 equivalent emissions", ErrInvalidFactorForActivity, f.UUID)
	}
	target, err := units.FactorFor(units.Mass, o.targetUOM)
	if err != nil {
		return CO2Emission{}, fmt.Errorf("target unit: %w", err)
	}

	out := CO2Emission{
		DivisionType: f.DivisionType,
		DivisionID:   f.DivisionID,
		Year:         f.Year,
	}
	co2 := *f.CO2EquivalentEmissions

	if f.PercentOfRenewables != nil {
		mass, energy, ok := strings.Cut(f.CO2EquivalentEmissionsUOM, "/")
		if !ok || strings.TrimSpace(mass) == "" || strings.TrimSpace(energy) == "" {
			return CO2Emission{}, fmt.Errorf("%w: factor %s unit %q is not a mass/energy rate",
				ErrInvalidFactorForActivity, f.UUID, f.CO2EquivalentEmissionsUOM)
		}
		usageConv, err := units.Ratio(usageUOM, energy)
		if err != nil {
			return CO2Emission{}, fmt.Errorf("usage unit: %w", err)
		}
		massConv, err := units.ToKg(1, mass)
		if err != nil {
			return CO2Emission{}, fmt.Errorf("emissions unit: %w", err)
		}
		share := *f.PercentOfRenewables / 100
		out.Emission = Quantity{Value: co2 * usage * usageConv * massConv / target, UOM: o.targetUOM}
		out.RenewableEnergyUseAmount = usage * share
		out.NonrenewableEnergyUseAmount = usage * (1 - share)
		return out, nil
	}

	if f.NetGeneration == nil || *f.NetGeneration == 0 || strings.TrimSpace(f.NetGenerationUOM) == "" {
		return CO2Emission{}, fmt.Errorf("%w: factor %s has no net generation", ErrInvalidFactorForActivity, f.UUID)
	}
	usageConv, err := units.Ratio(usageUOM, f.NetGenerationUOM)
	if err != nil {
		return CO2Emission{}, fmt.Errorf("usage unit: %w", err)
	}
	massConv, err := units.ToKg(1, f.CO2EquivalentEmissionsUOM)
	if err != nil {
		return CO2Emission{}, fmt.Errorf("emissions unit: %w", err)
	}

	value := co2 / *f.NetGeneration * usage * usageConv * massConv / target
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return CO2Emission{}, fmt.Errorf("%w: factor %s produced a non-finite emission", ErrInvalidFactorForActivity, f.UUID)
	}
	out.Emission = Quantity{Value: value, UOM: o.targetUOM}

	if f.Renewables != nil && f.NonRenewables != nil {
		if total := *f.Renewables + *f.NonRenewables; total > 0 {
			out.RenewableEnergyUseAmount = usage * *f.Renewables / total
			out.NonrenewableEnergyUseAmount = usage * *f.NonRenewables / total
		}
	}
	return out, nil
}
