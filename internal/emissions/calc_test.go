package emissions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/emissions"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/units"
)

func ptr(v float64) *float64 { return &v }

func divisionFactor() factors.EmissionsFactor {
	return factors.EmissionsFactor{
		UUID:                      "egrid-ca-2019",
		DivisionType:              "STATE",
		DivisionID:                "CA",
		Year:                      2019,
		NetGeneration:             ptr(200000),
		NetGenerationUOM:          "MWH",
		CO2EquivalentEmissions:    ptr(40000),
		CO2EquivalentEmissionsUOM: "tons",
		Renewables:                ptr(150000),
		NonRenewables:             ptr(50000),
	}
}

func TestComputeEmissionNetGeneration(t *testing.T) {
	f := divisionFactor()

	got, err := emissions.ComputeEmission(f, 1000, "kwh")
	require.NoError(t, err)

	// 0.2 tons/MWh * 1 MWh
	assert.InDelta(t, 0.2, got.Emission.Value, 1e-12)
	assert.Equal(t, "tons", got.Emission.UOM)
	assert.Equal(t, "CA", got.DivisionID)
	assert.Equal(t, "STATE", got.DivisionType)
	assert.Equal(t, 2019, got.Year)
	assert.InDelta(t, 750, got.RenewableEnergyUseAmount, 1e-9)
	assert.InDelta(t, 250, got.NonrenewableEnergyUseAmount, 1e-9)
}

func TestComputeEmissionTargetUOM(t *testing.T) {
	got, err := emissions.ComputeEmission(divisionFactor(), 1, "mwh", emissions.WithTargetUOM("kg"))
	require.NoError(t, err)
	assert.InDelta(t, 200, got.Emission.Value, 1e-9)
	assert.Equal(t, "kg", got.Emission.UOM)
}

func TestComputeEmissionWithoutRenewableSplit(t *testing.T) {
	f := divisionFactor()
	f.Renewables = nil

	got, err := emissions.ComputeEmission(f, 1, "mwh")
	require.NoError(t, err)
	assert.Zero(t, got.RenewableEnergyUseAmount)
	assert.Zero(t, got.NonrenewableEnergyUseAmount)

	f = divisionFactor()
	f.Renewables, f.NonRenewables = ptr(0), ptr(0)
	got, err = emissions.ComputeEmission(f, 1, "mwh")
	require.NoError(t, err)
	assert.Zero(t, got.RenewableEnergyUseAmount)
}

func TestComputeEmissionPercentOfRenewables(t *testing.T) {
	f := factors.EmissionsFactor{
		UUID:                      "eea-fr-2019",
		DivisionType:              "Country",
		DivisionID:                "France",
		CO2EquivalentEmissions:    ptr(50),
		CO2EquivalentEmissionsUOM: "g/kwh",
		PercentOfRenewables:       ptr(25),
	}

	got, err := emissions.ComputeEmission(f, 2, "mwh", emissions.WithTargetUOM("kg"))
	require.NoError(t, err)

	// 50 g/kWh * 2000 kWh = 100 kg
	assert.InDelta(t, 100, got.Emission.Value, 1e-9)
	assert.InDelta(t, 0.5, got.RenewableEnergyUseAmount, 1e-12)
	assert.InDelta(t, 1.5, got.NonrenewableEnergyUseAmount, 1e-12)
}

func TestComputeEmissionErrors(t *testing.T) {
	noNetGen := divisionFactor()
	noNetGen.NetGeneration = nil

	zeroNetGen := divisionFactor()
	zeroNetGen.NetGeneration = ptr(0)

	noCO2 := divisionFactor()
	noCO2.CO2EquivalentEmissions = nil

	badRate := divisionFactor()
	badRate.PercentOfRenewables = ptr(10)
	badRate.CO2EquivalentEmissionsUOM = "tons"

	tests := []struct {
		name    string
		f       factors.EmissionsFactor
		uom     string
		opts    []emissions.Option
		wantErr error
	}{
		{name: "missing net generation", f: noNetGen, uom: "kwh", wantErr: emissions.ErrInvalidFactorForActivity},
		{name: "zero net generation", f: zeroNetGen, uom: "kwh", wantErr: emissions.ErrInvalidFactorForActivity},
		{name: "missing co2", f: noCO2, uom: "kwh", wantErr: emissions.ErrInvalidFactorForActivity},
		{name: "percent needs a rate unit", f: badRate, uom: "kwh", wantErr: emissions.ErrInvalidFactorForActivity},
		{name: "unknown usage unit", f: divisionFactor(), uom: "furlongs", wantErr: units.ErrUnknownUOM},
		{name: "mass usage unit", f: divisionFactor(), uom: "kg", wantErr: units.ErrUnknownUOM},
		{
			name:    "energy target unit",
			f:       divisionFactor(),
			uom:     "kwh",
			opts:    []emissions.Option{emissions.WithTargetUOM("kwh")},
			wantErr: units.ErrUnknownUOM,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := emissions.ComputeEmission(tt.f, 1, tt.uom, tt.opts...)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
