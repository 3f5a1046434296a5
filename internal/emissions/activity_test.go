package emissions_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/emissions"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/units"
)

func TestComputeActivityEmissionElectricity(t *testing.T) {
	f := factors.EmissionsFactor{
		UUID:                      "egrid-ca-2019",
		ActivityUOM:               "MWH",
		CO2EquivalentEmissions:    ptr(0.19359146878269065),
		CO2EquivalentEmissionsUOM: "tons",
	}

	got, err := emissions.ComputeActivityEmission(f, emissions.ActivityInput{Amount: ptr(128), AmountUOM: "kwh"})
	require.NoError(t, err)
	assert.InDelta(t, 24.78, got.Emission.Value, 0.005)
	assert.Equal(t, "kgCO2e", got.Emission.UOM)
	assert.Equal(t, 25.0, math.Round(got.Emission.Value))
	require.NotNil(t, got.Amount)
	assert.Equal(t, "kwh", got.Amount.UOM)
}

func TestComputeActivityEmissionNaturalGas(t *testing.T) {
	f := factors.EmissionsFactor{
		UUID:                      "fuels-ng-2019",
		ActivityUOM:               "cubic metres",
		CO2EquivalentEmissions:    ptr(2.03053),
		CO2EquivalentEmissionsUOM: "kg",
	}

	got, err := emissions.ComputeActivityEmission(f, emissions.ActivityInput{Amount: ptr(283), AmountUOM: "cubic metres"})
	require.NoError(t, err)
	assert.InDelta(t, 574.64, got.Emission.Value, 0.01)
	assert.Equal(t, 575.0, math.Round(got.Emission.Value))
}

func TestComputeActivityEmissionDimensions(t *testing.T) {
	tests := []struct {
		name           string
		activityUOM    string
		co2UOM         string
		in             emissions.ActivityInput
		want           float64
		wantKm         float64
		wantKg         float64
		wantPassengers int
	}{
		{
			name:        "tonne km from kg and miles",
			activityUOM: "tonne.km",
			co2UOM:      "kg",
			in: emissions.ActivityInput{
				Weight: ptr(1000), WeightUOM: "kg",
				Distance: ptr(100), DistanceUOM: "miles",
			},
			want:   160.934,
			wantKm: 160.934,
			wantKg: 1000,
		},
		{
			name:        "passenger km",
			activityUOM: "passenger.km",
			co2UOM:      "kgCO2e",
			in: emissions.ActivityInput{
				Passengers: 3,
				Distance:   ptr(10), DistanceUOM: "km",
			},
			want:           30,
			wantKm:         10,
			wantPassengers: 3,
		},
		{
			name:        "grams output",
			activityUOM: "km",
			co2UOM:      "gCO2e",
			in:          emissions.ActivityInput{Distance: ptr(500), DistanceUOM: "km"},
			want:        0.5,
			wantKm:      500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := factors.EmissionsFactor{
				UUID:                      "f",
				ActivityUOM:               tt.activityUOM,
				CO2EquivalentEmissions:    ptr(1),
				CO2EquivalentEmissionsUOM: tt.co2UOM,
			}
			got, err := emissions.ComputeActivityEmission(f, tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got.Emission.Value, 1e-6)
			if tt.wantKm != 0 {
				require.NotNil(t, got.DistanceKm)
				assert.InDelta(t, tt.wantKm, *got.DistanceKm, 1e-6)
			}
			if tt.wantKg != 0 {
				require.NotNil(t, got.WeightKg)
				assert.InDelta(t, tt.wantKg, *got.WeightKg, 1e-6)
			}
			assert.Equal(t, tt.wantPassengers, got.Passengers)
		})
	}
}

func TestComputeActivityEmissionMissingInputs(t *testing.T) {
	tests := []struct {
		name        string
		activityUOM string
		in          emissions.ActivityInput
		wantErr     error
	}{
		{name: "passengers", activityUOM: "passenger.km", in: emissions.ActivityInput{Distance: ptr(1), DistanceUOM: "km"}, wantErr: emissions.ErrInvalidFactorForActivity},
		{name: "weight", activityUOM: "tonne.km", in: emissions.ActivityInput{Distance: ptr(1), DistanceUOM: "km"}, wantErr: emissions.ErrInvalidFactorForActivity},
		{name: "distance", activityUOM: "km", in: emissions.ActivityInput{}, wantErr: emissions.ErrInvalidFactorForActivity},
		{name: "amount", activityUOM: "kwh", in: emissions.ActivityInput{}, wantErr: emissions.ErrInvalidFactorForActivity},
		{name: "incompatible amount unit", activityUOM: "kwh", in: emissions.ActivityInput{Amount: ptr(1), AmountUOM: "m3"}, wantErr: units.ErrUnknownUOM},
		{name: "no activity unit", activityUOM: "", in: emissions.ActivityInput{}, wantErr: emissions.ErrInvalidFactorForActivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := factors.EmissionsFactor{
				UUID:                      "f",
				ActivityUOM:               tt.activityUOM,
				CO2EquivalentEmissions:    ptr(1),
				CO2EquivalentEmissionsUOM: "kg",
			}
			_, err := emissions.ComputeActivityEmission(f, tt.in)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestKgToUOM(t *testing.T) {
	tests := []struct {
		uom  string
		want float64
	}{
		{uom: "kg.km", want: 1},
		{uom: "lbs.mi", want: 2.20462},
		{uom: "tonne.km", want: 0.001},
		{uom: "TONS.km", want: 0.001},
		{uom: "g", want: 1000},
	}
	for _, tt := range tests {
		t.Run(tt.uom, func(t *testing.T) {
			got, err := emissions.KgToUOM(tt.uom)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	_, err := emissions.KgToUOM("stone.km")
	require.ErrorIs(t, err, units.ErrUnknownUOM)
}

func TestComputeFreightEmission(t *testing.T) {
	f := factors.EmissionsFactor{UUID: "truck", ActivityUOM: "tonne.km", CO2EquivalentEmissions: ptr(0.1)}

	got, err := emissions.ComputeFreightEmission(2000, 500, f)
	require.NoError(t, err)
	// 2 t * 500 km * 0.1
	assert.InDelta(t, 100, got.Value, 1e-9)
	assert.Equal(t, "kgCO2e", got.UOM)

	f.CO2EquivalentEmissions = nil
	_, err = emissions.ComputeFreightEmission(1, 1, f)
	require.ErrorIs(t, err, emissions.ErrInvalidFactorForActivity)
}

func TestComputeFlightEmission(t *testing.T) {
	f := factors.EmissionsFactor{
		UUID:                      "economy",
		ActivityUOM:               "passenger.km",
		CO2EquivalentEmissions:    ptr(0.15),
		CO2EquivalentEmissionsUOM: "kg",
	}

	got, err := emissions.ComputeFlightEmission(2, 1000, f)
	require.NoError(t, err)
	assert.InDelta(t, 300, got.Value, 1e-9)

	f.ActivityUOM = "km"
	_, err = emissions.ComputeFlightEmission(2, 1000, f)
	require.ErrorIs(t, err, emissions.ErrInvalidFactorForActivity)
}
