package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUomFactor(t *testing.T) {
	tests := []struct {
		name    string
		uom     string
		want    float64
		wantErr bool
	}{
		{name: "watt-hour base", uom: "Wh", want: 1},
		{name: "kilowatt-hour", uom: "kWh", want: 1e3},
		{name: "megawatt-hour upper case", uom: "MWH", want: 1e6},
		{name: "gigawatt-hour", uom: "gwh", want: 1e9},
		{name: "terawatt-hour", uom: "TWh", want: 1e12},
		{name: "kilogram base", uom: "kg", want: 1},
		{name: "grams", uom: "g", want: 0.001},
		{name: "metric tons", uom: "tons", want: 1000},
		{name: "tonne alias", uom: "Tonne", want: 1000},
		{name: "metric ton reporting abbreviation", uom: "MTCO2e", want: 1000},
		{name: "kilotonne", uom: "kt", want: 1e6},
		{name: "megatonne", uom: "Mt", want: 1e9},
		{name: "petagram", uom: "Pg", want: 1e9},
		{name: "gigatonne", uom: "Gt", want: 1e12},
		{name: "pounds", uom: "lbs", want: 0.453592},
		{name: "padded multi word", uom: "  cubic   metres ", want: 1},
		{name: "cubic feet", uom: "cubic feet", want: 0.0283168},
		{name: "miles", uom: "mi", want: 1.60934},
		{name: "empty", uom: "", wantErr: true},
		{name: "whitespace only", uom: "   ", wantErr: true},
		{name: "unknown", uom: "xyz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetUomFactor(tt.uom)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownUOM)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tt.want*1e-12)
		})
	}
}

func TestKWhToWhRatioIsExact(t *testing.T) {
	kwh, err := GetUomFactor("kWh")
	require.NoError(t, err)
	wh, err := GetUomFactor("Wh")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, kwh/wh)
}

func TestFactorFor_RejectsCrossFamily(t *testing.T) {
	_, err := FactorFor(Mass, "kWh")
	require.ErrorIs(t, err, ErrUnknownUOM)
	assert.Contains(t, err.Error(), "energy")

	_, err = FactorFor(Energy, "kg")
	require.ErrorIs(t, err, ErrUnknownUOM)

	v, err := FactorFor(Energy, "MWh")
	require.NoError(t, err)
	assert.Equal(t, 1e6, v)
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		want    float64
		wantErr bool
	}{
		{name: "kwh to mwh", from: "kwh", to: "MWH", want: 0.001},
		{name: "tons to kg", from: "tons", to: "kg", want: 1000},
		{name: "g to tonne", from: "g", to: "tonne", want: 1e-6},
		{name: "miles to km", from: "miles", to: "km", want: 1.60934},
		{name: "mcf to cubic metres", from: "mcf", to: "cubic metres", want: 28.3168},
		{name: "identity", from: "kWh", to: "kwh", want: 1},
		{name: "energy to mass", from: "kwh", to: "kg", wantErr: true},
		{name: "unknown source", from: "therm", to: "kwh", wantErr: true},
		{name: "unknown target", from: "kwh", to: "therm", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Ratio(tt.from, tt.to)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownUOM)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tt.want*1e-9)
		})
	}
}

func TestConvert(t *testing.T) {
	got, err := Convert(128, "kWh", "MWh")
	require.NoError(t, err)
	assert.InDelta(t, 0.128, got, 1e-12)

	_, err = Convert(math.MaxFloat64, "gt", "g")
	require.Error(t, err)
}

func TestToKg(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		uom     string
		want    float64
		wantErr bool
	}{
		{name: "empty unit is kg", value: 3, uom: "", want: 3},
		{name: "kg", value: 3, uom: "kg", want: 3},
		{name: "tons", value: 0.19359, uom: "tons", want: 193.59},
		{name: "kgCO2e suffix", value: 2, uom: "kgCO2e", want: 2},
		{name: "spaced suffix", value: 2, uom: "tons CO2e", want: 2000},
		{name: "mtco2e is metric tonnes", value: 1, uom: "mtCO2e", want: 1000},
		{name: "spaced mtco2e is metric tonnes", value: 1, uom: "Mt CO2e", want: 1000},
		{name: "bare mt is megatonnes", value: 1, uom: "Mt", want: 1e9},
		{name: "grams suffix", value: 500, uom: "gCO2", want: 0.5},
		{name: "energy unit", value: 1, uom: "kwh", wantErr: true},
		{name: "unknown", value: 1, uom: "barrels", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToKg(tt.value, tt.uom)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownUOM)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestToKg_SuffixSpacingDoesNotChangeMultiplier(t *testing.T) {
	pairs := [][2]string{
		{"MtCO2e", "Mt CO2e"},
		{"kgCO2e", "kg CO2e"},
		{"tCO2e", "t CO2e"},
		{"gCO2e", "g  CO2e"},
		{"lbCO2e", "lb CO2e"},
		{"tonsCO2e", "tons CO2e"},
	}
	for _, p := range pairs {
		a, err := ToKg(1, p[0])
		require.NoError(t, err)
		b, err := ToKg(1, p[1])
		require.NoError(t, err)
		assert.InDelta(t, a, b, 1e-12, "%q and %q must convert identically", p[0], p[1])
	}
}

// Guards against a family-level alias regression where two distinct units
// collapse onto the same multiplier.
func TestTable_DistinctUnitsKeepDistinctMultipliers(t *testing.T) {
	pairs := [][2]string{
		{"mt", "mtco2e"},
		{"t", "kt"},
		{"short ton", "long ton"},
		{"mcf", "mcm"},
		{"m", "mi"},
		{"kwh", "mwh"},
	}
	for _, p := range pairs {
		a, err := GetUomFactor(p[0])
		require.NoError(t, err)
		b, err := GetUomFactor(p[1])
		require.NoError(t, err)
		assert.NotEqual(t, a, b, "%s and %s must not share a multiplier", p[0], p[1])
	}
}

func TestTable_EveryKeyIsNormalized(t *testing.T) {
	for _, key := range Units(FamilyUnknown) {
		f, err := Lookup(key)
		require.NoError(t, err, key)
		assert.Equal(t, key, f.Unit)
		assert.Equal(t, normalize(key), key)
		assert.Positive(t, f.Multiplier)
		assert.NotEqual(t, FamilyUnknown, f.Family)
	}
}

func TestUnits_FiltersByFamily(t *testing.T) {
	energy := Units(Energy)
	assert.Equal(t, []string{"gwh", "kwh", "mwh", "twh", "wh"}, energy)
	assert.Contains(t, Units(Mass), "lbs")
	assert.NotContains(t, Units(Mass), "kwh")
}

func TestParseFamily(t *testing.T) {
	f, err := ParseFamily("Energy")
	require.NoError(t, err)
	assert.Equal(t, Energy, f)
	f, err = ParseFamily("weight")
	require.NoError(t, err)
	assert.Equal(t, Mass, f)
	_, err = ParseFamily("time")
	require.Error(t, err)
	assert.Equal(t, "distance", Distance.String())
}

func BenchmarkGetUomFactor(b *testing.B) {
	for b.Loop() {
		_, _ = GetUomFactor("MWh")
	}
}
