package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rshade/carbonledger/internal/activity"
	"github.com/rshade/carbonledger/internal/emissions"
	"github.com/rshade/carbonledger/internal/factors"
)

func ptr(f float64) *float64 { return &f }

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{" JSON ", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"csv", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode(t *testing.T) {
	v := map[string]int{"a": 1}

	var js bytes.Buffer
	require.NoError(t, Encode(&js, FormatJSON, v))
	assert.JSONEq(t, `{"a":1}`, js.String())

	var ym bytes.Buffer
	require.NoError(t, Encode(&ym, FormatYAML, v))
	assert.Equal(t, "a: 1\n", ym.String())

	require.Error(t, Encode(&js, FormatTable, v))
}

func sampleFactors() []factors.EmissionsFactor {
	return []factors.EmissionsFactor{
		{
			UUID: "ca-2019", Year: 2019, DivisionType: "STATE", DivisionID: "CA",
			CO2EquivalentEmissions: ptr(0.19359), CO2EquivalentEmissionsUOM: "tons", ActivityUOM: "MWh",
		},
		{
			UUID: "gas-2020", Year: 2020, Level1: "FUELS", Level2: "GASEOUS FUELS", Level3: "NATURAL GAS",
			Text: "Volume", CO2EquivalentEmissions: ptr(2.02266), CO2EquivalentEmissionsUOM: "kg",
			ActivityUOM: "cubic metres",
		},
	}
}

func TestRenderFactors(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderFactors(&buf, sampleFactors(), Options{Format: FormatTable, Precision: 2}))
		out := buf.String()
		assert.Contains(t, out, "EMISSIONS FACTORS (2)")
		assert.Contains(t, out, "STATE: CA")
		assert.Contains(t, out, "FUELS / GASEOUS FUELS / NATURAL GAS / Volume")
		assert.Contains(t, out, "0.19359 tons")
		assert.Contains(t, out, "cubic metres")
	})

	t.Run("empty table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderFactors(&buf, nil, Options{Format: FormatTable}))
		assert.Equal(t, "No emissions factors found.\n", buf.String())
	})

	t.Run("empty json is an array", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderFactors(&buf, nil, Options{Format: FormatJSON}))
		assert.JSONEq(t, `[]`, buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderFactors(&buf, sampleFactors(), Options{Format: FormatYAML}))
		var back []factors.EmissionsFactor
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
		assert.Equal(t, sampleFactors(), back)
	})
}

func TestRenderDivision(t *testing.T) {
	r := DivisionResult{
		Utility:  &factors.UtilityLookupItem{UUID: "pge", UtilityName: "Pacific Gas & Electric Co.", StateProvince: "CA"},
		Division: factors.Division{ID: "CA", Type: "STATE"},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderDivision(&buf, r, Options{Format: FormatTable}))
	assert.Contains(t, buf.String(), "Pacific Gas & Electric Co.")
	assert.Contains(t, buf.String(), "STATE")

	buf.Reset()
	require.NoError(t, RenderDivision(&buf, r, Options{Format: FormatJSON}))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[string]any{"division_id": "CA", "division_type": "STATE"}, got["division"])
}

func TestRenderEmission(t *testing.T) {
	e := emissions.CO2Emission{
		Emission:                    emissions.Quantity{Value: 24.77949, UOM: "kg"},
		DivisionType:                "STATE",
		DivisionID:                  "CA",
		RenewableEnergyUseAmount:    40,
		NonrenewableEnergyUseAmount: 1088,
		Year:                        2019,
	}
	var buf bytes.Buffer
	require.NoError(t, RenderEmission(&buf, e, Options{Format: FormatTable, Precision: 2}))
	out := buf.String()
	assert.Contains(t, out, "24.78 kg")
	assert.Contains(t, out, "STATE CA")
	assert.Contains(t, out, "≈ 129 mi")
	assert.Contains(t, out, "1,088.00")
}

func TestRenderGroups(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	processed := []activity.ProcessedActivity{
		{
			Activity: activity.Activity{ID: "e1", Type: activity.TypeElectricity, FromDate: "2019-01-01", ThruDate: "2019-02-01"},
			Result: &activity.Result{Emissions: &activity.Emissions{
				Amount: activity.ValueAndUnit{Value: 1234.5, Unit: emissions.KgCO2e},
			}},
		},
		{Activity: activity.Activity{ID: "bad", Type: activity.TypeFlight}, Error: "no factor"},
	}
	g := activity.GroupAt(processed, "acme", now)

	var buf bytes.Buffer
	require.NoError(t, RenderGroups(&buf, g, Options{Format: FormatTable, Precision: 1}))
	out := buf.String()
	assert.Contains(t, out, "EMISSIONS BY GROUP")
	assert.Contains(t, out, "electricity")
	assert.Contains(t, out, "acme")
	assert.Contains(t, out, "2019-01-01")
	assert.Contains(t, out, "Total: 1,234.5 kgCO2e across 1 groups")
	assert.Contains(t, out, "Equivalent to driving ~6,430 miles")
	assert.Contains(t, out, "FAILED (1)")
	assert.Contains(t, out, "no factor")

	t.Run("nothing priced", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderGroups(&buf, activity.GroupAt(nil, "acme", now), Options{Format: FormatTable}))
		assert.Equal(t, "No activities priced.\n", buf.String())
	})

	t.Run("json keeps the nested shape", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderGroups(&buf, g, Options{Format: FormatJSON}))
		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Contains(t, got, "electricity")
		assert.Contains(t, got, "errors")
	})
}

func TestRenderIssued(t *testing.T) {
	out := []activity.OutputActivity{
		{ID: "e1", TokenID: "queued", NodeID: "node-1", EmissionsRequestUUID: "req-1"},
		{ID: "bad", Error: "boom"},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderIssued(&buf, out, Options{Format: FormatTable}))
	assert.Contains(t, buf.String(), "queued")
	assert.Contains(t, buf.String(), "1 issued, 1 failed")

	buf.Reset()
	require.NoError(t, RenderIssued(&buf, nil, Options{Format: FormatJSON}))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestRenderUnits(t *testing.T) {
	var buf bytes.Buffer
	rows := []UnitRow{{UOM: "kwh", Family: "energy", Factor: 1000}}
	require.NoError(t, RenderUnits(&buf, rows, Options{Format: FormatTable}))
	assert.Contains(t, buf.String(), "kwh")
	assert.Contains(t, buf.String(), "1000")
}
