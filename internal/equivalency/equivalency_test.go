package equivalency_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/equivalency"
	"github.com/rshade/carbonledger/internal/units"
)

func TestOf(t *testing.T) {
	tests := []struct {
		name       string
		value      float64
		uom        string
		wantEmpty  bool
		wantMiles  float64
		wantPhones float64
	}{
		{name: "150 kg", value: 150, uom: "kg", wantMiles: 781.25, wantPhones: 18248.18},
		{name: "grams", value: 150000, uom: "g", wantMiles: 781.25, wantPhones: 18248.18},
		{name: "tonnes", value: 0.15, uom: "tons", wantMiles: 781.25, wantPhones: 18248.18},
		{name: "emissions suffix", value: 150, uom: "kgCO2e", wantMiles: 781.25, wantPhones: 18248.18},
		{name: "empty unit is kg", value: 150, uom: "", wantMiles: 781.25, wantPhones: 18248.18},
		{name: "at threshold", value: 1, uom: "kg", wantMiles: 5.208333, wantPhones: 121.65},
		{name: "below threshold", value: 0.5, uom: "kg", wantEmpty: true},
		{name: "zero", value: 0, uom: "kg", wantEmpty: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := equivalency.Of(tt.value, tt.uom)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmpty, got.Empty())
			if tt.wantEmpty {
				assert.Empty(t, got.Text())
				return
			}
			miles, ok := got.Get(equivalency.MilesDriven)
			require.True(t, ok)
			assert.InEpsilon(t, tt.wantMiles, miles.Value, 0.01)
			phones, ok := got.Get(equivalency.SmartphonesCharged)
			require.True(t, ok)
			assert.InEpsilon(t, tt.wantPhones, phones.Value, 0.01)
			assert.Len(t, got.Items, 4)
		})
	}
}

func TestOfErrors(t *testing.T) {
	_, err := equivalency.Of(-1, "kg")
	require.ErrorIs(t, err, equivalency.ErrNegativeValue)

	_, err = equivalency.Of(1, "parsecs")
	require.ErrorIs(t, err, units.ErrUnknownUOM)
}

func TestText(t *testing.T) {
	got, err := equivalency.Of(150, "kg")
	require.NoError(t, err)
	assert.Equal(t, "Equivalent to driving ~781 miles or charging ~18,248 smartphones", got.Text())
	assert.Equal(t, "(≈ 781 mi, 18,248 phones)", got.Compact())
}

func TestFormatLarge(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0"},
		{in: 781.25, want: "781"},
		{in: 18248.18, want: "18,248"},
		{in: 999_999, want: "999,999"},
		{in: 1_500_000, want: "~1.5 million"},
		{in: 2_300_000_000, want: "~2.3 billion"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, equivalency.FormatLarge(tt.in))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "miles driven", equivalency.MilesDriven.String())
	assert.Equal(t, "Kind(9)", equivalency.Kind(9).String())
}
