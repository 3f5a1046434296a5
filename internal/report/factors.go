package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rshade/carbonledger/internal/emissions"
	"github.com/rshade/carbonledger/internal/equivalency"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/units"
)

// DivisionResult is the outcome of a utility lookup.
type DivisionResult struct {
	Utility  *factors.UtilityLookupItem `json:"utility,omitempty" yaml:"utility,omitempty"`
	Division factors.Division           `json:"division" yaml:"division"`
}

// RenderDivision writes a resolved division.
func RenderDivision(w io.Writer, r DivisionResult, opts Options) error {
	if opts.Format != FormatTable {
		return Encode(w, opts.Format, r)
	}
	rows := [][]string{
		{"Division ID", r.Division.ID},
		{"Division type", r.Division.Type},
	}
	if r.Utility != nil {
		rows = append(rows,
			[]string{"Utility", orDash(r.Utility.UtilityName)},
			[]string{"Utility number", orDash(r.Utility.UtilityNumber)},
			[]string{"State", orDash(r.Utility.StateProvince)},
		)
	}
	return writeTitled(w, "DIVISION", newTable([]string{"Field", "Value"}, rows))
}

// RenderFactors writes a list of emissions factors.
func RenderFactors(w io.Writer, fs []factors.EmissionsFactor, opts Options) error {
	if opts.Format != FormatTable {
		if fs == nil {
			fs = []factors.EmissionsFactor{}
		}
		return Encode(w, opts.Format, fs)
	}
	if len(fs) == 0 {
		_, err := fmt.Fprintln(w, "No emissions factors found.")
		return err
	}

	rows := make([][]string, 0, len(fs))
	for _, f := range fs {
		rows = append(rows, []string{
			f.UUID,
			strconv.Itoa(f.Year),
			classification(f),
			factorValue(f),
			orDash(f.ActivityUOM),
		})
	}
	t := newTable([]string{"UUID", "Year", "Classification", "CO2e", "Per"}, rows, 1, 3)
	return writeTitled(w, fmt.Sprintf("EMISSIONS FACTORS (%d)", len(fs)), t)
}

func classification(f factors.EmissionsFactor) string {
	if f.DivisionID != "" {
		return f.DivisionType + ": " + f.DivisionID
	}
	var parts []string
	for _, l := range f.Levels() {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	if f.Text != "" {
		parts = append(parts, f.Text)
	}
	return orDash(strings.Join(parts, " / "))
}

func factorValue(f factors.EmissionsFactor) string {
	if f.CO2EquivalentEmissions == nil {
		return "-"
	}
	return strconv.FormatFloat(*f.CO2EquivalentEmissions, 'g', -1, 64) + " " + f.CO2EquivalentEmissionsUOM
}

// RenderEmission writes a computed electricity emission.
func RenderEmission(w io.Writer, e emissions.CO2Emission, opts Options) error {
	if opts.Format != FormatTable {
		return Encode(w, opts.Format, e)
	}
	p := opts.precision()
	rows := [][]string{
		{"Emission", units.FormatQuantity(e.Emission.Value, e.Emission.UOM, p)},
		{"Division", orDash(strings.TrimSpace(e.DivisionType + " " + e.DivisionID))},
		{"Year", strconv.Itoa(e.Year)},
		{"Renewable use", units.FormatFloat(e.RenewableEnergyUseAmount, p)},
		{"Non-renewable use", units.FormatFloat(e.NonrenewableEnergyUseAmount, p)},
	}
	if eq, err := equivalency.Of(e.Emission.Value, e.Emission.UOM); err == nil && !eq.Empty() {
		rows = append(rows, []string{"Equivalent", eq.Compact()})
	}
	return writeTitled(w, "CO2 EMISSION", newTable([]string{"Field", "Value"}, rows, 1))
}

// UnitRow is one entry of the unit table.
type UnitRow struct {
	UOM    string  `json:"uom" yaml:"uom"`
	Family string  `json:"family" yaml:"family"`
	Factor float64 `json:"factor" yaml:"factor"`
}

// RenderUnits writes the unit conversion table.
func RenderUnits(w io.Writer, rows []UnitRow, opts Options) error {
	if opts.Format != FormatTable {
		return Encode(w, opts.Format, rows)
	}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.UOM, r.Family, strconv.FormatFloat(r.Factor, 'g', -1, 64)})
	}
	return writeTitled(w, "UNITS", newTable([]string{"UOM", "Family", "Factor"}, cells, 2))
}
