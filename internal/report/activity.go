package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rshade/carbonledger/internal/activity"
	"github.com/rshade/carbonledger/internal/emissions"
	"github.com/rshade/carbonledger/internal/equivalency"
	"github.com/rshade/carbonledger/internal/units"
)

const dateLayout = "2006-01-02"

// RenderGroups writes grouped activity results. Tables show one row per
// group followed by the failed activities.
func RenderGroups(w io.Writer, g activity.GroupedResults, opts Options) error {
	if opts.Format != FormatTable {
		return Encode(w, opts.Format, g)
	}

	p := opts.precision()
	groups := g.Groups()
	rows := make([][]string, 0, len(groups))
	var total float64
	for _, kg := range groups {
		r := kg.Result
		total += r.TotalEmissions.Value
		rows = append(rows, []string{
			kg.Key.Type,
			orDash(string(kg.Key.Mode)),
			kg.Key.IssuedFrom,
			strconv.Itoa(len(r.Content)),
			r.FromDate.Format(dateLayout),
			r.ThruDate.Format(dateLayout),
			units.FormatQuantity(r.TotalEmissions.Value, r.TotalEmissions.Unit, p),
		})
	}

	if len(rows) > 0 {
		t := newTable([]string{"Type", "Mode", "Issued from", "Activities", "From", "Thru", "Emissions"},
			rows, 3, 6)
		if err := writeTitled(w, "EMISSIONS BY GROUP", t); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Total: %s across %d groups\n",
			units.FormatQuantity(total, emissions.KgCO2e, p), len(rows)); err != nil {
			return err
		}
		if eq, err := equivalency.Of(total, emissions.KgCO2e); err == nil && !eq.Empty() {
			if _, err := fmt.Fprintln(w, eq.Text()); err != nil {
				return err
			}
		}
	} else if _, err := fmt.Fprintln(w, "No activities priced."); err != nil {
		return err
	}

	return renderErrors(w, g.Errors)
}

func renderErrors(w io.Writer, failed []activity.ProcessedActivity) error {
	if len(failed) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(failed))
	for _, pa := range failed {
		rows = append(rows, []string{pa.Activity.ID, orDash(pa.Activity.Type), pa.Error})
	}
	t := newTable([]string{"ID", "Type", "Error"}, rows)
	_, err := fmt.Fprintf(w, "\n%s\n%s\n", errorStyle.Render(fmt.Sprintf("FAILED (%d)", len(failed))), t.Render())
	return err
}

// RenderIssued writes per-activity issuance outcomes.
func RenderIssued(w io.Writer, out []activity.OutputActivity, opts Options) error {
	if opts.Format != FormatTable {
		if out == nil {
			out = []activity.OutputActivity{}
		}
		return Encode(w, opts.Format, out)
	}
	rows := make([][]string, 0, len(out))
	var failed int
	for _, o := range out {
		if o.Error != "" {
			failed++
		}
		rows = append(rows, []string{o.ID, orDash(o.TokenID), orDash(o.NodeID), orDash(o.EmissionsRequestUUID), orDash(o.Error)})
	}
	t := newTable([]string{"ID", "Token", "Node", "Request", "Error"}, rows)
	if err := writeTitled(w, "ISSUANCE", t); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s issued, %s failed\n",
		units.FormatNumber(int64(len(out)-failed)), units.FormatNumber(int64(failed)))
	return err
}
