package postgres

import (
	"strconv"
	"strings"

	"github.com/rshade/carbonledger/internal/factors"
)

const factorColumns = `uuid, type, scope, level_1, level_2, level_3, level_4, text,
	year, from_year, thru_year, country, division_type, division_id, division_name,
	activity_uom, net_generation, net_generation_uom, co2_equivalent_emissions,
	co2_equivalent_emissions_uom, source, non_renewables, renewables, percent_of_renewables`

const factorOrder = ` ORDER BY year DESC, uuid ASC`

// whereBuilder accumulates AND-ed conditions with positional parameters.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) param(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *whereBuilder) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// scopeWhere renders the WHERE clause for a scope query. Text fields match
// case-insensitively after trimming, the same way ScopeQuery.Matches does.
func scopeWhere(q factors.ScopeQuery) (string, []any) {
	var w whereBuilder
	fields := [...]struct{ col, val string }{
		{"scope", q.Scope},
		{"level_1", q.Level1},
		{"level_2", q.Level2},
		{"level_3", q.Level3},
		{"level_4", q.Level4},
		{"text", q.Text},
		{"activity_uom", q.ActivityUOM},
	}
	for _, f := range fields {
		v := strings.TrimSpace(f.val)
		if v == "" {
			continue
		}
		w.add("upper(trim(" + f.col + ")) = upper(" + w.param(v) + ")")
	}
	switch {
	case q.Year != 0:
		w.add("year = " + w.param(q.Year))
	case q.HasRange():
		w.add("year BETWEEN " + w.param(q.FromYear) + " AND " + w.param(q.ThruYear))
	}
	return w.String(), w.args
}

// divisionWhere renders the WHERE clause for a division lookup. The
// division ID matches exactly and the type case-insensitively.
func divisionWhere(divisionID, divisionType string, year int) (string, []any) {
	var w whereBuilder
	w.add("division_id = " + w.param(divisionID))
	w.add("upper(division_type) = upper(" + w.param(divisionType) + ")")
	if year != 0 {
		w.add("year = " + w.param(year))
	}
	return w.String(), w.args
}
