package activity

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/rshade/carbonledger/internal/emissions"
)

// GroupedResult is one issuance group.
type GroupedResult struct {
	TotalEmissions ValueAndUnit        `json:"total_emissions" yaml:"total_emissions"`
	Content        []ProcessedActivity `json:"content" yaml:"content"`
	FromDate       time.Time           `json:"from_date" yaml:"from_date"`
	ThruDate       time.Time           `json:"thru_date" yaml:"thru_date"`
}

// GroupKey identifies a group. Mode is set for shipments only.
type GroupKey struct {
	Type       string `json:"type" yaml:"type"`
	Mode       Mode   `json:"mode,omitempty" yaml:"mode,omitempty"`
	IssuedFrom string `json:"issued_from" yaml:"issued_from"`
}

// KeyedGroup pairs a group with its key.
type KeyedGroup struct {
	Key    GroupKey
	Result *GroupedResult
}

// GroupedResults partitions processed activities. Non-shipment groups are
// keyed type then issuer; shipment groups mode then issuer.
type GroupedResults struct {
	ByType    map[string]map[string]*GroupedResult
	Shipments map[Mode]map[string]*GroupedResult
	Errors    []ProcessedActivity
}

// Groups returns every group sorted by type, mode and issuer.
func (g GroupedResults) Groups() []KeyedGroup {
	var out []KeyedGroup
	for t, byIssuer := range g.ByType {
		for issuer, r := range byIssuer {
			out = append(out, KeyedGroup{Key: GroupKey{Type: t, IssuedFrom: issuer}, Result: r})
		}
	}
	for m, byIssuer := range g.Shipments {
		for issuer, r := range byIssuer {
			out = append(out, KeyedGroup{Key: GroupKey{Type: TypeShipment, Mode: m, IssuedFrom: issuer}, Result: r})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Mode != b.Mode {
			return a.Mode < b.Mode
		}
		return a.IssuedFrom < b.IssuedFrom
	})
	return out
}

// Count returns how many activities the groups and errors hold.
func (g GroupedResults) Count() int {
	n := len(g.Errors)
	for _, kg := range g.Groups() {
		n += len(kg.Result.Content)
	}
	return n
}

func (g GroupedResults) nested() map[string]any {
	out := make(map[string]any, len(g.ByType)+2)
	for t, byIssuer := range g.ByType {
		out[t] = byIssuer
	}
	if len(g.Shipments) > 0 {
		out[TypeShipment] = g.Shipments
	}
	errs := g.Errors
	if errs == nil {
		errs = []ProcessedActivity{}
	}
	out["errors"] = errs
	return out
}

// MarshalJSON writes {"<type>": {"<issuer>": group}, "shipment": {"<mode>":
// {"<issuer>": group}}, "errors": [...]}.
func (g GroupedResults) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.nested())
}

// MarshalYAML writes the same nested shape as MarshalJSON.
func (g GroupedResults) MarshalYAML() (any, error) {
	return g.nested(), nil
}

// Group partitions processed activities. It never reads the clock: an
// activity without a from date falls back to its ProcessedAt, or the zero
// time when that is unset. Grouping the same input twice gives the same
// result. See GroupAt.
func Group(processed []ProcessedActivity, defaultIssuedFrom string) GroupedResults {
	return GroupAt(processed, defaultIssuedFrom, time.Time{})
}

// GroupAt partitions processed activities into issuance groups.
//
// Failed activities go to Errors. The issuer is the activity's IssuedFrom,
// else defaultIssuedFrom. Types are compared in normalized form, so
// "Shipment" and "shipment" share a bucket. Shipments are keyed by the mode
// of their result distance, ground when absent. Each group totals its
// members' kgCO2e and spans the earliest from date to the latest thru date;
// a missing from date is the activity's ProcessedAt, else fallback, and a
// missing thru date is the from date. The input is not modified.
func GroupAt(processed []ProcessedActivity, defaultIssuedFrom string, fallback time.Time) GroupedResults {
	out := GroupedResults{
		ByType:    map[string]map[string]*GroupedResult{},
		Shipments: map[Mode]map[string]*GroupedResult{},
	}

	for _, pa := range processed {
		if pa.Failed() {
			out.Errors = append(out.Errors, pa)
			continue
		}
		now := fallback
		if !pa.ProcessedAt.IsZero() {
			now = pa.ProcessedAt
		}
		from, thru, err := pa.Activity.Period(now)
		if err != nil {
			failed := pa
			failed.Result = nil
			failed.Error = err.Error()
			out.Errors = append(out.Errors, failed)
			continue
		}

		issuer := pa.Activity.IssuedFrom
		if issuer == "" {
			issuer = defaultIssuedFrom
		}

		typ := NormalizeType(pa.Activity.Type)
		var bucket map[string]*GroupedResult
		if typ == TypeShipment {
			mode := ModeGround
			if d := pa.Result.Distance; d != nil && d.Mode != "" {
				mode = d.Mode
			}
			if out.Shipments[mode] == nil {
				out.Shipments[mode] = map[string]*GroupedResult{}
			}
			bucket = out.Shipments[mode]
		} else {
			if out.ByType[typ] == nil {
				out.ByType[typ] = map[string]*GroupedResult{}
			}
			bucket = out.ByType[typ]
		}

		g := bucket[issuer]
		if g == nil {
			g = &GroupedResult{
				TotalEmissions: ValueAndUnit{Unit: emissions.KgCO2e},
				FromDate:       from,
				ThruDate:       thru,
			}
			bucket[issuer] = g
		}
		g.TotalEmissions.Value += pa.Result.EmissionsKg()
		g.Content = append(g.Content, pa)
		if from.Before(g.FromDate) {
			g.FromDate = from
		}
		if thru.After(g.ThruDate) {
			g.ThruDate = thru
		}
	}
	return out
}

// Metadata describes an issued token.
type Metadata struct {
	TotalEmissions float64 `json:"Total emissions" yaml:"Total emissions"`
	UOM            string  `json:"UOM" yaml:"UOM"`
	Scope          int     `json:"Scope" yaml:"Scope"`
	Type           string  `json:"Type" yaml:"Type"`
	Mode           Mode    `json:"Mode,omitempty" yaml:"Mode,omitempty"`
}

// MetadataScope is the emissions scope recorded on issued tokens.
const MetadataScope = 3

// MakeMetadata builds token metadata with the total rounded to three
// decimals.
func MakeMetadata(totalKg float64, activityType string, mode Mode) Metadata {
	return Metadata{
		TotalEmissions: math.Round(totalKg*1000) / 1000,
		UOM:            emissions.KgCO2e,
		Scope:          MetadataScope,
		Type:           activityType,
		Mode:           mode,
	}
}

// Map returns the metadata as a JSON-style map.
func (m Metadata) Map() map[string]any {
	out := map[string]any{
		"Total emissions": m.TotalEmissions,
		"UOM":             m.UOM,
		"Scope":           m.Scope,
		"Type":            m.Type,
	}
	if m.Mode != "" {
		out["Mode"] = string(m.Mode)
	}
	return out
}

// TokensForKg returns the token quantity for kg of CO2e: one token per gram.
func TokensForKg(kg float64) int64 {
	return int64(math.Round(kg * 1000))
}
