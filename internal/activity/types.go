// Package activity prices carbon accounting activities and groups the
// results for token issuance.
//
// A Processor dispatches each Activity by type to a resolution path
// (electricity, natural gas, a named emissions factor, shipment or flight),
// runs the batch with bounded concurrency and records per-activity errors
// without aborting the batch. Group partitions the priced activities by
// type, shipment mode and issuer; IssueGroups hands each group to a
// token issuer.
package activity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/carbonledger/internal/emissions"
	"github.com/rshade/carbonledger/internal/factors"
)

// Activity types.
const (
	TypeShipment        = "shipment"
	TypeFlight          = "flight"
	TypeEmissionsFactor = "emissions_factor"
	TypeNaturalGas      = "natural_gas"
	TypeElectricity     = "electricity"
	TypeOther           = "other"
)

// NormalizeType returns the canonical form of an activity type.
func NormalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// Mode is a transport mode.
type Mode string

// Transport modes.
const (
	ModeAir    Mode = "air"
	ModeGround Mode = "ground"
	ModeSea    Mode = "sea"
	ModeRail   Mode = "rail"
)

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Address is a shipment or flight endpoint. It decodes from either a plain
// string or an object.
type Address struct {
	Country       string       `json:"country,omitempty" yaml:"country,omitempty"`
	Address       string       `json:"address,omitempty" yaml:"address,omitempty"`
	City          string       `json:"city,omitempty" yaml:"city,omitempty"`
	StateProvince string       `json:"state_province,omitempty" yaml:"state_province,omitempty"`
	ZipCode       string       `json:"zip_code,omitempty" yaml:"zip_code,omitempty"`
	Coords        *Coordinates `json:"coords,omitempty" yaml:"coords,omitempty"`
}

type addressFields Address

// IsZero reports whether no field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) plain() bool {
	return a.Coords == nil && a.Country == "" && a.City == "" && a.StateProvince == "" && a.ZipCode == ""
}

// String joins the non-empty parts into one line.
func (a Address) String() string {
	var parts []string
	for _, p := range []string{a.Address, a.City, strings.TrimSpace(a.StateProvince + " " + a.ZipCode), a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// UnmarshalJSON accepts a string or an object.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Address{Address: s}
		return nil
	}
	var f addressFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("address must be a string or an object: %w", err)
	}
	*a = Address(f)
	return nil
}

// MarshalJSON writes a string when only the free-form line is set.
func (a Address) MarshalJSON() ([]byte, error) {
	if a.plain() {
		return json.Marshal(a.Address)
	}
	return json.Marshal(addressFields(a))
}

// UnmarshalYAML accepts a scalar or a mapping.
func (a *Address) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*a = Address{Address: node.Value}
		return nil
	}
	var f addressFields
	if err := node.Decode(&f); err != nil {
		return fmt.Errorf("address must be a string or a mapping: %w", err)
	}
	*a = Address(f)
	return nil
}

// MarshalYAML writes a scalar when only the free-form line is set.
func (a Address) MarshalYAML() (any, error) {
	if a.plain() {
		return a.Address, nil
	}
	return addressFields(a), nil
}

// Activity is one reported activity. Which fields matter depends on Type.
type Activity struct {
	ID         string `json:"id" yaml:"id"`
	Type       string `json:"type" yaml:"type"`
	FromDate   string `json:"from_date,omitempty" yaml:"from_date,omitempty"`
	ThruDate   string `json:"thru_date,omitempty" yaml:"thru_date,omitempty"`
	IssuedFrom string `json:"issued_from,omitempty" yaml:"issued_from,omitempty"`

	From Address `json:"from,omitzero" yaml:"from,omitempty"`
	To   Address `json:"to,omitzero" yaml:"to,omitempty"`

	ActivityAmount *float64 `json:"activity_amount,omitempty" yaml:"activity_amount,omitempty"`
	ActivityUOM    string   `json:"activity_uom,omitempty" yaml:"activity_uom,omitempty"`

	// Electricity.
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
	State   string `json:"state,omitempty" yaml:"state,omitempty"`
	Utility string `json:"utility,omitempty" yaml:"utility,omitempty"`

	// Shipment.
	Mode      Mode     `json:"mode,omitempty" yaml:"mode,omitempty"`
	Carrier   string   `json:"carrier,omitempty" yaml:"carrier,omitempty"`
	Tracking  string   `json:"tracking,omitempty" yaml:"tracking,omitempty"`
	Weight    *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	WeightUOM string   `json:"weight_uom,omitempty" yaml:"weight_uom,omitempty"`

	Distance    *float64 `json:"distance,omitempty" yaml:"distance,omitempty"`
	DistanceUOM string   `json:"distance_uom,omitempty" yaml:"distance_uom,omitempty"`

	// Flight.
	NumberOfPassengers int    `json:"number_of_passengers,omitempty" yaml:"number_of_passengers,omitempty"`
	Class              string `json:"class,omitempty" yaml:"class,omitempty"`
	FlightNumber       string `json:"flight_number,omitempty" yaml:"flight_number,omitempty"`

	// Emissions factor selection.
	EmissionsFactorUUID string `json:"emissions_factor_uuid,omitempty" yaml:"emissions_factor_uuid,omitempty"`
	Scope               string `json:"scope,omitempty" yaml:"scope,omitempty"`
	Level1              string `json:"level_1,omitempty" yaml:"level_1,omitempty"`
	Level2              string `json:"level_2,omitempty" yaml:"level_2,omitempty"`
	Level3              string `json:"level_3,omitempty" yaml:"level_3,omitempty"`
	Level4              string `json:"level_4,omitempty" yaml:"level_4,omitempty"`
	Text                string `json:"text,omitempty" yaml:"text,omitempty"`
}

// ValueAndUnit is a measured quantity.
type ValueAndUnit struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit" yaml:"unit"`
}

// Distance is a travelled distance and the mode it was travelled in.
type Distance struct {
	Mode  Mode    `json:"mode" yaml:"mode"`
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit" yaml:"unit"`
}

// FlightInfo records the passenger inputs a flight was priced with.
type FlightInfo struct {
	NumberOfPassengers int    `json:"number_of_passengers" yaml:"number_of_passengers"`
	Class              string `json:"class,omitempty" yaml:"class,omitempty"`
}

// Emissions is a priced amount and the factor behind it.
type Emissions struct {
	Amount ValueAndUnit            `json:"amount" yaml:"amount"`
	Factor *factors.EmissionsFactor `json:"factor,omitempty" yaml:"factor,omitempty"`
}

// Result is the outcome of pricing one activity.
type Result struct {
	Distance  *Distance     `json:"distance,omitempty" yaml:"distance,omitempty"`
	Weight    *ValueAndUnit `json:"weight,omitempty" yaml:"weight,omitempty"`
	Flight    *FlightInfo   `json:"flight,omitempty" yaml:"flight,omitempty"`
	Amount    *ValueAndUnit `json:"amount,omitempty" yaml:"amount,omitempty"`
	Emissions *Emissions    `json:"emissions,omitempty" yaml:"emissions,omitempty"`

	// Electricity carries the renewable split of a division-priced activity.
	Electricity *emissions.CO2Emission `json:"electricity,omitempty" yaml:"electricity,omitempty"`
}

// EmissionsKg returns the priced amount in kgCO2e, or zero.
func (r *Result) EmissionsKg() float64 {
	if r == nil || r.Emissions == nil {
		return 0
	}
	return r.Emissions.Amount.Value
}

// ProcessedActivity pairs an activity with its result or error.
// ProcessedAt is the batch start time set by Process; grouping uses it for
// activities without a from date.
type ProcessedActivity struct {
	Activity    Activity  `json:"activity" yaml:"activity"`
	Result      *Result   `json:"result,omitempty" yaml:"result,omitempty"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
	ProcessedAt time.Time `json:"processed_at,omitzero" yaml:"processed_at,omitempty"`
}

// Failed reports whether the activity could not be priced.
func (p ProcessedActivity) Failed() bool {
	return p.Error != "" || p.Result == nil
}
