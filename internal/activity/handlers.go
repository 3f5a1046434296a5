package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rshade/carbonledger/internal/emissions"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/units"
)

// ThermToCubicMetres converts natural gas therms into cubic metres.
const ThermToCubicMetres = 2.83

// Classification levels used by the built-in resolution paths.
const (
	LevelEGRID         = "eGRID EMISSIONS FACTORS"
	LevelEEA           = "EEA EMISSIONS FACTORS"
	LevelUSA           = "USA"
	LevelFuels         = "FUELS"
	LevelGaseousFuels  = "GASEOUS FUELS"
	LevelNaturalGas    = "NATURAL GAS"
	LevelCountryPrefix = "COUNTRY: "
	LevelStatePrefix   = "STATE: "

	// eGRID factors are per MWh.
	electricityFactorUOM = "mwh"
	defaultUsageUOM      = "kwh"
)

// Activity factor lookup kinds and defaults.
const (
	LookupCarrier      = "carrier"
	LookupFlight       = "flight"
	DefaultFlightClass = "economy"
)

// ProcessActivity prices one activity.
func (p *Processor) ProcessActivity(ctx context.Context, a Activity) (*Result, error) {
	if strings.TrimSpace(a.ID) == "" {
		return nil, fmt.Errorf("activity must have an id: %w", ErrMissingField)
	}
	if p.deps.Factors == nil {
		return nil, fmt.Errorf("%w: no factor resolver configured", factors.ErrStoreUnavailable)
	}

	switch NormalizeType(a.Type) {
	case TypeShipment:
		return p.processShipment(ctx, a)
	case TypeFlight:
		return p.processFlight(ctx, a)
	case TypeEmissionsFactor:
		return p.processEmissionsFactor(ctx, a)
	case TypeNaturalGas:
		return p.processNaturalGas(ctx, a)
	case TypeElectricity:
		return p.processElectricity(ctx, a)
	case TypeOther:
		return &Result{Emissions: &Emissions{Amount: ValueAndUnit{Value: 0, Unit: emissions.KgCO2e}}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivityType, a.Type)
	}
}

func (p *Processor) processShipment(ctx context.Context, a Activity) (*Result, error) {
	if a.Mode == "" {
		return nil, fmt.Errorf("%w: shipment mode is required", ErrMissingField)
	}
	if a.Weight == nil || a.WeightUOM == "" {
		return nil, fmt.Errorf("%w: shipment weight and weight_uom are required", ErrMissingField)
	}
	weightKg, err := units.Convert(*a.Weight, a.WeightUOM, "kg")
	if err != nil {
		return nil, fmt.Errorf("shipment weight: %w", err)
	}
	dist, err := p.travelDistance(ctx, a, Mode(strings.ToLower(string(a.Mode))))
	if err != nil {
		return nil, err
	}
	year, err := Year(a.ThruDate)
	if err != nil {
		return nil, fmt.Errorf("thru_date: %w", err)
	}

	f, err := p.lookupFactor(ctx, LookupCarrier, string(dist.Mode), year)
	if err != nil {
		return nil, err
	}
	em, err := emissions.ComputeFreightEmission(weightKg, dist.Value, f)
	if err != nil {
		return nil, err
	}
	return &Result{
		Distance:  &dist,
		Weight:    &ValueAndUnit{Value: weightKg, Unit: "kg"},
		Emissions: &Emissions{Amount: ValueAndUnit{Value: em.Value, Unit: em.UOM}, Factor: &f},
	}, nil
}

func (p *Processor) processFlight(ctx context.Context, a Activity) (*Result, error) {
	passengers := a.NumberOfPassengers
	if passengers <= 0 {
		passengers = 1
	}
	class := strings.ToLower(strings.TrimSpace(a.Class))
	if class == "" {
		class = DefaultFlightClass
	}
	dist, err := p.travelDistance(ctx, a, ModeAir)
	if err != nil {
		return nil, err
	}
	year, err := Year(a.ThruDate)
	if err != nil {
		return nil, fmt.Errorf("thru_date: %w", err)
	}

	f, err := p.lookupFactor(ctx, LookupFlight, class, year)
	if err != nil {
		return nil, err
	}
	em, err := emissions.ComputeFlightEmission(passengers, dist.Value, f)
	if err != nil {
		return nil, err
	}
	return &Result{
		Distance:  &dist,
		Flight:    &FlightInfo{NumberOfPassengers: passengers, Class: class},
		Emissions: &Emissions{Amount: ValueAndUnit{Value: em.Value, Unit: em.UOM}, Factor: &f},
	}, nil
}

// travelDistance uses the activity's own distance when given, else the
// great-circle distance between the geocoded endpoints.
func (p *Processor) travelDistance(ctx context.Context, a Activity, mode Mode) (Distance, error) {
	if a.Distance != nil {
		uom := a.DistanceUOM
		if uom == "" {
			uom = "km"
		}
		km, err := units.Convert(*a.Distance, uom, "km")
		if err != nil {
			return Distance{}, fmt.Errorf("distance: %w", err)
		}
		return Distance{Mode: mode, Value: km, Unit: "km"}, nil
	}
	if a.From.IsZero() || a.To.IsZero() {
		return Distance{}, fmt.Errorf("%w: from and to addresses are required", ErrMissingField)
	}
	geo := p.deps.Geocoder
	if geo == nil {
		geo = NewStaticGeocoder(nil)
	}
	from, err := geo.Geocode(ctx, a.From)
	if err != nil {
		return Distance{}, fmt.Errorf("from address: %w", err)
	}
	to, err := geo.Geocode(ctx, a.To)
	if err != nil {
		return Distance{}, fmt.Errorf("to address: %w", err)
	}
	return Distance{Mode: mode, Value: Haversine(from, to), Unit: "km"}, nil
}

// lookupFactor maps (kind, class) through the activity factor lookup table
// and resolves the factor for year.
func (p *Processor) lookupFactor(ctx context.Context, kind, class string, year int) (factors.EmissionsFactor, error) {
	if p.deps.Lookups == nil {
		return factors.EmissionsFactor{}, fmt.Errorf("%w: no activity factor lookups configured", factors.ErrNoFactorFound)
	}
	lookup, err := p.deps.Lookups.GetActivityFactorLookup(ctx, kind, class)
	if err != nil {
		return factors.EmissionsFactor{}, fmt.Errorf("looking up %s %q: %w", kind, class, err)
	}
	if lookup == nil {
		return factors.EmissionsFactor{}, fmt.Errorf("%w: %s %q not supported", factors.ErrNoFactorFound, kind, class)
	}
	q := lookup.Query()
	q.Year = year
	return p.deps.Factors.Factor(ctx, q)
}

func (p *Processor) processEmissionsFactor(ctx context.Context, a Activity) (*Result, error) {
	var (
		f   factors.EmissionsFactor
		err error
	)
	if a.EmissionsFactorUUID != "" {
		f, err = p.deps.Factors.FactorByUUID(ctx, a.EmissionsFactorUUID)
	} else {
		q := factors.ScopeQuery{
			Scope:  a.Scope,
			Level1: a.Level1,
			Level2: a.Level2,
			Level3: a.Level3,
			Level4: a.Level4,
			Text:   a.Text,
		}
		f, err = p.factorForPeriod(ctx, a, q)
	}
	if err != nil {
		return nil, err
	}
	return priceWithFactor(f, a)
}

// factorForPeriod resolves q for the activity's period: the years of
// from_date..thru_date when a thru date is given, else any year.
func (p *Processor) factorForPeriod(ctx context.Context, a Activity, q factors.ScopeQuery) (factors.EmissionsFactor, error) {
	thru, err := Year(a.ThruDate)
	if err != nil {
		return factors.EmissionsFactor{}, fmt.Errorf("thru_date: %w", err)
	}
	if thru != 0 {
		from, err := Year(a.FromDate)
		if err != nil {
			return factors.EmissionsFactor{}, fmt.Errorf("from_date: %w", err)
		}
		if from == 0 || from > thru {
			from = thru
		}
		q.FromYear, q.ThruYear = from, thru
	}
	return p.deps.Factors.Factor(ctx, q)
}

func priceWithFactor(f factors.EmissionsFactor, a Activity) (*Result, error) {
	ae, err := emissions.ComputeActivityEmission(f, emissions.ActivityInput{
		Amount:      a.ActivityAmount,
		AmountUOM:   a.ActivityUOM,
		Weight:      a.Weight,
		WeightUOM:   a.WeightUOM,
		Distance:    a.Distance,
		DistanceUOM: a.DistanceUOM,
		Passengers:  a.NumberOfPassengers,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Emissions: &Emissions{Amount: ValueAndUnit{Value: ae.Emission.Value, Unit: ae.Emission.UOM}, Factor: &f},
	}
	if ae.Amount != nil {
		res.Amount = &ValueAndUnit{Value: ae.Amount.Value, Unit: ae.Amount.UOM}
	}
	if ae.WeightKg != nil {
		res.Weight = &ValueAndUnit{Value: *ae.WeightKg, Unit: "kg"}
	}
	if ae.Passengers > 0 {
		res.Flight = &FlightInfo{NumberOfPassengers: ae.Passengers, Class: a.Class}
	}
	if ae.DistanceKm != nil {
		mode := ModeFromFactor(f.Levels())
		if ae.Passengers > 0 {
			mode = ModeAir
		}
		res.Distance = &Distance{Mode: mode, Value: *ae.DistanceKm, Unit: "km"}
	}
	return res, nil
}

func (p *Processor) processNaturalGas(ctx context.Context, a Activity) (*Result, error) {
	if a.ActivityAmount == nil {
		return nil, fmt.Errorf("%w: natural gas activity_amount is required", ErrMissingField)
	}
	switch strings.ToLower(strings.TrimSpace(a.ActivityUOM)) {
	case "", "therm", "therms":
	default:
		return nil, fmt.Errorf("%w: natural gas amounts are in therms, got %q", units.ErrUnknownUOM, a.ActivityUOM)
	}
	m3 := *a.ActivityAmount * ThermToCubicMetres
	a.ActivityAmount = &m3
	a.ActivityUOM = "cubic metres"

	q := factors.ScopeQuery{Level1: LevelFuels, Level2: LevelGaseousFuels, Level3: LevelNaturalGas}
	f, err := p.factorForPeriod(ctx, a, q)
	if err != nil {
		return nil, err
	}
	return priceWithFactor(f, a)
}

// isUS reports whether an electricity activity is priced with US data.
// An empty country is treated as the United States.
func isUS(country string) bool {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "", "UNITED STATES", "USA", "US":
		return true
	default:
		return false
	}
}

func (p *Processor) processElectricity(ctx context.Context, a Activity) (*Result, error) {
	if a.ActivityAmount == nil {
		return nil, fmt.Errorf("%w: electricity activity_amount is required", ErrMissingField)
	}
	if a.ActivityUOM == "" {
		a.ActivityUOM = defaultUsageUOM
	}

	if !isUS(a.Country) {
		country := strings.TrimSpace(a.Country)
		q := factors.ScopeQuery{Level1: LevelEEA, Level2: country, Level3: LevelCountryPrefix + country}
		f, err := p.factorForPeriod(ctx, a, q)
		if err != nil {
			return nil, err
		}
		return priceWithFactor(f, a)
	}

	if strings.TrimSpace(a.Utility) == "" {
		return nil, fmt.Errorf("%w: utility is required for US electricity", ErrMissingField)
	}
	if p.deps.Utilities == nil {
		return nil, fmt.Errorf("%w: no utility lookups configured", factors.ErrUtilityNotFound)
	}
	div, item, err := factors.LookupDivision(ctx, p.deps.Utilities, a.Utility)
	if err != nil {
		return nil, err
	}

	if p.strategy == StrategyDivision {
		return p.priceByDivision(ctx, a, div)
	}

	state := strings.TrimSpace(item.StateProvince)
	if state == "" {
		state = strings.TrimSpace(a.State)
	}
	q := factors.ScopeQuery{Level1: LevelEGRID, Level2: LevelUSA, ActivityUOM: electricityFactorUOM}
	q.Level3 = LevelCountryPrefix + LevelUSA
	if state != "" {
		q.Level3 = LevelStatePrefix + state
	}

	f, err := p.factorForPeriod(ctx, a, q)
	if errors.Is(err, factors.ErrNoFactorFound) && state != "" {
		q.Level3 = LevelCountryPrefix + LevelUSA
		f, err = p.factorForPeriod(ctx, a, q)
	}
	if err != nil {
		return nil, err
	}
	return priceWithFactor(f, a)
}

func (p *Processor) priceByDivision(ctx context.Context, a Activity, div factors.Division) (*Result, error) {
	year, err := Year(a.ThruDate)
	if err != nil {
		return nil, fmt.Errorf("thru_date: %w", err)
	}
	if year == 0 {
		if year, err = Year(a.FromDate); err != nil {
			return nil, fmt.Errorf("from_date: %w", err)
		}
	}
	f, err := p.deps.Factors.FactorByDivision(ctx, div.ID, div.Type, year)
	if err != nil {
		return nil, err
	}
	co2, err := emissions.ComputeEmission(f, *a.ActivityAmount, a.ActivityUOM, emissions.WithTargetUOM("kg"))
	if err != nil {
		return nil, err
	}
	return &Result{
		Amount:      &ValueAndUnit{Value: *a.ActivityAmount, Unit: a.ActivityUOM},
		Emissions:   &Emissions{Amount: ValueAndUnit{Value: co2.Emission.Value, Unit: emissions.KgCO2e}, Factor: &f},
		Electricity: &co2,
	}, nil
}
