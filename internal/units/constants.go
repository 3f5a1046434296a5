package units

// Mass multipliers against the kilogram base.
const (
	GramsToKg      = 0.001
	KgToKg         = 1.0
	TonnesToKg     = 1000.0
	KilotonnesToKg = 1e6
	MegatonnesToKg = 1e9
	GigatonnesToKg = 1e12
	PoundsToKg     = 0.453592
	ShortTonToKg   = 907.18474
	LongTonToKg    = 1016.0469088
)

// Energy multipliers against the watt-hour base.
const (
	WhToWh  = 1.0
	KWhToWh = 1e3
	MWhToWh = 1e6
	GWhToWh = 1e9
	TWhToWh = 1e12
)

// Volume multipliers against the cubic metre base.
const (
	CubicMetreToM3 = 1.0
	CubicFootToM3  = 0.0283168
	LitreToM3      = 0.001
)

// Distance multipliers against the kilometre base.
const (
	KmToKm    = 1.0
	MileToKm  = 1.60934
	MetreToKm = 0.001
)

// Scale prefixes used by the volume aliases.
const (
	thousand = 1e3
	million  = 1e6
	billion  = 1e9
)
