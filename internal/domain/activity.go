package domain

// Reporting periods an activity can be tracked in.
const (
	PeriodDaily   = "diario"
	PeriodWeekly  = "semanal"
	PeriodMonthly = "mensual"
	PeriodAnnual  = "anual"
)

// annualMultiplier normalizes a per-period amount to a yearly total.
var annualMultiplier = map[string]float64{
	PeriodDaily:   365,
	PeriodWeekly:  52,
	PeriodMonthly: 12,
	PeriodAnnual:  1,
}

// Actividad is the atomic unit of reported consumption: so many km driven,
// kWh consumed or kilograms eaten over a reporting period. EmissionFactor
// overrides the catalog factor when set.
type Actividad struct {
	Categoria      string   `json:"categoria"`
	SubCategoria   string   `json:"sub_categoria"`
	Cantidad       float64  `json:"cantidad"`
	Unidad         string   `json:"unidad"`
	Periodo        string   `json:"periodo"`
	EmissionFactor *float64 `json:"factor_emision,omitempty"`
}

// Valid reports whether the activity carries enough data to be priced.
func (a Actividad) Valid() bool {
	if a.Cantidad <= 0 || a.Categoria == "" || a.SubCategoria == "" || a.Unidad == "" {
		return false
	}
	_, ok := annualMultiplier[a.Periodo]
	return ok
}

// AnnualEmission converts the activity to kg CO2e per year using the given
// factor.
func (a Actividad) AnnualEmission(factor float64) float64 {
	if a.Cantidad <= 0 {
		return 0
	}
	mult, ok := annualMultiplier[a.Periodo]
	if !ok {
		mult = 1
	}
	return a.Cantidad * factor * mult
}
