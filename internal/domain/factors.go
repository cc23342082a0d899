package domain

import (
	"encoding/json"
	"os"
	"sort"
)

// FactoresEmision is the emission-factor catalog: kg CO2e per unit, keyed
// category→subcategory. A single catalog instance backs every calculation so
// two requests can never price the same activity differently.
type FactoresEmision struct {
	factors map[string]map[string]float64
}

// NewFactoresEmision returns a catalog preloaded with the default factors,
// based on IPCC data and life-cycle studies for Mexico.
func NewFactoresEmision() *FactoresEmision {
	return &FactoresEmision{factors: defaultFactors()}
}

func defaultFactors() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"transporte": {
			"auto_gasolina":  0.192, // kg CO2e per km
			"auto_diesel":    0.171,
			"auto_electrico": 0.053,
			"autobus":        0.089,
			"metro":          0.041,
			"bicicleta":      0.0,
			"caminar":        0.0,
			"motocicleta":    0.113,
			"avion_corto":    0.255, // < 1500 km
			"avion_largo":    0.195,
		},
		"energia": {
			"electricidad_red":       0.527, // kg CO2e per kWh, red nacional
			"electricidad_renovable": 0.041,
			"gas_natural":            0.202,
			"gas_lp":                 0.227,
			"carbon":                 0.340,
		},
		"tecnologia": {
			"laptop":             0.020, // kg CO2e per hour of use
			"desktop":            0.050,
			"smartphone":         0.005,
			"tablet":             0.012,
			"television":         0.030,
			"aire_acondicionado": 0.100,
			"refrigerador":       0.015,
			"lavadora":           0.600, // per cycle
		},
		"alimentacion": {
			"carne_res":   27.0, // kg CO2e per kg of food
			"carne_cerdo": 12.1,
			"carne_pollo": 6.9,
			"pescado":     5.5,
			"lacteos":     13.3, // per liter
			"huevos":      4.8,  // per dozen
			"vegetales":   2.0,
			"frutas":      1.1,
			"cereales":    2.5,
		},
		"residuos": {
			"residuos_organicos":   0.5, // kg CO2e per kg of waste
			"residuos_inorganicos": 0.3,
			"plastico":             6.0,
			"papel_carton":         3.3,
			"vidrio":               0.8,
			"metal":                2.5,
		},
	}
}

// Factor returns the emission factor for a category/subcategory pair.
func (f *FactoresEmision) Factor(categoria, subCategoria string) (float64, bool) {
	v, ok := f.factors[categoria][subCategoria]
	return v, ok
}

// SetFactor updates or adds a factor.
func (f *FactoresEmision) SetFactor(categoria, subCategoria string, valor float64) {
	if f.factors[categoria] == nil {
		f.factors[categoria] = make(map[string]float64)
	}
	f.factors[categoria][subCategoria] = valor
}

// Categories returns all catalog categories, sorted.
func (f *FactoresEmision) Categories() []string {
	out := make([]string, 0, len(f.factors))
	for c := range f.factors {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SubCategories returns the subcategories of a category, sorted.
func (f *FactoresEmision) SubCategories(categoria string) []string {
	sub := f.factors[categoria]
	out := make([]string, 0, len(sub))
	for s := range sub {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// All returns a copy of the full catalog.
func (f *FactoresEmision) All() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(f.factors))
	for c, subs := range f.factors {
		cp := make(map[string]float64, len(subs))
		for s, v := range subs {
			cp[s] = v
		}
		out[c] = cp
	}
	return out
}

// LoadFromJSON replaces the catalog with the contents of a JSON file. A
// missing file leaves the current catalog untouched.
func (f *FactoresEmision) LoadFromJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var loaded map[string]map[string]float64
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}
	f.factors = loaded
	return nil
}
