package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// NationalAveragePerCapitaTon is Mexico's average footprint in tonnes CO2e
// per person per year.
const NationalAveragePerCapitaTon = 3.9

// Equivalencias translates a footprint into tangible comparisons.
type Equivalencias struct {
	ArbolesNecesarios float64 `json:"arboles_necesarios"`
	EquivalenteCoches float64 `json:"equivalente_coches"`
	EquivalenteVuelos float64 `json:"equivalente_vuelos_mex_ny"`
}

// Comparacion positions a footprint against the national per-capita average.
type Comparacion struct {
	TuHuella         float64 `json:"tu_huella"`
	PromedioNacional float64 `json:"promedio_nacional"`
	Diferencia       float64 `json:"diferencia"`
	Porcentaje       float64 `json:"porcentaje_diferencia"`
	Estado           string  `json:"estado"`
}

// Huella is the computed carbon footprint of one user: the annual total in
// tonnes CO2e plus its per-category breakdown.
type Huella struct {
	Usuario  string             `json:"usuario"`
	Fecha    time.Time          `json:"fecha"`
	TotalTon float64            `json:"total_ton_co2e"`
	Desglose map[string]float64 `json:"desglose"`
}

// Equivalencias computes the tree/car/flight equivalents of the total.
// One tree absorbs about 20 kg CO2 a year, an average car emits about 4.6
// tonnes and a Mexico City to New York flight about 0.9 tonnes.
func (h Huella) Equivalencias() Equivalencias {
	return Equivalencias{
		ArbolesNecesarios: h.TotalTon * 1000 / 20,
		EquivalenteCoches: h.TotalTon / 4.6,
		EquivalenteVuelos: h.TotalTon / 0.9,
	}
}

// CompararConPromedio compares the footprint with a per-capita average.
func (h Huella) CompararConPromedio(promedio float64) Comparacion {
	diff := h.TotalTon - promedio
	var pct float64
	if promedio > 0 {
		pct = diff / promedio * 100
	}

	estado := "igual al"
	switch {
	case diff > 0:
		estado = "por encima"
	case diff < 0:
		estado = "por debajo"
	}

	return Comparacion{
		TuHuella:         h.TotalTon,
		PromedioNacional: promedio,
		Diferencia:       diff,
		Porcentaje:       pct,
		Estado:           estado,
	}
}

// Resumen renders a human-readable summary, categories sorted by emission
// descending.
func (h Huella) Resumen() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== HUELLA DE CARBONO ===\n")
	fmt.Fprintf(&b, "Usuario: %s\n", h.Usuario)
	fmt.Fprintf(&b, "Fecha: %s\n", h.Fecha.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Total: %.3f toneladas CO2e/año\n\n", h.TotalTon)
	b.WriteString("Desglose por categoría:\n")

	type cat struct {
		name string
		ton  float64
	}
	cats := make([]cat, 0, len(h.Desglose))
	for name, ton := range h.Desglose {
		cats = append(cats, cat{name, ton})
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].ton != cats[j].ton {
			return cats[i].ton > cats[j].ton
		}
		return cats[i].name < cats[j].name
	})

	for _, c := range cats {
		var pct float64
		if h.TotalTon > 0 {
			pct = c.ton / h.TotalTon * 100
		}
		fmt.Fprintf(&b, "  • %s: %.3f ton (%.1f%%)\n", capitalize(c.name), c.ton, pct)
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Sugerencia is one practical recommendation to cut emissions, tied to the
// activity that motivated it.
type Sugerencia struct {
	Actividad  string  `json:"actividad"`
	Texto      string  `json:"recomendacion"`
	AhorroTon  float64 `json:"ahorro_ton_co2e"`
	Dificultad string  `json:"dificultad"`
	Categoria  string  `json:"categoria"`
}
