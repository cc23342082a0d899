package domain

// Municipio is one row of the municipal emissions dataset. Emission figures
// are annual tonnes of CO2e; per-capita is kilograms.
type Municipio struct {
	Nombre             string  `json:"nombre"`
	Tipo               string  `json:"tipo"`
	Poblacion          int     `json:"poblacion"`
	NivelContaminacion string  `json:"nivel_contaminacion"`
	EmisionTransporte  float64 `json:"emision_transporte"`
	EmisionEnergia     float64 `json:"emision_energia"`
	EmisionResiduos    float64 `json:"emision_residuos"`
	EmisionIndustria   float64 `json:"emision_industria"`
	EmisionAgricultura float64 `json:"emision_agricultura"`
	EmisionPerCapita   float64 `json:"emision_per_capita"`
}

// EmissionsByCategory returns the municipality's sector totals keyed by
// category name.
func (m Municipio) EmissionsByCategory() map[string]float64 {
	return map[string]float64{
		"transporte":  m.EmisionTransporte,
		"energia":     m.EmisionEnergia,
		"residuos":    m.EmisionResiduos,
		"industria":   m.EmisionIndustria,
		"agricultura": m.EmisionAgricultura,
	}
}

// DominantCategory returns the sector with the highest annual emissions.
func (m Municipio) DominantCategory() string {
	var (
		best    string
		bestVal = -1.0
	)
	// Fixed order keeps ties deterministic.
	for _, c := range []struct {
		name string
		val  float64
	}{
		{"transporte", m.EmisionTransporte},
		{"energia", m.EmisionEnergia},
		{"residuos", m.EmisionResiduos},
		{"industria", m.EmisionIndustria},
		{"agricultura", m.EmisionAgricultura},
	} {
		if c.val > bestVal {
			best, bestVal = c.name, c.val
		}
	}
	return best
}
