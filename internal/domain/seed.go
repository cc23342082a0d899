package domain

// SeedActivity is one reported emission activity in a seed request.
type SeedActivity struct {
	Category    string  `json:"categoria"`
	SubCategory string  `json:"sub_categoria"`
	Amount      float64 `json:"cantidad"`
}

// SeedInput is the external record a session starts from. Every field is
// optional: absent fields simply contribute no facts.
type SeedInput struct {
	Nombre              string         `json:"nombre,omitempty"`
	Municipio           string         `json:"municipio,omitempty"`
	TipoMunicipio       string         `json:"tipo_municipio,omitempty"`
	NivelContaminacion  string         `json:"nivel_contaminacion,omitempty"`
	EmisionIndustriaTon *float64       `json:"emision_industria_ton,omitempty"`
	Perfil              string         `json:"perfil,omitempty"`
	EmisionPerCapitaKg  *float64       `json:"emision_per_capita_kg,omitempty"`
	Actividades         []SeedActivity `json:"actividades,omitempty"`
}

// Empty reports whether the seed carries no data at all.
func (s SeedInput) Empty() bool {
	return s.Nombre == "" && s.Municipio == "" && s.TipoMunicipio == "" &&
		s.NivelContaminacion == "" && s.EmisionIndustriaTon == nil &&
		s.Perfil == "" && s.EmisionPerCapitaKg == nil && len(s.Actividades) == 0
}
