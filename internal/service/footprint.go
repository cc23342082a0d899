package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ecohidalgo/huella/internal/domain"
	"go.uber.org/zap"
)

var ErrFactorNotFound = errors.New("emission factor not found")

// estimatedSavingRate is the reduction assumed when suggesting a change to
// an activity.
const estimatedSavingRate = 0.25

// FootprintService converts reported activities into an annual carbon
// footprint using the shared emission-factor catalog.
type FootprintService struct {
	factors *domain.FactoresEmision
	logger  *zap.Logger
}

// NewFootprintService creates a footprint calculator over a factor catalog.
func NewFootprintService(factors *domain.FactoresEmision, logger *zap.Logger) *FootprintService {
	return &FootprintService{factors: factors, logger: logger}
}

// Factors exposes the catalog backing this calculator.
func (s *FootprintService) Factors() *domain.FactoresEmision {
	return s.factors
}

// EmissionFor prices one activity in kg CO2e per year. An activity with its
// own factor skips the catalog.
func (s *FootprintService) EmissionFor(act domain.Actividad) (float64, error) {
	if act.Cantidad <= 0 {
		return 0, nil
	}

	factor := 0.0
	if act.EmissionFactor != nil {
		factor = *act.EmissionFactor
	} else {
		f, ok := s.factors.Factor(act.Categoria, act.SubCategoria)
		if !ok {
			return 0, fmt.Errorf("%w: %s/%s", ErrFactorNotFound, act.Categoria, act.SubCategoria)
		}
		factor = f
	}

	return act.AnnualEmission(factor), nil
}

// Calculate computes the full footprint for a user's activity list. Invalid
// activities are skipped; activities with no known factor are skipped with a
// warning rather than failing the whole calculation.
func (s *FootprintService) Calculate(usuario string, activities []domain.Actividad) *domain.Huella {
	totalKg := 0.0
	byCategory := make(map[string]float64)

	for _, act := range activities {
		if !act.Valid() {
			continue
		}
		kg, err := s.EmissionFor(act)
		if err != nil {
			s.logger.Warn("actividad sin factor de emisión",
				zap.String("categoria", act.Categoria),
				zap.String("sub_categoria", act.SubCategoria))
			continue
		}
		totalKg += kg
		byCategory[act.Categoria] += kg / 1000.0
	}

	return &domain.Huella{
		Usuario:  usuario,
		Fecha:    time.Now(),
		TotalTon: totalKg / 1000.0,
		Desglose: byCategory,
	}
}

// suggestion knowledge base: category → subcategory → perfil → text.
var suggestionTexts = map[string]map[string]map[string]string{
	"transporte": {
		"auto_gasolina": {
			"El principiante":            "Intenta usar transporte público o bicicleta 2 días a la semana",
			"El ecologista comprometido": "Considera cambiar a un vehículo eléctrico o implementar carpool",
			"La familia consciente":      "Organiza carpools con otras familias para reducir viajes",
		},
		"auto_diesel": {
			"El principiante":            "Mantén tu auto en buen estado para optimizar consumo",
			"El ecologista comprometido": "Planifica rutas eficientes y considera vehículo híbrido",
			"La familia consciente":      "Combina múltiples actividades en un solo viaje",
		},
	},
	"energia": {
		"electricidad_red": {
			"El principiante":            "Cambia a focos LED y desconecta aparatos en stand-by",
			"El ecologista comprometido": "Instala paneles solares y optimiza aislamiento térmico",
			"La familia consciente":      "Establece horarios familiares para apagar dispositivos",
		},
	},
	"tecnologia": {
		"laptop": {
			"El principiante":            "Activa modo de ahorro de energía",
			"El ecologista comprometido": "Apaga completamente cuando no uses por >1 hora",
			"La familia consciente":      "Limita tiempo de pantalla familiar a 2 horas/día",
		},
	},
}

// ImpactSuggestions ranks the user's activities by annual emission and
// returns a recommendation for each of the top n, tailored to the perfil.
func (s *FootprintService) ImpactSuggestions(activities []domain.Actividad, perfil string, topN int) []domain.Sugerencia {
	type ranked struct {
		act domain.Actividad
		kg  float64
	}

	var priced []ranked
	for _, act := range activities {
		if !act.Valid() {
			continue
		}
		kg, err := s.EmissionFor(act)
		if err != nil {
			continue
		}
		priced = append(priced, ranked{act, kg})
	}

	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].kg > priced[j].kg
	})
	if topN > 0 && len(priced) > topN {
		priced = priced[:topN]
	}

	out := make([]domain.Sugerencia, 0, len(priced))
	for _, r := range priced {
		texto := suggestionTexts[r.act.Categoria][r.act.SubCategoria][perfil]
		if texto == "" {
			texto = fmt.Sprintf("Reduce el uso de %s", r.act.SubCategoria)
		}

		dificultad := "media"
		if perfil == "El principiante" {
			dificultad = "baja"
		}

		out = append(out, domain.Sugerencia{
			Actividad:  fmt.Sprintf("%s/%s", r.act.Categoria, r.act.SubCategoria),
			Texto:      texto,
			AhorroTon:  r.kg * estimatedSavingRate / 1000.0,
			Dificultad: dificultad,
			Categoria:  r.act.Categoria,
		})
	}
	return out
}
