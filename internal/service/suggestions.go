package service

import (
	"context"
	"errors"

	"github.com/ecohidalgo/huella/internal/domain"
	"github.com/ecohidalgo/huella/internal/store"
	"go.uber.org/zap"
)

// SuggestionResult is the full output of one recommendation session.
type SuggestionResult struct {
	Sugerencias  []string                  `json:"sugerencias"`
	Conclusiones []domain.ConclusionRecord `json:"conclusiones"`
	Estado       string                    `json:"estado"`
	Iteraciones  int                       `json:"iteraciones"`
	Clasicas     bool                      `json:"fallback_clasico"`
}

// SuggestionService runs the inference engine over a user's data and falls
// back to the classic rule-of-thumb generator when inference yields nothing.
type SuggestionService struct {
	rules         *RuleService
	municipios    domain.MunicipioStore
	logger        *zap.Logger
	maxIterations int
}

// NewSuggestionService wires the recommendation pipeline.
func NewSuggestionService(rules *RuleService, municipios domain.MunicipioStore, maxIterations int, logger *zap.Logger) *SuggestionService {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &SuggestionService{
		rules:         rules,
		municipios:    municipios,
		logger:        logger,
		maxIterations: maxIterations,
	}
}

// Generate seeds a fresh engine from the input, runs inference and formats
// the conclusions. When the engine concludes nothing, classic suggestions
// take over so the caller never receives an empty answer for a known
// municipality.
func (s *SuggestionService) Generate(ctx context.Context, input domain.SeedInput) SuggestionResult {
	engine := s.rules.NewEngine()
	engine.Seed(input)

	run := engine.Run(ctx, s.maxIterations)
	lines := engine.FormattedSuggestions()

	result := SuggestionResult{
		Sugerencias:  lines,
		Conclusiones: run.Conclusions,
		Estado:       run.State,
		Iteraciones:  run.Iterations,
	}

	if len(lines) == 0 {
		result.Sugerencias = s.classic(ctx, input)
		result.Clasicas = len(result.Sugerencias) > 0
	}
	return result
}

// classic is the rule-of-thumb generator: pick the municipality's dominant
// emission sector and suggest by perfil.
func (s *SuggestionService) classic(ctx context.Context, input domain.SeedInput) []string {
	if input.Municipio == "" || s.municipios == nil {
		return nil
	}

	m, err := s.municipios.GetByName(ctx, input.Municipio)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("no se pudo consultar el municipio",
				zap.String("municipio", input.Municipio),
				zap.Error(err))
		}
		return nil
	}

	return ClassicSuggestions(*m, input.Perfil)
}

// ClassicSuggestions maps a municipality's dominant emission sector and a
// user perfil onto fixed recommendations. Sectors without entries yield
// nothing.
func ClassicSuggestions(m domain.Municipio, perfil string) []string {
	switch m.DominantCategory() {
	case "transporte":
		switch perfil {
		case "El principiante":
			return []string{
				"🚲 Intenta usar bicicleta o caminar para distancias cortas",
				"🚌 Usa transporte público al menos 2 días a la semana",
			}
		case "El ecologista comprometido":
			return []string{
				"🚗 Considera cambiar a un vehículo eléctrico o híbrido",
				"🚴 Implementa un plan de movilidad sostenible",
			}
		default:
			return []string{"👨‍👩‍👧 Organiza carpools con otras familias"}
		}
	case "energia":
		switch perfil {
		case "El principiante":
			return []string{
				"💡 Cambia a focos LED en toda la casa",
				"❄️ Ajusta el termostato del AC 2°C más alto",
			}
		case "El ecologista comprometido":
			return []string{
				"☀️ Instala paneles solares",
				"🔌 Implementa sistema de monitoreo energético",
			}
		default:
			return []string{"👨‍👩‍👧‍👦 Establece horarios familiares para apagar dispositivos"}
		}
	}
	return nil
}
