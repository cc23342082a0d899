package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ecohidalgo/huella/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrNoRules      = errors.New("rule catalog is empty")
	ErrInvalidGroup = errors.New("rule group failed validation")
)

// RuleService loads and caches the production-rule catalog. The catalog is
// parsed and validated once per load; engines receive the validated slice
// and never see raw maps. When the backing store is unreachable or empty
// the built-in fallback set takes over, so an engine always has rules.
type RuleService struct {
	provider domain.RuleProvider
	logger   *zap.Logger

	mu       sync.RWMutex
	rules    []domain.Rule
	raw      map[string]map[string]domain.RawRule
	fallback bool
}

// NewRuleService creates the service and performs the initial load.
func NewRuleService(ctx context.Context, provider domain.RuleProvider, logger *zap.Logger) *RuleService {
	s := &RuleService{
		provider: provider,
		logger:   logger,
	}
	s.load(ctx)
	return s
}

// load fetches the catalog from the provider, falling back to the built-in
// set when the store errors, returns nothing, or every rule fails to parse.
func (s *RuleService) load(ctx context.Context) {
	raw, err := s.fetch(ctx)
	fallback := false
	if err != nil {
		s.logger.Warn("no se pudieron cargar reglas, usando reglas por defecto", zap.Error(err))
		raw = FallbackRules()
		fallback = true
	}

	rules, warnings := domain.ParseRules(raw)
	for _, w := range warnings {
		s.logger.Warn("regla descartada", zap.String("motivo", w))
	}
	if len(rules) == 0 {
		s.logger.Warn("catálogo sin reglas válidas, usando reglas por defecto")
		raw = FallbackRules()
		rules, _ = domain.ParseRules(raw)
		fallback = true
	}

	s.mu.Lock()
	s.rules = rules
	s.raw = raw
	s.fallback = fallback
	s.mu.Unlock()

	s.logger.Info("reglas cargadas",
		zap.Int("total", len(rules)),
		zap.Bool("fallback", fallback))
}

func (s *RuleService) fetch(ctx context.Context) (map[string]map[string]domain.RawRule, error) {
	if s.provider == nil {
		return nil, ErrNoRules
	}
	raw, err := s.provider.LoadRules(ctx)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoRules
	}
	return raw, nil
}

// Rules returns the validated catalog in (group, id) order.
func (s *RuleService) Rules() []domain.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

// Raw returns the wire-format catalog as last loaded.
func (s *RuleService) Raw() map[string]map[string]domain.RawRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw
}

// UsingFallback reports whether the catalog in use is the built-in set.
func (s *RuleService) UsingFallback() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fallback
}

// Reload refreshes the catalog from the store.
func (s *RuleService) Reload(ctx context.Context) {
	s.load(ctx)
}

// SaveGroup validates and stores a rule group, then reloads the catalog so
// subsequent sessions see the new rules.
func (s *RuleService) SaveGroup(ctx context.Context, group string, rules map[string]domain.RawRule) error {
	if group == "" || len(rules) == 0 {
		return ErrInvalidGroup
	}

	// Every rule in the group must parse on its own before it is accepted.
	parsed, warnings := domain.ParseRules(map[string]map[string]domain.RawRule{group: rules})
	if len(parsed) != len(rules) {
		return fmt.Errorf("%w: %v", ErrInvalidGroup, warnings)
	}

	if err := s.provider.SaveRules(ctx, group, rules); err != nil {
		return fmt.Errorf("save rule group: %w", err)
	}

	s.load(ctx)
	return nil
}

// NewEngine builds a session engine over the current catalog.
func (s *RuleService) NewEngine() *Engine {
	return NewEngine(s.Rules(), s.provider, s.logger)
}

// FallbackRules is the built-in minimum catalog. It exercises every
// condition shape the evaluator supports: a numeric threshold above, a
// multi-field AND on text equality, and a threshold below combined with an
// equality.
func FallbackRules() map[string]map[string]domain.RawRule {
	return map[string]map[string]domain.RawRule{
		"reglas_basicas": {
			"R_EMISION_ALTA": {
				Name:       "Alerta de Emisión Alta",
				Conditions: map[string]any{"emision_per_capita_mayor_que": 5000.0},
				Conclusion: map[string]any{"alerta": "Tu huella es significativamente alta. Es una prioridad identificar el foco."},
				Priority:   10,
			},
			"R_MUNICIPIO_INDUSTRIAL": {
				Name: "Alerta de Contexto Municipal",
				Conditions: map[string]any{
					"municipio_tipo":                "Industrial Pesado",
					"municipio_nivel_contaminacion": "Muy Alto",
				},
				Conclusion: map[string]any{"contexto": "Tu municipio tiene altos factores de riesgo ambiental. Tu huella personal es crítica."},
				Priority:   8,
			},
			"R_BAJO_IMPACTO": {
				Name: "Refuerzo Positivo",
				Conditions: map[string]any{
					"emision_per_capita_menor_que": 3000.0,
					"usuario_perfil":               "El ecologista comprometido",
				},
				Conclusion: map[string]any{"refuerzo_positivo": "¡Felicidades! Tu esfuerzo como ecologista comprometido está dando frutos."},
				Priority:   5,
			},
		},
	}
}
