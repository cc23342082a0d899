package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecohidalgo/huella/internal/domain"
)

// fakeProvider is an in-memory rule store for engine and service tests.
type fakeProvider struct {
	rules      map[string]map[string]domain.RawRule
	loadErr    error
	saveErr    error
	persistErr error

	persistedUser  string
	persistedCount int
	saveCalls      int
}

func (f *fakeProvider) LoadRules(ctx context.Context) (map[string]map[string]domain.RawRule, error) {
	return f.rules, f.loadErr
}

func (f *fakeProvider) SaveRules(ctx context.Context, group string, rules map[string]domain.RawRule) error {
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.rules == nil {
		f.rules = make(map[string]map[string]domain.RawRule)
	}
	f.rules[group] = rules
	return nil
}

func (f *fakeProvider) PersistConclusions(ctx context.Context, userLabel string, conclusions []domain.ConclusionRecord) error {
	if f.persistErr != nil {
		return f.persistErr
	}
	f.persistedUser = userLabel
	f.persistedCount = len(conclusions)
	return nil
}

var _ domain.RuleProvider = (*fakeProvider)(nil)

func fallbackRuleSet(t *testing.T) []domain.Rule {
	t.Helper()
	rules, warnings := domain.ParseRules(FallbackRules())
	require.Empty(t, warnings)
	require.Len(t, rules, 3)
	return rules
}

func floatPtr(f float64) *float64 { return &f }

func firedNames(result RunResult) []string {
	names := make([]string, 0, len(result.Conclusions))
	for _, c := range result.Conclusions {
		names = append(names, c.RuleName)
	}
	return names
}

func TestEngineLifecycle(t *testing.T) {
	engine := NewEngine(fallbackRuleSet(t), nil, zap.NewNop())
	assert.Equal(t, StateUnseeded, engine.State())

	engine.Seed(domain.SeedInput{Perfil: "El principiante"})
	assert.Equal(t, StateSeeded, engine.State())

	engine.Run(context.Background(), 0)
	assert.Equal(t, StateDone, engine.State())
}

func TestEngineIndustrialScenario(t *testing.T) {
	engine := NewEngine(fallbackRuleSet(t), nil, zap.NewNop())
	engine.Seed(domain.SeedInput{
		Nombre:             "Juan Pérez",
		Municipio:          "Tula de Allende",
		TipoMunicipio:      "Industrial Pesado",
		NivelContaminacion: "Muy Alto",
		Perfil:             "El ecologista comprometido",
		EmisionPerCapitaKg: floatPtr(8500),
	})

	result := engine.Run(context.Background(), 0)

	// The high-emission alert (priority 10) fires before the municipal
	// context rule (priority 8); the reinforcement rule never matches
	// because per-capita emissions are not below its threshold.
	assert.Equal(t, []string{"Alerta de Emisión Alta", "Alerta de Contexto Municipal"}, firedNames(result))
	assert.Equal(t, "exhausted", result.State)
	assert.Equal(t, 3, result.Iterations)
}

func TestEngineLowImpactScenario(t *testing.T) {
	engine := NewEngine(fallbackRuleSet(t), nil, zap.NewNop())
	engine.Seed(domain.SeedInput{
		Perfil:             "El ecologista comprometido",
		EmisionPerCapitaKg: floatPtr(2000),
	})

	result := engine.Run(context.Background(), 0)

	assert.Equal(t, []string{"Refuerzo Positivo"}, firedNames(result))
}

func TestEngineEmptySeedExhaustsImmediately(t *testing.T) {
	engine := NewEngine(fallbackRuleSet(t), nil, zap.NewNop())
	engine.Seed(domain.SeedInput{})

	result := engine.Run(context.Background(), 0)

	assert.Empty(t, result.Conclusions)
	assert.Equal(t, "exhausted", result.State)
	assert.Equal(t, 1, result.Iterations)
}

func TestEnginePriorityWinsOverTraversalOrder(t *testing.T) {
	raw := map[string]map[string]domain.RawRule{
		"g": {
			"R_A": {
				Name:       "baja",
				Conditions: map[string]any{"perfil": "x"},
				Conclusion: map[string]any{"sugerencia": "a"},
				Priority:   5,
			},
			"R_B": {
				Name:       "alta",
				Conditions: map[string]any{"perfil": "x"},
				Conclusion: map[string]any{"sugerencia": "b"},
				Priority:   10,
			},
		},
	}
	rules, warnings := domain.ParseRules(raw)
	require.Empty(t, warnings)

	engine := NewEngine(rules, nil, zap.NewNop())
	engine.Seed(domain.SeedInput{Perfil: "x"})
	result := engine.Run(context.Background(), 0)

	assert.Equal(t, []string{"alta", "baja"}, firedNames(result))
}

func TestEnginePriorityTieGoesToFirstInOrder(t *testing.T) {
	raw := map[string]map[string]domain.RawRule{
		"g": {
			"R_A": {
				Name:       "primera",
				Conditions: map[string]any{"perfil": "x"},
				Conclusion: map[string]any{"sugerencia": "a"},
				Priority:   7,
			},
			"R_B": {
				Name:       "segunda",
				Conditions: map[string]any{"perfil": "x"},
				Conclusion: map[string]any{"sugerencia": "b"},
				Priority:   7,
			},
		},
	}
	rules, warnings := domain.ParseRules(raw)
	require.Empty(t, warnings)

	engine := NewEngine(rules, nil, zap.NewNop())
	engine.Seed(domain.SeedInput{Perfil: "x"})
	result := engine.Run(context.Background(), 0)

	assert.Equal(t, []string{"primera", "segunda"}, firedNames(result))
}

func TestEngineNoRuleFiresTwice(t *testing.T) {
	engine := NewEngine(fallbackRuleSet(t), nil, zap.NewNop())
	engine.Seed(domain.SeedInput{EmisionPerCapitaKg: floatPtr(8500)})

	result := engine.Run(context.Background(), 50)

	assert.Equal(t, []string{"Alerta de Emisión Alta"}, firedNames(result))
	assert.Equal(t, "exhausted", result.State)
}

func TestEngineDerivedFactChainsIntoLaterRule(t *testing.T) {
	raw := map[string]map[string]domain.RawRule{
		"g": {
			"R_BASE": {
				Name:       "base",
				Conditions: map[string]any{"perfil": "x"},
				Conclusion: map[string]any{"sugerencia": "usa transporte público"},
				Priority:   10,
			},
			"R_DERIVADA": {
				Name:       "derivada",
				Conditions: map[string]any{"sugerencia": "usa transporte público"},
				Conclusion: map[string]any{"contexto": "plan en marcha"},
				Priority:   5,
			},
		},
	}
	rules, warnings := domain.ParseRules(raw)
	require.Empty(t, warnings)

	engine := NewEngine(rules, nil, zap.NewNop())
	engine.Seed(domain.SeedInput{Perfil: "x"})
	result := engine.Run(context.Background(), 0)

	// The second rule only matches against the fact derived by the first.
	assert.Equal(t, []string{"base", "derivada"}, firedNames(result))
}

func TestEngineIterationLimit(t *testing.T) {
	raw := map[string]map[string]domain.RawRule{"g": {}}
	for _, id := range []string{"R1", "R2", "R3", "R4", "R5"} {
		raw["g"][id] = domain.RawRule{
			Name:       id,
			Conditions: map[string]any{"perfil": "x"},
			Conclusion: map[string]any{"contexto": id},
		}
	}
	rules, warnings := domain.ParseRules(raw)
	require.Empty(t, warnings)

	engine := NewEngine(rules, nil, zap.NewNop())
	engine.Seed(domain.SeedInput{Perfil: "x"})
	result := engine.Run(context.Background(), 3)

	assert.Equal(t, "done", engine.State().String())
	assert.Equal(t, "iteration_limit", result.State)
	assert.Equal(t, 3, result.Iterations)
	assert.Len(t, result.Conclusions, 3)
}

func TestEnginePersistsWithSeededName(t *testing.T) {
	provider := &fakeProvider{}
	engine := NewEngine(fallbackRuleSet(t), provider, zap.NewNop())
	engine.Seed(domain.SeedInput{
		Nombre:             "María",
		EmisionPerCapitaKg: floatPtr(8500),
	})
	engine.Run(context.Background(), 0)

	assert.Equal(t, "María", provider.persistedUser)
	assert.Equal(t, 1, provider.persistedCount)
}

func TestEnginePersistsAnonymously(t *testing.T) {
	provider := &fakeProvider{}
	engine := NewEngine(fallbackRuleSet(t), provider, zap.NewNop())
	engine.Seed(domain.SeedInput{EmisionPerCapitaKg: floatPtr(8500)})
	engine.Run(context.Background(), 0)

	assert.Equal(t, AnonymousUser, provider.persistedUser)
}

func TestEnginePersistErrorIsSwallowed(t *testing.T) {
	provider := &fakeProvider{persistErr: errors.New("conexión rechazada")}
	engine := NewEngine(fallbackRuleSet(t), provider, zap.NewNop())
	engine.Seed(domain.SeedInput{EmisionPerCapitaKg: floatPtr(8500)})

	result := engine.Run(context.Background(), 0)

	assert.Len(t, result.Conclusions, 1)
	assert.Equal(t, "exhausted", result.State)
	assert.Equal(t, StateDone, engine.State())
}

func TestEngineSkipsPersistenceWithoutConclusions(t *testing.T) {
	provider := &fakeProvider{}
	engine := NewEngine(fallbackRuleSet(t), provider, zap.NewNop())
	engine.Seed(domain.SeedInput{Nombre: "María"})
	engine.Run(context.Background(), 0)

	assert.Empty(t, provider.persistedUser)
	assert.Zero(t, provider.persistedCount)
}

func TestEngineReset(t *testing.T) {
	engine := NewEngine(fallbackRuleSet(t), nil, zap.NewNop())
	engine.Seed(domain.SeedInput{EmisionPerCapitaKg: floatPtr(8500)})
	first := engine.Run(context.Background(), 0)
	require.Len(t, first.Conclusions, 1)

	engine.Reset()
	assert.Equal(t, StateUnseeded, engine.State())
	assert.Zero(t, engine.Memory().Len())
	assert.Empty(t, engine.Conclusions())

	// A fresh seed fires the same rule again.
	engine.Seed(domain.SeedInput{EmisionPerCapitaKg: floatPtr(8500)})
	second := engine.Run(context.Background(), 0)
	assert.Len(t, second.Conclusions, 1)
}

func TestEngineActivitySeedDeduplicates(t *testing.T) {
	engine := NewEngine(nil, nil, zap.NewNop())
	engine.Seed(domain.SeedInput{
		Actividades: []domain.SeedActivity{
			{Category: "transporte", SubCategory: "auto_gasolina", Amount: 30},
			{Category: "transporte", SubCategory: "auto_diesel", Amount: 30},
		},
	})

	// Shared category and amount collapse onto single facts.
	assert.Equal(t, 4, engine.Memory().Len())
}

func TestFormattedSuggestionsLabelsAndOrder(t *testing.T) {
	raw := map[string]map[string]domain.RawRule{
		"g": {
			"R_MIXTA": {
				Name:       "mixta",
				Conditions: map[string]any{"perfil": "x"},
				Conclusion: map[string]any{
					"contexto":   "municipio industrial",
					"sugerencia": "usa transporte público",
				},
				Priority: 10,
			},
			"R_SOLO_ALERTA": {
				Name:       "alerta sola",
				Conditions: map[string]any{"perfil": "x"},
				Conclusion: map[string]any{"alerta": "emisiones altas"},
				Priority:   5,
			},
		},
	}
	rules, warnings := domain.ParseRules(raw)
	require.Empty(t, warnings)

	engine := NewEngine(rules, nil, zap.NewNop())
	engine.Seed(domain.SeedInput{Perfil: "x"})
	engine.Run(context.Background(), 0)

	lines := engine.FormattedSuggestions()
	assert.Equal(t, []string{
		"💡 usa transporte público",
		"📍 municipio industrial",
		"⚠️ emisiones altas",
	}, lines)
}
