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

func TestRuleServiceLoadsFromProvider(t *testing.T) {
	provider := &fakeProvider{rules: map[string]map[string]domain.RawRule{
		"reglas_transporte": {
			"R1": {
				Name:       "transporte alto",
				Conditions: map[string]any{"cantidad_mayor_que": 20.0, "categoria": "transporte"},
				Conclusion: map[string]any{"sugerencia": "usa transporte público"},
				Priority:   8,
			},
		},
	}}

	svc := NewRuleService(context.Background(), provider, zap.NewNop())

	require.Len(t, svc.Rules(), 1)
	assert.Equal(t, "transporte alto", svc.Rules()[0].Name)
	assert.False(t, svc.UsingFallback())
}

func TestRuleServiceFallbackOnProviderError(t *testing.T) {
	provider := &fakeProvider{loadErr: errors.New("conexión rechazada")}

	svc := NewRuleService(context.Background(), provider, zap.NewNop())

	assert.True(t, svc.UsingFallback())
	assert.Len(t, svc.Rules(), 3)
}

func TestRuleServiceFallbackOnEmptyCatalog(t *testing.T) {
	provider := &fakeProvider{rules: map[string]map[string]domain.RawRule{}}

	svc := NewRuleService(context.Background(), provider, zap.NewNop())

	assert.True(t, svc.UsingFallback())
	assert.Len(t, svc.Rules(), 3)
}

func TestRuleServiceFallbackWhenNothingParses(t *testing.T) {
	provider := &fakeProvider{rules: map[string]map[string]domain.RawRule{
		"rotas": {
			"R_SIN_CONCLUSION": {Name: "a", Conditions: map[string]any{"perfil": "x"}},
			"R_SIN_CONDICION":  {Name: "b", Conclusion: map[string]any{"alerta": "x"}},
		},
	}}

	svc := NewRuleService(context.Background(), provider, zap.NewNop())

	assert.True(t, svc.UsingFallback())
	assert.Len(t, svc.Rules(), 3)
}

func TestRuleServiceNilProviderUsesFallback(t *testing.T) {
	svc := NewRuleService(context.Background(), nil, zap.NewNop())

	assert.True(t, svc.UsingFallback())
	assert.Len(t, svc.Rules(), 3)
}

func TestRuleServiceSaveGroup(t *testing.T) {
	provider := &fakeProvider{rules: FallbackRules()}
	svc := NewRuleService(context.Background(), provider, zap.NewNop())

	group := map[string]domain.RawRule{
		"R_NUEVA": {
			Name:       "nueva",
			Conditions: map[string]any{"perfil": "El principiante"},
			Conclusion: map[string]any{"sugerencia": "empieza por el transporte"},
			Priority:   3,
		},
	}

	err := svc.SaveGroup(context.Background(), "reglas_perfil", group)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.saveCalls)

	// The catalog is reloaded and the new rule is visible.
	assert.Len(t, svc.Rules(), 4)
	assert.False(t, svc.UsingFallback())
}

func TestRuleServiceSaveGroupRejectsEmpty(t *testing.T) {
	provider := &fakeProvider{rules: FallbackRules()}
	svc := NewRuleService(context.Background(), provider, zap.NewNop())

	err := svc.SaveGroup(context.Background(), "", map[string]domain.RawRule{
		"R": {Conditions: map[string]any{"perfil": "x"}, Conclusion: map[string]any{"alerta": "a"}},
	})
	assert.ErrorIs(t, err, ErrInvalidGroup)

	err = svc.SaveGroup(context.Background(), "grupo", nil)
	assert.ErrorIs(t, err, ErrInvalidGroup)
	assert.Zero(t, provider.saveCalls)
}

func TestRuleServiceSaveGroupRejectsUnparsableRule(t *testing.T) {
	provider := &fakeProvider{rules: FallbackRules()}
	svc := NewRuleService(context.Background(), provider, zap.NewNop())

	group := map[string]domain.RawRule{
		"R_ROTA": {
			Name:       "rota",
			Conditions: map[string]any{"cantidad_mayor_que": "treinta"},
			Conclusion: map[string]any{"alerta": "a"},
		},
	}

	err := svc.SaveGroup(context.Background(), "grupo", group)
	assert.ErrorIs(t, err, ErrInvalidGroup)
	assert.Zero(t, provider.saveCalls)
	assert.Len(t, svc.Rules(), 3)
}

func TestRuleServiceSaveGroupPropagatesStoreError(t *testing.T) {
	provider := &fakeProvider{rules: FallbackRules(), saveErr: errors.New("disco lleno")}
	svc := NewRuleService(context.Background(), provider, zap.NewNop())

	group := map[string]domain.RawRule{
		"R_NUEVA": {
			Name:       "nueva",
			Conditions: map[string]any{"perfil": "x"},
			Conclusion: map[string]any{"sugerencia": "s"},
		},
	}

	err := svc.SaveGroup(context.Background(), "grupo", group)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidGroup)
}

func TestRuleServiceReload(t *testing.T) {
	provider := &fakeProvider{loadErr: errors.New("aún no disponible")}
	svc := NewRuleService(context.Background(), provider, zap.NewNop())
	require.True(t, svc.UsingFallback())

	provider.loadErr = nil
	provider.rules = map[string]map[string]domain.RawRule{
		"g": {
			"R1": {
				Name:       "real",
				Conditions: map[string]any{"perfil": "x"},
				Conclusion: map[string]any{"sugerencia": "s"},
			},
		},
	}

	svc.Reload(context.Background())
	assert.False(t, svc.UsingFallback())
	require.Len(t, svc.Rules(), 1)
	assert.Equal(t, "real", svc.Rules()[0].Name)
}

func TestRuleServiceNewEngineUsesCatalog(t *testing.T) {
	svc := NewRuleService(context.Background(), nil, zap.NewNop())

	engine := svc.NewEngine()
	engine.Seed(domain.SeedInput{EmisionPerCapitaKg: floatPtr(8500)})
	result := engine.Run(context.Background(), 0)

	assert.Equal(t, []string{"Alerta de Emisión Alta"}, firedNames(result))
}
