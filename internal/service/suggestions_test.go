package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecohidalgo/huella/internal/domain"
	"github.com/ecohidalgo/huella/internal/store"
)

// fakeMunicipioStore serves a fixed set of municipalities from memory.
type fakeMunicipioStore struct {
	municipios map[string]domain.Municipio
	err        error
}

func (f *fakeMunicipioStore) GetByName(ctx context.Context, nombre string) (*domain.Municipio, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.municipios[nombre]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (f *fakeMunicipioStore) List(ctx context.Context) ([]domain.Municipio, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Municipio, 0, len(f.municipios))
	for _, m := range f.municipios {
		out = append(out, m)
	}
	return out, nil
}

var _ domain.MunicipioStore = (*fakeMunicipioStore)(nil)

func newTestSuggestionService(municipios domain.MunicipioStore) *SuggestionService {
	rules := NewRuleService(context.Background(), nil, zap.NewNop())
	return NewSuggestionService(rules, municipios, 0, zap.NewNop())
}

func TestGenerateRunsInference(t *testing.T) {
	svc := newTestSuggestionService(nil)

	result := svc.Generate(context.Background(), domain.SeedInput{
		TipoMunicipio:      "Industrial Pesado",
		NivelContaminacion: "Muy Alto",
		EmisionPerCapitaKg: floatPtr(8500),
	})

	require.Len(t, result.Conclusiones, 2)
	assert.Equal(t, []string{
		"⚠️ Tu huella es significativamente alta. Es una prioridad identificar el foco.",
		"📍 Tu municipio tiene altos factores de riesgo ambiental. Tu huella personal es crítica.",
	}, result.Sugerencias)
	assert.Equal(t, "exhausted", result.Estado)
	assert.False(t, result.Clasicas)
}

func TestGenerateFallsBackToClassic(t *testing.T) {
	municipios := &fakeMunicipioStore{municipios: map[string]domain.Municipio{
		"Pachuca de Soto": {
			Nombre:            "Pachuca de Soto",
			Tipo:              "Urbano",
			EmisionTransporte: 95000,
			EmisionEnergia:    70000,
		},
	}}
	svc := newTestSuggestionService(municipios)

	// Nothing in this seed matches a rule, so the classic generator answers.
	result := svc.Generate(context.Background(), domain.SeedInput{
		Municipio: "Pachuca de Soto",
		Perfil:    "El principiante",
	})

	assert.Empty(t, result.Conclusiones)
	assert.True(t, result.Clasicas)
	assert.Equal(t, []string{
		"🚲 Intenta usar bicicleta o caminar para distancias cortas",
		"🚌 Usa transporte público al menos 2 días a la semana",
	}, result.Sugerencias)
}

func TestGenerateUnknownMunicipio(t *testing.T) {
	municipios := &fakeMunicipioStore{municipios: map[string]domain.Municipio{}}
	svc := newTestSuggestionService(municipios)

	result := svc.Generate(context.Background(), domain.SeedInput{
		Municipio: "Villa Inexistente",
		Perfil:    "El principiante",
	})

	assert.Empty(t, result.Sugerencias)
	assert.False(t, result.Clasicas)
}

func TestGenerateStoreErrorYieldsEmpty(t *testing.T) {
	municipios := &fakeMunicipioStore{err: errors.New("conexión rechazada")}
	svc := newTestSuggestionService(municipios)

	result := svc.Generate(context.Background(), domain.SeedInput{
		Municipio: "Pachuca de Soto",
	})

	assert.Empty(t, result.Sugerencias)
	assert.False(t, result.Clasicas)
}

func TestGenerateWithoutMunicipioStore(t *testing.T) {
	svc := newTestSuggestionService(nil)

	result := svc.Generate(context.Background(), domain.SeedInput{
		Municipio: "Pachuca de Soto",
	})

	assert.Empty(t, result.Sugerencias)
	assert.False(t, result.Clasicas)
}

func TestClassicSuggestionsBySector(t *testing.T) {
	transporte := domain.Municipio{EmisionTransporte: 100, EmisionEnergia: 50}
	energia := domain.Municipio{EmisionTransporte: 50, EmisionEnergia: 100}
	industria := domain.Municipio{EmisionIndustria: 100}

	assert.Len(t, ClassicSuggestions(transporte, "El principiante"), 2)
	assert.Len(t, ClassicSuggestions(transporte, "El ecologista comprometido"), 2)
	assert.Len(t, ClassicSuggestions(transporte, "La familia consciente"), 1)

	assert.Equal(t, []string{
		"☀️ Instala paneles solares",
		"🔌 Implementa sistema de monitoreo energético",
	}, ClassicSuggestions(energia, "El ecologista comprometido"))

	// Sectors without a recommendation table yield nothing.
	assert.Empty(t, ClassicSuggestions(industria, "El principiante"))
}
