package service

import (
	"context"
	"fmt"

	"github.com/ecohidalgo/huella/internal/domain"
	"go.uber.org/zap"
)

// DefaultMaxIterations bounds the inference loop when the caller does not
// set a cap of its own.
const DefaultMaxIterations = 10

// AnonymousUser labels persisted conclusions when the seed carried no name.
const AnonymousUser = "Anónimo"

// EngineState tracks where a session is in its lifecycle.
type EngineState int

const (
	StateUnseeded EngineState = iota
	StateSeeded
	StateRunning
	StateExhausted
	StateIterationLimit
	StateDone
)

func (s EngineState) String() string {
	switch s {
	case StateUnseeded:
		return "unseeded"
	case StateSeeded:
		return "seeded"
	case StateRunning:
		return "running"
	case StateExhausted:
		return "exhausted"
	case StateIterationLimit:
		return "iteration_limit"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// RunResult is what one inference run hands back to the caller: the ordered
// conclusion log, the terminal state and the number of cycles spent.
type RunResult struct {
	Conclusions []domain.ConclusionRecord `json:"conclusiones"`
	State       string                    `json:"estado"`
	Iterations  int                       `json:"iteraciones"`
}

// Engine runs forward chaining over a working memory: seed facts, then
// repeat match-resolve-execute until no unfired rule matches or the
// iteration cap is hit. One engine serves one session; it is not safe for
// concurrent use, and reuse without Reset carries over facts and fired rule
// ids on purpose.
type Engine struct {
	rules       []domain.Rule
	provider    domain.RuleProvider
	memory      *domain.WorkingMemory
	conclusions []domain.ConclusionRecord
	fired       map[string]struct{}
	state       EngineState
	logger      *zap.Logger
}

// NewEngine creates an engine over an already-loaded rule slice. The
// provider is only used to persist conclusions; passing nil disables
// persistence.
func NewEngine(rules []domain.Rule, provider domain.RuleProvider, logger *zap.Logger) *Engine {
	return &Engine{
		rules:    rules,
		provider: provider,
		memory:   domain.NewWorkingMemory(),
		fired:    make(map[string]struct{}),
		state:    StateUnseeded,
		logger:   logger,
	}
}

// Memory exposes the engine's working memory, mainly for callers that want
// to report the seeded facts back to the user.
func (e *Engine) Memory() *domain.WorkingMemory {
	return e.memory
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() EngineState {
	return e.state
}

// Conclusions returns the conclusion log accumulated so far.
func (e *Engine) Conclusions() []domain.ConclusionRecord {
	return e.conclusions
}

// Seed translates a user/municipality record into working-memory facts.
// Every field stands alone: an absent field contributes nothing and blocks
// nothing. Each activity contributes a triad of facts, so two activities
// sharing a category collapse onto the same category fact.
func (e *Engine) Seed(input domain.SeedInput) {
	if input.Nombre != "" {
		e.memory.Add(domain.NewFact(domain.FactTypeUsuario, "nombre", domain.Text(input.Nombre)))
	}
	if input.Municipio != "" {
		e.memory.Add(domain.NewFact(domain.FactTypeMunicipio, "nombre", domain.Text(input.Municipio)))
	}
	if input.TipoMunicipio != "" {
		e.memory.Add(domain.NewFact(domain.FactTypeMunicipio, "tipo", domain.Text(input.TipoMunicipio)))
	}
	if input.NivelContaminacion != "" {
		e.memory.Add(domain.NewFact(domain.FactTypeMunicipio, "nivel_contaminacion", domain.Text(input.NivelContaminacion)))
	}
	if input.EmisionIndustriaTon != nil {
		e.memory.Add(domain.NewFact(domain.FactTypeMunicipio, "emision_industria", domain.Number(*input.EmisionIndustriaTon)))
	}
	if input.Perfil != "" {
		e.memory.Add(domain.NewFact(domain.FactTypeUsuario, "perfil", domain.Text(input.Perfil)))
	}
	if input.EmisionPerCapitaKg != nil {
		e.memory.Add(domain.NewFact(domain.FactTypeEmision, "per_capita", domain.Number(*input.EmisionPerCapitaKg)))
	}
	for _, act := range input.Actividades {
		e.memory.Add(domain.NewFact(domain.FactTypeActividad, "categoria", domain.Text(act.Category)))
		e.memory.Add(domain.NewFact(domain.FactTypeActividad, "sub_categoria", domain.Text(act.SubCategory)))
		e.memory.Add(domain.NewFact(domain.FactTypeActividad, "cantidad", domain.Number(act.Amount)))
	}

	e.state = StateSeeded
	e.logger.Debug("hechos inicializados", zap.Int("hechos", e.memory.Len()))
}

// Run executes the match-resolve-execute cycle until exhaustion or the
// iteration cap. The cap is a bounded-effort cutoff, not an error: derived
// facts can re-satisfy not-yet-fired rules indefinitely, and the cap
// guarantees termination regardless of rule-set cycles. Already-collected
// conclusions are valid either way.
func (e *Engine) Run(ctx context.Context, maxIterations int) RunResult {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	e.state = StateRunning
	iteration := 0

	for iteration < maxIterations {
		iteration++

		// MATCH: every unfired rule whose conditions hold.
		idx := buildFactIndex(e.memory.Facts())
		var applicable []domain.Rule
		for _, rule := range e.rules {
			if _, done := e.fired[rule.ID]; done {
				continue
			}
			if evaluate(rule.Conditions, idx) {
				applicable = append(applicable, rule)
			}
		}

		if len(applicable) == 0 {
			e.state = StateExhausted
			break
		}

		// RESOLVE: highest priority wins; ties go to the rule encountered
		// first in the (group, id) traversal order.
		selected := applicable[0]
		for _, rule := range applicable[1:] {
			if rule.Priority > selected.Priority {
				selected = rule
			}
		}

		e.logger.Debug("regla seleccionada",
			zap.String("regla", selected.Name),
			zap.Int("prioridad", selected.Priority),
			zap.Int("iteracion", iteration))

		// EXECUTE: log the conclusion, mark the rule fired, derive facts.
		e.execute(selected)
	}

	if e.state == StateRunning {
		e.state = StateIterationLimit
		e.logger.Debug("límite de iteraciones alcanzado", zap.Int("max", maxIterations))
	}

	e.persist(ctx)
	e.state = StateDone

	return RunResult{
		Conclusions: e.conclusions,
		State:       e.state.String(),
		Iterations:  iteration,
	}
}

func (e *Engine) execute(rule domain.Rule) {
	e.conclusions = append(e.conclusions, domain.ConclusionRecord{
		RuleName:   rule.Name,
		Conclusion: rule.Conclusion,
		Priority:   rule.Priority,
	})
	e.fired[rule.ID] = struct{}{}

	// Only sugerencia and alerta conclusions feed back into working memory;
	// other conclusion keys live in the log alone.
	if v, ok := rule.Conclusion[domain.ConclusionSuggestion]; ok {
		e.memory.Add(domain.NewFact(domain.FactTypeInferencia, domain.ConclusionSuggestion, domain.ValueOf(v)))
	}
	if v, ok := rule.Conclusion[domain.ConclusionAlert]; ok {
		e.memory.Add(domain.NewFact(domain.FactTypeInferencia, domain.ConclusionAlert, domain.ValueOf(v)))
	}
}

// persist writes the conclusion log to the backing store. Best effort: a
// store failure is logged and swallowed, never surfaced to the caller.
func (e *Engine) persist(ctx context.Context) {
	if e.provider == nil || len(e.conclusions) == 0 {
		return
	}

	label := AnonymousUser
	if v, ok := e.memory.ValueOf(domain.FactTypeUsuario, "nombre"); ok {
		label = v.String()
	}

	if err := e.provider.PersistConclusions(ctx, label, e.conclusions); err != nil {
		e.logger.Warn("no se pudieron guardar las conclusiones",
			zap.String("usuario", label),
			zap.Error(err))
	}
}

// Reset clears working memory, the conclusion log and the fired-set so the
// engine can serve a fresh session. Rules stay loaded.
func (e *Engine) Reset() {
	e.memory.Clear()
	e.conclusions = nil
	e.fired = make(map[string]struct{})
	e.state = StateUnseeded
}

// Suggestion labels, keyed by conclusion key and applied in a fixed order.
var conclusionLabels = []struct {
	key, label string
}{
	{domain.ConclusionSuggestion, "💡"},
	{domain.ConclusionAlert, "⚠️"},
	{domain.ConclusionReinforcement, "🌟"},
	{domain.ConclusionContext, "📍"},
}

// FormattedSuggestions renders the conclusion log as labeled lines, one per
// present key per conclusion, in firing order.
func (e *Engine) FormattedSuggestions() []string {
	var out []string
	for _, c := range e.conclusions {
		for _, l := range conclusionLabels {
			if v, ok := c.Conclusion[l.key]; ok {
				out = append(out, fmt.Sprintf("%s %v", l.label, v))
			}
		}
	}
	return out
}
