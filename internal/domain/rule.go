package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Condition wire-format keys. These spellings are protocol: they are what the
// rule store contains and what rule authors write.
const (
	OperatorKey   = "operador"
	OperatorAnd   = "AND"
	OperatorOr    = "OR"
	SuffixGreater = "_mayor_que"
	SuffixLess    = "_menor_que"
	SuffixAlt     = "_alt"
)

// Conclusion keys that generate derived facts when a rule fires.
const (
	ConclusionSuggestion    = "sugerencia"
	ConclusionAlert         = "alerta"
	ConclusionReinforcement = "refuerzo_positivo"
	ConclusionContext       = "contexto"
)

// CompareOp is the comparison form of a single condition term.
type CompareOp int

const (
	OpEqual CompareOp = iota
	OpGreater
	OpLess
)

// ConditionTerm is one slot of a rule's condition set: an attribute key, a
// comparison form and a target value. Equality terms may carry an alternate
// target, consulted only when the primary lookup finds no fact at all.
type ConditionTerm struct {
	Attribute string
	Op        CompareOp
	Target    Value
	Alt       *Value
}

// ConditionSet combines terms with a single AND/OR operator (AND by default).
// Evaluating a set against the same facts is deterministic and side-effect
// free; a set with no terms never holds.
type ConditionSet struct {
	Operator string
	Terms    []ConditionTerm
}

// Rule is a production: if Conditions hold, append Conclusion. Rules are
// read-only for the duration of a session. The id identifies a rule in the
// engine's fired-set, so ids must be unique across the whole loaded set.
type Rule struct {
	ID         string
	Group      string
	Name       string
	Conditions ConditionSet
	Conclusion map[string]any
	Priority   int
}

// RawRule is the wire shape of a rule as stored in the knowledge base.
type RawRule struct {
	Name       string         `json:"nombre"`
	Conditions map[string]any `json:"condiciones"`
	Conclusion map[string]any `json:"conclusion"`
	Priority   int            `json:"prioridad"`
}

// ParseRules validates a raw group→id→rule mapping into a flat rule slice,
// sorted by (group, id). That sort order is the engine's documented traversal
// order: MATCH scans it front to back and priority ties resolve to the
// earliest position.
//
// Rules that fail validation are dropped and reported as warnings rather than
// aborting the load; a duplicate id anywhere in the set drops the later rule
// so the fired-set can never conflate two rules.
func ParseRules(raw map[string]map[string]RawRule) ([]Rule, []string) {
	type entry struct {
		group, id string
		rule      RawRule
	}

	var entries []entry
	for group, rules := range raw {
		for id, r := range rules {
			entries = append(entries, entry{group: group, id: id, rule: r})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].group != entries[j].group {
			return entries[i].group < entries[j].group
		}
		return entries[i].id < entries[j].id
	})

	var (
		out      []Rule
		warnings []string
		seenIDs  = make(map[string]string)
	)
	for _, e := range entries {
		if prevGroup, dup := seenIDs[e.id]; dup {
			warnings = append(warnings, fmt.Sprintf("regla %q en grupo %q: id duplicado (ya cargado en grupo %q)", e.id, e.group, prevGroup))
			continue
		}

		rule, err := parseRule(e.group, e.id, e.rule)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("regla %q en grupo %q: %v", e.id, e.group, err))
			continue
		}

		seenIDs[e.id] = e.group
		out = append(out, rule)
	}
	return out, warnings
}

func parseRule(group, id string, raw RawRule) (Rule, error) {
	if id == "" {
		return Rule{}, fmt.Errorf("id vacío")
	}
	if len(raw.Conditions) == 0 {
		return Rule{}, fmt.Errorf("sin condiciones")
	}
	if len(raw.Conclusion) == 0 {
		return Rule{}, fmt.Errorf("sin conclusión")
	}

	conds, err := parseConditions(raw.Conditions)
	if err != nil {
		return Rule{}, err
	}

	name := raw.Name
	if name == "" {
		name = id
	}

	return Rule{
		ID:         id,
		Group:      group,
		Name:       name,
		Conditions: conds,
		Conclusion: raw.Conclusion,
		Priority:   raw.Priority,
	}, nil
}

func parseConditions(raw map[string]any) (ConditionSet, error) {
	set := ConditionSet{Operator: OperatorAnd}

	if op, ok := raw[OperatorKey]; ok {
		s, isStr := op.(string)
		if !isStr || (s != OperatorAnd && s != OperatorOr) {
			return ConditionSet{}, fmt.Errorf("operador inválido: %v", op)
		}
		set.Operator = s
	}

	// Keys must be walked in a stable order so repeated parses of the same
	// input produce identical term slices.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		if k != OperatorKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		target := ValueOf(raw[key])

		switch {
		case strings.HasSuffix(key, SuffixGreater):
			attr := strings.TrimSuffix(key, SuffixGreater)
			if _, ok := target.Number(); !ok {
				return ConditionSet{}, fmt.Errorf("umbral no numérico para %q", key)
			}
			set.Terms = append(set.Terms, ConditionTerm{Attribute: attr, Op: OpGreater, Target: target})

		case strings.HasSuffix(key, SuffixLess):
			attr := strings.TrimSuffix(key, SuffixLess)
			if _, ok := target.Number(); !ok {
				return ConditionSet{}, fmt.Errorf("umbral no numérico para %q", key)
			}
			set.Terms = append(set.Terms, ConditionTerm{Attribute: attr, Op: OpLess, Target: target})

		case strings.HasSuffix(key, SuffixAlt):
			// Consumed by its base equality key below when one exists;
			// otherwise it degrades to an ordinary equality term, which is
			// how the knowledge base has always treated orphan _alt keys.
			base := strings.TrimSuffix(key, SuffixAlt)
			if _, hasBase := raw[base]; hasBase {
				continue
			}
			set.Terms = append(set.Terms, ConditionTerm{Attribute: key, Op: OpEqual, Target: target})

		default:
			term := ConditionTerm{Attribute: key, Op: OpEqual, Target: target}
			if altRaw, ok := raw[key+SuffixAlt]; ok {
				alt := ValueOf(altRaw)
				term.Alt = &alt
			}
			set.Terms = append(set.Terms, term)
		}
	}

	if len(set.Terms) == 0 {
		return ConditionSet{}, fmt.Errorf("sin términos evaluables")
	}
	return set, nil
}

// ConclusionRecord is one fired rule's contribution to the session log,
// appended in firing order and never removed within a session.
type ConclusionRecord struct {
	RuleName   string         `json:"regla"`
	Conclusion map[string]any `json:"conclusion"`
	Priority   int            `json:"prioridad"`
}
