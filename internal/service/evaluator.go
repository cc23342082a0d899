package service

import (
	"strings"

	"github.com/ecohidalgo/huella/internal/domain"
)

// factIndex maps every condition-key spelling that resolves to a fact onto
// that fact's value. Built once per MATCH phase so condition evaluation is a
// table hit rather than a per-key scan over working memory.
type factIndex map[string]domain.Value

// attribute synonyms: condition keys on the left resolve to facts whose
// attribute is the value on the right.
var attributeSynonyms = map[string]string{
	"emision_per_capita": "per_capita",
}

// buildFactIndex indexes facts under every spelling a rule condition may use
// to reference them: the attribute verbatim, "{type}_{attribute}", and the
// attribute with underscores stripped. The first fact to claim a spelling
// keeps it, matching working memory's insertion-order lookup.
func buildFactIndex(facts []domain.Fact) factIndex {
	idx := make(factIndex, len(facts)*3)
	claim := func(key string, v domain.Value) {
		if _, taken := idx[key]; !taken {
			idx[key] = v
		}
	}
	for _, f := range facts {
		claim(f.Attribute, f.Value)
		claim(f.Type+"_"+f.Attribute, f.Value)
		claim(strings.ReplaceAll(f.Attribute, "_", ""), f.Value)
	}
	for spelling, attr := range attributeSynonyms {
		for _, f := range facts {
			if f.Attribute == attr {
				claim(spelling, f.Value)
				break
			}
		}
	}
	return idx
}

// evaluate reports whether a rule's condition set holds against the indexed
// facts. It is deterministic and side-effect free: same set, same index, same
// answer. A term referencing an attribute no fact provides is false, never an
// error, and numeric comparisons against a non-numeric fact value fail
// closed.
func evaluate(set domain.ConditionSet, idx factIndex) bool {
	if len(set.Terms) == 0 {
		return false
	}

	results := make([]bool, 0, len(set.Terms))
	for _, term := range set.Terms {
		results = append(results, evaluateTerm(term, idx))
	}

	switch set.Operator {
	case domain.OperatorAnd:
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	case domain.OperatorOr:
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func evaluateTerm(term domain.ConditionTerm, idx factIndex) bool {
	switch term.Op {
	case domain.OpGreater, domain.OpLess:
		v, ok := idx[term.Attribute]
		if !ok {
			return false
		}
		n, numOK := v.Number()
		if !numOK {
			return false
		}
		target, _ := term.Target.Number()
		if term.Op == domain.OpGreater {
			return n > target
		}
		return n < target

	default:
		if v, ok := idx[term.Attribute]; ok {
			return v.Equal(term.Target)
		}
		// The alternate target applies only when the primary lookup finds
		// no fact at all; it retries the same lookup against the alt value.
		if term.Alt != nil {
			if v, ok := idx[term.Attribute]; ok {
				return v.Equal(*term.Alt)
			}
		}
		return false
	}
}
