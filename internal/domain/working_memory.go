package domain

// WorkingMemory holds the facts known during one inference session. It is an
// append-only ordered collection: adding a fact whose (type, attribute, value)
// triple is already present is a silent no-op, and the original confidence is
// kept. Not safe for concurrent use; each session owns its own instance.
type WorkingMemory struct {
	facts []Fact
	seen  map[string]struct{}
}

func NewWorkingMemory() *WorkingMemory {
	return &WorkingMemory{seen: make(map[string]struct{})}
}

// Add inserts a fact unless its identity triple is already present.
func (m *WorkingMemory) Add(f Fact) {
	key := f.Key()
	if _, ok := m.seen[key]; ok {
		return
	}
	m.seen[key] = struct{}{}
	m.facts = append(m.facts, f)
}

// Facts returns the facts in insertion order. Callers must not mutate the
// returned slice.
func (m *WorkingMemory) Facts() []Fact {
	return m.facts
}

// FactsOfType filters facts by type, preserving relative order.
func (m *WorkingMemory) FactsOfType(factType string) []Fact {
	var out []Fact
	for _, f := range m.facts {
		if f.Type == factType {
			out = append(out, f)
		}
	}
	return out
}

// ValueOf returns the value of the first fact matching (type, attribute) in
// insertion order. The second return is false when no fact matches.
func (m *WorkingMemory) ValueOf(factType, attribute string) (Value, bool) {
	for _, f := range m.facts {
		if f.Type == factType && f.Attribute == attribute {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Len reports the number of distinct facts held.
func (m *WorkingMemory) Len() int {
	return len(m.facts)
}

// Clear empties the memory. Used at session start and on explicit reset.
func (m *WorkingMemory) Clear() {
	m.facts = nil
	m.seen = make(map[string]struct{})
}
