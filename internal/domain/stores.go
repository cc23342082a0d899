package domain

import "context"

// RuleProvider loads production rules from the knowledge base and records
// fired conclusions back to it. Implementations must be safe for concurrent
// use.
type RuleProvider interface {
	// LoadRules returns the full rule catalog keyed group→id. An empty map
	// and a nil error both mean "no rules available"; callers fall back to
	// the built-in default set in that case.
	LoadRules(ctx context.Context) (map[string]map[string]RawRule, error)

	// SaveRules replaces an entire rule group.
	SaveRules(ctx context.Context, group string, rules map[string]RawRule) error

	// PersistConclusions records a finished session's conclusions under a
	// user label. Persistence is best effort; engine results never depend
	// on it succeeding.
	PersistConclusions(ctx context.Context, userLabel string, conclusions []ConclusionRecord) error
}

// MunicipioStore reads the municipal emissions dataset.
type MunicipioStore interface {
	GetByName(ctx context.Context, nombre string) (*Municipio, error)
	List(ctx context.Context) ([]Municipio, error)
}
