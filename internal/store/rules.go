package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ecohidalgo/huella/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RuleStore persists the production-rule catalog and the inference log.
// Rules live one row per rule, payload as jsonb, keyed (grupo, regla_id).
type RuleStore struct {
	db *pgxpool.Pool
}

func NewRuleStore(db *pgxpool.Pool) *RuleStore {
	return &RuleStore{db: db}
}

// LoadRules returns the full catalog keyed group→id.
func (s *RuleStore) LoadRules(ctx context.Context) (map[string]map[string]domain.RawRule, error) {
	rows, err := s.db.Query(ctx,
		`SELECT grupo, regla_id, payload
		FROM reglas_produccion
		ORDER BY grupo, regla_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]map[string]domain.RawRule)
	for rows.Next() {
		var (
			grupo, id string
			payload   []byte
		)
		if err := rows.Scan(&grupo, &id, &payload); err != nil {
			return nil, err
		}

		var rule domain.RawRule
		if err := json.Unmarshal(payload, &rule); err != nil {
			return nil, fmt.Errorf("unmarshal rule %s/%s: %w", grupo, id, err)
		}

		if out[grupo] == nil {
			out[grupo] = make(map[string]domain.RawRule)
		}
		out[grupo][id] = rule
	}

	return out, rows.Err()
}

// SaveRules replaces a whole rule group in one transaction.
func (s *RuleStore) SaveRules(ctx context.Context, group string, rules map[string]domain.RawRule) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM reglas_produccion WHERE grupo = $1`, group,
	); err != nil {
		return err
	}

	for id, rule := range rules {
		payload, err := json.Marshal(rule)
		if err != nil {
			return fmt.Errorf("marshal rule %s/%s: %w", group, id, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO reglas_produccion (grupo, regla_id, payload)
			VALUES ($1, $2, $3)`,
			group, id, payload,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// PersistConclusions appends one inference log row per session.
func (s *RuleStore) PersistConclusions(ctx context.Context, userLabel string, conclusions []domain.ConclusionRecord) error {
	payload, err := json.Marshal(conclusions)
	if err != nil {
		return fmt.Errorf("marshal conclusions: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO inferencias (usuario, conclusion) VALUES ($1, $2)`,
		userLabel, payload,
	)
	return err
}

// Verify interface compliance at compile time
var _ domain.RuleProvider = (*RuleStore)(nil)
