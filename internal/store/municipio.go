package store

import (
	"context"
	"errors"

	"github.com/ecohidalgo/huella/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MunicipioStore reads the municipal emissions dataset.
type MunicipioStore struct {
	db *pgxpool.Pool
}

func NewMunicipioStore(db *pgxpool.Pool) *MunicipioStore {
	return &MunicipioStore{db: db}
}

// GetByName retrieves one municipality.
func (s *MunicipioStore) GetByName(ctx context.Context, nombre string) (*domain.Municipio, error) {
	m := &domain.Municipio{}
	err := s.db.QueryRow(ctx,
		`SELECT nombre, tipo, poblacion, nivel_contaminacion,
			emision_transporte, emision_energia, emision_residuos,
			emision_industria, emision_agricultura, emision_per_capita
		FROM municipios
		WHERE nombre = $1`,
		nombre,
	).Scan(
		&m.Nombre, &m.Tipo, &m.Poblacion, &m.NivelContaminacion,
		&m.EmisionTransporte, &m.EmisionEnergia, &m.EmisionResiduos,
		&m.EmisionIndustria, &m.EmisionAgricultura, &m.EmisionPerCapita,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// List retrieves the whole dataset ordered by name.
func (s *MunicipioStore) List(ctx context.Context) ([]domain.Municipio, error) {
	rows, err := s.db.Query(ctx,
		`SELECT nombre, tipo, poblacion, nivel_contaminacion,
			emision_transporte, emision_energia, emision_residuos,
			emision_industria, emision_agricultura, emision_per_capita
		FROM municipios
		ORDER BY nombre`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Municipio
	for rows.Next() {
		var m domain.Municipio
		if err := rows.Scan(
			&m.Nombre, &m.Tipo, &m.Poblacion, &m.NivelContaminacion,
			&m.EmisionTransporte, &m.EmisionEnergia, &m.EmisionResiduos,
			&m.EmisionIndustria, &m.EmisionAgricultura, &m.EmisionPerCapita,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, rows.Err()
}

// Verify interface compliance at compile time
var _ domain.MunicipioStore = (*MunicipioStore)(nil)
