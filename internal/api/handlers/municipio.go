package handlers

import (
	"errors"
	"net/http"

	"github.com/ecohidalgo/huella/internal/domain"
	"github.com/ecohidalgo/huella/internal/store"
	"github.com/go-chi/chi/v5"
)

type MunicipioHandler struct {
	store domain.MunicipioStore
}

func NewMunicipioHandler(s domain.MunicipioStore) *MunicipioHandler {
	return &MunicipioHandler{store: s}
}

// List returns the whole municipal dataset.
func (h *MunicipioHandler) List(w http.ResponseWriter, r *http.Request) {
	municipios, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list municipios")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"municipios": municipios,
		"total":      len(municipios),
	})
}

// GetByName returns one municipality with its dominant emission sector and
// how its per-capita footprint compares with the national average.
func (h *MunicipioHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	nombre := chi.URLParam(r, "nombre")
	if nombre == "" {
		writeError(w, http.StatusBadRequest, "nombre is required")
		return
	}

	m, err := h.store.GetByName(r.Context(), nombre)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "municipio not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get municipio")
		return
	}

	perCapita := domain.Huella{TotalTon: m.EmisionPerCapita / 1000.0}
	writeJSON(w, http.StatusOK, map[string]any{
		"municipio":           m,
		"categoria_dominante": m.DominantCategory(),
		"comparativa":         perCapita.CompararConPromedio(domain.NationalAveragePerCapitaTon),
	})
}
