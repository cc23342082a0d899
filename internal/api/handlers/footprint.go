package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ecohidalgo/huella/internal/domain"
	"github.com/ecohidalgo/huella/internal/service"
)

type FootprintHandler struct {
	svc *service.FootprintService
}

func NewFootprintHandler(svc *service.FootprintService) *FootprintHandler {
	return &FootprintHandler{svc: svc}
}

type footprintRequest struct {
	Usuario     string             `json:"usuario,omitempty"`
	Perfil      string             `json:"perfil,omitempty"`
	Actividades []domain.Actividad `json:"actividades"`
	TopN        int                `json:"top_n,omitempty"`
}

type footprintResponse struct {
	Huella        *domain.Huella       `json:"huella"`
	Equivalencias domain.Equivalencias `json:"equivalencias"`
	Comparacion   domain.Comparacion   `json:"comparacion"`
	Sugerencias   []domain.Sugerencia  `json:"sugerencias"`
}

// Calculate prices the posted activities, returning the annual footprint,
// equivalences, the national-average comparison, and impact-ranked
// suggestions for the user's perfil.
func (h *FootprintHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req footprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Actividades) == 0 {
		writeError(w, http.StatusBadRequest, "actividades is required")
		return
	}

	topN := req.TopN
	if topN <= 0 {
		topN = 5
	}

	huella := h.svc.Calculate(req.Usuario, req.Actividades)
	writeJSON(w, http.StatusOK, footprintResponse{
		Huella:        huella,
		Equivalencias: huella.Equivalencias(),
		Comparacion:   huella.CompararConPromedio(domain.NationalAveragePerCapitaTon),
		Sugerencias:   h.svc.ImpactSuggestions(req.Actividades, req.Perfil, topN),
	})
}

// Factors returns the emission-factor catalog.
func (h *FootprintHandler) Factors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Factors().All())
}
