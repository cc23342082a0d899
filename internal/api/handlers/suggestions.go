package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ecohidalgo/huella/internal/domain"
	"github.com/ecohidalgo/huella/internal/service"
)

type SuggestionHandler struct {
	svc *service.SuggestionService
}

func NewSuggestionHandler(svc *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{svc: svc}
}

// Generate runs an inference session over the posted user data and returns
// the formatted suggestions alongside the raw conclusion log.
func (h *SuggestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req domain.SeedInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Empty() {
		writeError(w, http.StatusBadRequest, "empty input: provide at least one field")
		return
	}

	result := h.svc.Generate(r.Context(), req)
	writeJSON(w, http.StatusOK, result)
}
