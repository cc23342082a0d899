package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ecohidalgo/huella/internal/domain"
	"github.com/ecohidalgo/huella/internal/service"
)

type RuleHandler struct {
	svc *service.RuleService
}

func NewRuleHandler(svc *service.RuleService) *RuleHandler {
	return &RuleHandler{svc: svc}
}

type ruleCatalogResponse struct {
	Reglas   map[string]map[string]domain.RawRule `json:"reglas"`
	Total    int                                  `json:"total"`
	Fallback bool                                 `json:"fallback"`
}

// List returns the wire-format catalog currently in use.
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	raw := h.svc.Raw()
	total := 0
	for _, group := range raw {
		total += len(group)
	}

	writeJSON(w, http.StatusOK, ruleCatalogResponse{
		Reglas:   raw,
		Total:    total,
		Fallback: h.svc.UsingFallback(),
	})
}

// Reload refetches the catalog from the store.
func (h *RuleHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.svc.Reload(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"total":    len(h.svc.Rules()),
		"fallback": h.svc.UsingFallback(),
	})
}

type upsertGroupRequest struct {
	Grupo  string                    `json:"grupo"`
	Reglas map[string]domain.RawRule `json:"reglas"`
}

// UpsertGroup validates and replaces one rule group.
func (h *RuleHandler) UpsertGroup(w http.ResponseWriter, r *http.Request) {
	var req upsertGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SaveGroup(r.Context(), req.Grupo, req.Reglas); err != nil {
		if errors.Is(err, service.ErrInvalidGroup) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save rule group")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"grupo":  req.Grupo,
		"total":  len(req.Reglas),
	})
}
