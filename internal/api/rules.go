package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"nids-alert-engine/internal/model"
	"nids-alert-engine/internal/rules"
	"nids-alert-engine/internal/storage"
)

// GetRules returns every cached rule
func (h *Handlers) GetRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rules": h.rules.List()})
}

// GetRule returns one rule by id
func (h *Handlers) GetRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rule, err := h.rules.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "rule not found")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// CreateRule creates a new rule
func (h *Handlers) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule model.AlertRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule payload")
		return
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.Name == "" {
		writeError(w, http.StatusBadRequest, "rule name is required")
		return
	}

	if err := h.rules.Create(r.Context(), rule); err != nil {
		h.logger.Errorf("Failed to create rule: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	created, err := h.rules.Get(rule.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rule created but not readable")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// rulePatchRequest mirrors the rule wire format with all fields optional.
type rulePatchRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Category    *model.Category `json:"alert_type"`
	Conditions  map[string]any  `json:"conditions"`
	Actions     []string        `json:"actions"`
	Enabled     *bool           `json:"enabled"`
	Threshold   *float64        `json:"threshold"`
	TimeWindow  *int            `json:"time_window"`
}

// UpdateRule merges a partial update into an existing rule
func (h *Handlers) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req rulePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule payload")
		return
	}

	updated, err := h.rules.Update(r.Context(), id, rules.RulePatch{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
		Enabled:     req.Enabled,
		Threshold:   req.Threshold,
		TimeWindow:  req.TimeWindow,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		h.logger.Errorf("Failed to update rule %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteRule removes a rule
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.rules.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		h.logger.Errorf("Failed to delete rule %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
