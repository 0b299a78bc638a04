// Package api exposes the engine's host surfaces: alert queries and
// administration, rule CRUD, and the live websocket feed.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"nids-alert-engine/internal/alert"
	"nids-alert-engine/internal/engine"
	"nids-alert-engine/internal/model"
	"nids-alert-engine/internal/rules"
	"nids-alert-engine/internal/storage"
)

// Handlers holds the HTTP handler dependencies
type Handlers struct {
	store    storage.Store
	rules    *rules.Store
	eng      *engine.AlertEngine
	hub      *alert.Hub
	logger   *logrus.Logger
	upgrader websocket.Upgrader
}

// NewHandlers creates the HTTP handlers
func NewHandlers(store storage.Store, ruleStore *rules.Store, eng *engine.AlertEngine, hub *alert.Hub, logger *logrus.Logger) *Handlers {
	return &Handlers{
		store:  store,
		rules:  ruleStore,
		eng:    eng,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// GetAlerts returns persisted alerts with pagination and filtering
func (h *Handlers) GetAlerts(w http.ResponseWriter, r *http.Request) {
	q := storage.AlertQuery{
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 100),
	}
	if v := r.URL.Query().Get("start_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.StartDate = t
		}
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.EndDate = t
		}
	}
	if v := r.URL.Query().Get("level"); v != "" && v != "all" {
		q.Level = model.Severity(v)
	}
	if v := r.URL.Query().Get("resolved"); v != "" {
		resolved := v == "true"
		q.Resolved = &resolved
	}

	alerts, total, err := h.store.ListAlerts(r.Context(), q)
	if err != nil {
		h.logger.Errorf("Failed to list alerts: %v", err)
		// Storage is down; fall back to the in-memory buffer so the UI
		// still shows something.
		recent := h.eng.Dispatcher().Recent(q.PerPage)
		writeJSON(w, http.StatusOK, map[string]any{
			"alerts":   recent,
			"degraded": true,
		})
		return
	}

	totalPages := (total + int64(q.PerPage) - 1) / int64(q.PerPage)
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"pagination": map[string]any{
			"page":         q.Page,
			"per_page":     q.PerPage,
			"total_alerts": total,
			"total_pages":  totalPages,
		},
	})
}

// GetRecentAlerts returns buffered alerts, newest first
func (h *Handlers) GetRecentAlerts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": h.eng.Dispatcher().Recent(limit),
	})
}

// GetAlert returns one alert by id
func (h *Handlers) GetAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	a, err := h.store.GetAlert(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "alert not found")
			return
		}
		h.logger.Errorf("Failed to get alert %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to get alert")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GetAlertHistory returns the audit trail for one alert
func (h *Handlers) GetAlertHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	history, err := h.store.GetHistory(r.Context(), id)
	if err != nil {
		h.logger.Errorf("Failed to get history for alert %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to get alert history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// GetAlertStats returns 24h aggregate statistics
func (h *Handlers) GetAlertStats(w http.ResponseWriter, r *http.Request) {
	q := storage.AlertQuery{
		Page:      1,
		PerPage:   1000,
		StartDate: time.Now().UTC().Add(-24 * time.Hour),
	}
	alerts, total, err := h.store.ListAlerts(r.Context(), q)
	if err != nil {
		h.logger.Errorf("Failed to list alerts for stats: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	byLevel := make(map[string]int)
	byType := make(map[string]int)
	bySource := make(map[string]int)
	byPort := make(map[int]int)
	for i := range alerts {
		a := &alerts[i]
		byLevel[string(a.Severity)]++
		byType[string(a.Category)]++
		if a.SourceIP != "" {
			bySource[a.SourceIP]++
		}
		if a.DestinationPort != 0 {
			byPort[a.DestinationPort]++
		}
	}

	activeRules := 0
	for _, rule := range h.rules.List() {
		if rule.Enabled {
			activeRules++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_alerts_24h": total,
		"by_level":         byLevel,
		"by_type":          byType,
		"top_source_ips":   topStrings(bySource, 5),
		"top_target_ports": topInts(byPort, 5),
		"active_rules":     activeRules,
		"subscribers":      h.hub.SubscriberCount(),
	})
}

type actorRequest struct {
	User string `json:"user"`
}

// AcknowledgeAlert marks an alert acknowledged and records history
func (h *Handlers) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	h.mutateAlert(w, r, "acknowledged", h.store.AcknowledgeAlert)
}

// ResolveAlert marks an alert resolved and records history
func (h *Handlers) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	h.mutateAlert(w, r, "resolved", h.store.ResolveAlert)
}

func (h *Handlers) mutateAlert(w http.ResponseWriter, r *http.Request, action string,
	mutate func(ctx context.Context, id, user string, at time.Time) error) {

	id := mux.Vars(r)["id"]
	var req actorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.User == "" {
		writeError(w, http.StatusBadRequest, "user is required")
		return
	}

	now := time.Now().UTC()
	if err := mutate(r.Context(), id, req.User, now); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "alert not found")
			return
		}
		h.logger.Errorf("Failed to %s alert %s: %v", action, id, err)
		writeError(w, http.StatusInternalServerError, "failed to update alert")
		return
	}

	entry := model.AlertHistoryEntry{
		AlertID:   id,
		Action:    action,
		User:      req.User,
		Timestamp: now,
		Details:   "Alert " + action + " by " + req.User,
	}
	if err := h.store.AppendHistory(r.Context(), entry); err != nil {
		h.logger.Errorf("Failed to record %s history for alert %s: %v", action, id, err)
	}

	a, err := h.store.GetAlert(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": action})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// StreamAlerts upgrades to a websocket and forwards live alerts
func (h *Handlers) StreamAlerts(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := h.hub.Subscribe()
	defer h.hub.Unsubscribe(ch)

	// Send ping to keep connection alive
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	go func() {
		for range ticker.C {
			if err := conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}()

	// Read messages (for pong and client close)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case a, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(a); err != nil {
				h.logger.Errorf("WebSocket write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

type countedString struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

func topStrings(counts map[string]int, n int) []countedString {
	out := make([]countedString, 0, len(counts))
	for v, c := range counts {
		out = append(out, countedString{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

type countedInt struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

func topInts(counts map[int]int, n int) []countedInt {
	out := make([]countedInt, 0, len(counts))
	for v, c := range counts {
		out = append(out, countedInt{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
