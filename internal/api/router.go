package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter builds the HTTP router for the engine's host surfaces.
func NewRouter(h *Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Alerts endpoints
	api.HandleFunc("/alerts/recent", h.GetRecentAlerts).Methods("GET")
	api.HandleFunc("/alerts/stats", h.GetAlertStats).Methods("GET")
	api.HandleFunc("/stream/alerts", h.StreamAlerts).Methods("GET")
	api.HandleFunc("/alerts", h.GetAlerts).Methods("GET")
	api.HandleFunc("/alerts/{id}/acknowledge", h.AcknowledgeAlert).Methods("POST")
	api.HandleFunc("/alerts/{id}/resolve", h.ResolveAlert).Methods("POST")
	api.HandleFunc("/alerts/{id}/history", h.GetAlertHistory).Methods("GET")
	api.HandleFunc("/alerts/{id}", h.GetAlert).Methods("GET")

	// Rules endpoints
	api.HandleFunc("/rules", h.GetRules).Methods("GET")
	api.HandleFunc("/rules", h.CreateRule).Methods("POST")
	api.HandleFunc("/rules/{id}", h.GetRule).Methods("GET")
	api.HandleFunc("/rules/{id}", h.UpdateRule).Methods("PUT")
	api.HandleFunc("/rules/{id}", h.DeleteRule).Methods("DELETE")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
