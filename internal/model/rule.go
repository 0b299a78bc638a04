package model

import "time"

// Alert actions a rule can request. The wire names match the stored rule
// documents: "websocket" is the live feed, "store" persistence (always done
// by the dispatcher regardless), "log" the structured warning line, "email"
// a logged-intent stub.
const (
	ActionWebsocket = "websocket"
	ActionLog       = "log"
	ActionStore     = "store"
	ActionEmail     = "email"
)

// AlertRule maps a condition set onto alert actions. Conditions is kept as
// the raw persisted map; the rule store compiles it into typed condition
// variants before evaluation. Keys without a typed variant are informational
// and never checked.
type AlertRule struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    Category       `json:"alert_type"`
	Conditions  map[string]any `json:"conditions"`
	Actions     []string       `json:"actions"`
	Enabled     bool           `json:"enabled"`
	Threshold   *float64       `json:"threshold,omitempty"`
	TimeWindow  *int           `json:"time_window,omitempty"` // minutes, informational
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
}

// HasAction reports whether the rule's action list contains the given action.
func (r *AlertRule) HasAction(action string) bool {
	for _, a := range r.Actions {
		if a == action {
			return true
		}
	}
	return false
}
