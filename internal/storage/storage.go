package storage

import (
	"context"
	"errors"
	"time"

	"nids-alert-engine/internal/model"
)

// ErrNotFound is returned when a rule or alert id does not exist.
var ErrNotFound = errors.New("not found")

// AlertQuery filters and paginates persisted alerts. Zero time values and
// empty strings mean "not filtered"; a nil Resolved matches both states.
type AlertQuery struct {
	Page      int
	PerPage   int
	StartDate time.Time
	EndDate   time.Time
	Level     model.Severity
	Resolved  *bool
}

// RuleStore persists alert rules.
type RuleStore interface {
	// LoadEnabledRules returns every stored rule with Enabled set.
	LoadEnabledRules(ctx context.Context) ([]model.AlertRule, error)
	InsertRule(ctx context.Context, rule model.AlertRule) error
	UpdateRule(ctx context.Context, rule model.AlertRule) error
	DeleteRule(ctx context.Context, id string) error
}

// AlertStore persists alerts, append-only except for the set-once
// acknowledgment and resolution fields.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert model.Alert) error
	GetAlert(ctx context.Context, id string) (*model.Alert, error)
	// ListAlerts returns matching alerts newest first, plus the total match
	// count before pagination.
	ListAlerts(ctx context.Context, q AlertQuery) ([]model.Alert, int64, error)
	AcknowledgeAlert(ctx context.Context, id, user string, at time.Time) error
	ResolveAlert(ctx context.Context, id, user string, at time.Time) error
}

// HistoryStore records the append-only audit trail per alert.
type HistoryStore interface {
	AppendHistory(ctx context.Context, entry model.AlertHistoryEntry) error
	GetHistory(ctx context.Context, alertID string) ([]model.AlertHistoryEntry, error)
}

// Store is the full persistence surface the engine and API depend on.
type Store interface {
	RuleStore
	AlertStore
	HistoryStore
	Close() error
}

func normalizeQuery(q *AlertQuery) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 100
	}
	if q.PerPage > 1000 {
		q.PerPage = 1000
	}
}

func matchesQuery(a *model.Alert, q *AlertQuery) bool {
	if !q.StartDate.IsZero() && a.Timestamp.Before(q.StartDate) {
		return false
	}
	if !q.EndDate.IsZero() && a.Timestamp.After(q.EndDate) {
		return false
	}
	if q.Level != "" && a.Severity != q.Level {
		return false
	}
	if q.Resolved != nil && a.Resolved != *q.Resolved {
		return false
	}
	return true
}
