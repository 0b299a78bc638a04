package storage

import (
	"context"
	"sync"
	"time"

	"nids-alert-engine/internal/model"

	"github.com/sirupsen/logrus"
)

// MemoryStore is an in-process Store. It backs tests and single-node
// deployments that accept losing alert history on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	rules     map[string]model.AlertRule
	alerts    []model.Alert
	alertIdx  map[string]int
	history   map[string][]model.AlertHistoryEntry
	maxAlerts int
	logger    *logrus.Logger
}

// NewMemoryStore creates an empty in-memory store keeping at most maxAlerts
// alerts (oldest evicted).
func NewMemoryStore(maxAlerts int, logger *logrus.Logger) *MemoryStore {
	if maxAlerts <= 0 {
		maxAlerts = 10000
	}
	return &MemoryStore{
		rules:     make(map[string]model.AlertRule),
		alerts:    make([]model.Alert, 0),
		alertIdx:  make(map[string]int),
		history:   make(map[string][]model.AlertHistoryEntry),
		maxAlerts: maxAlerts,
		logger:    logger,
	}
}

func (s *MemoryStore) LoadEnabledRules(ctx context.Context) ([]model.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.AlertRule, 0, len(s.rules))
	for _, rule := range s.rules {
		if rule.Enabled {
			result = append(result, rule)
		}
	}
	return result, nil
}

func (s *MemoryStore) InsertRule(ctx context.Context, rule model.AlertRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rule.ID] = rule
	return nil
}

func (s *MemoryStore) UpdateRule(ctx context.Context, rule model.AlertRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[rule.ID]; !ok {
		return ErrNotFound
	}
	s.rules[rule.ID] = rule
	return nil
}

func (s *MemoryStore) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return ErrNotFound
	}
	delete(s.rules, id)
	return nil
}

func (s *MemoryStore) InsertAlert(ctx context.Context, alert model.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = append(s.alerts, alert)
	if len(s.alerts) > s.maxAlerts {
		evicted := len(s.alerts) - s.maxAlerts
		s.alerts = s.alerts[evicted:]
		s.reindexLocked()
	} else {
		s.alertIdx[alert.ID] = len(s.alerts) - 1
	}
	return nil
}

func (s *MemoryStore) reindexLocked() {
	s.alertIdx = make(map[string]int, len(s.alerts))
	for i := range s.alerts {
		s.alertIdx[s.alerts[i].ID] = i
	}
}

func (s *MemoryStore) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.alertIdx[id]
	if !ok {
		return nil, ErrNotFound
	}
	alert := s.alerts[i]
	return &alert, nil
}

func (s *MemoryStore) ListAlerts(ctx context.Context, q AlertQuery) ([]model.Alert, int64, error) {
	normalizeQuery(&q)

	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]model.Alert, 0)
	// Newest first.
	for i := len(s.alerts) - 1; i >= 0; i-- {
		if matchesQuery(&s.alerts[i], &q) {
			filtered = append(filtered, s.alerts[i])
		}
	}

	total := int64(len(filtered))
	start := (q.Page - 1) * q.PerPage
	if start >= len(filtered) {
		return []model.Alert{}, total, nil
	}
	end := start + q.PerPage
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

func (s *MemoryStore) AcknowledgeAlert(ctx context.Context, id, user string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.alertIdx[id]
	if !ok {
		return ErrNotFound
	}
	s.alerts[i].Acknowledged = true
	s.alerts[i].AcknowledgedBy = user
	s.alerts[i].AcknowledgedAt = &at
	return nil
}

func (s *MemoryStore) ResolveAlert(ctx context.Context, id, user string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.alertIdx[id]
	if !ok {
		return ErrNotFound
	}
	s.alerts[i].Resolved = true
	s.alerts[i].ResolvedBy = user
	s.alerts[i].ResolvedAt = &at
	return nil
}

func (s *MemoryStore) AppendHistory(ctx context.Context, entry model.AlertHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[entry.AlertID] = append(s.history[entry.AlertID], entry)
	return nil
}

func (s *MemoryStore) GetHistory(ctx context.Context, alertID string) ([]model.AlertHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.history[alertID]
	result := make([]model.AlertHistoryEntry, len(entries))
	copy(result, entries)
	return result, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
