// Package rules holds the alert rule cache and the condition evaluator
// that decides which rules fire for a classification event.
package rules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"nids-alert-engine/internal/model"
	"nids-alert-engine/internal/storage"
)

// Store is the in-memory working set of alert rules, kept in sync with the
// persistence backend. Evaluation runs against the cache only; the backend
// is touched on load and on rule mutations.
type Store struct {
	mu      sync.RWMutex
	ordered []compiledRule
	index   map[string]int

	backend storage.RuleStore
	logger  *logrus.Logger
}

func NewStore(backend storage.RuleStore, logger *logrus.Logger) *Store {
	return &Store{
		index:   make(map[string]int),
		backend: backend,
		logger:  logger,
	}
}

// Load populates the cache from the backend. When the backend holds no
// rules, or cannot be read, the built-in default rule set is installed and
// written back best-effort so the engine never starts without coverage.
func (s *Store) Load(ctx context.Context) error {
	loaded, err := s.backend.LoadEnabledRules(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("loading alert rules failed, falling back to defaults")
		s.installDefaults(ctx)
		return nil
	}
	if len(loaded) == 0 {
		s.logger.Info("no stored alert rules, seeding defaults")
		s.installDefaults(ctx)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ordered = s.ordered[:0]
	s.index = make(map[string]int, len(loaded))
	for i := range loaded {
		s.cacheLocked(&loaded[i])
	}
	s.logger.WithField("count", len(loaded)).Info("alert rules loaded")
	return nil
}

func (s *Store) installDefaults(ctx context.Context) {
	defaults := DefaultRules()

	s.mu.Lock()
	s.ordered = s.ordered[:0]
	s.index = make(map[string]int, len(defaults))
	for i := range defaults {
		s.cacheLocked(&defaults[i])
	}
	s.mu.Unlock()

	for i := range defaults {
		if err := s.backend.InsertRule(ctx, defaults[i]); err != nil {
			s.logger.WithError(err).WithField("rule_id", defaults[i].ID).
				Warn("persisting default rule failed")
		}
	}
}

// cacheLocked inserts or replaces a rule in the cache. Caller holds mu.
func (s *Store) cacheLocked(rule *model.AlertRule) {
	if i, ok := s.index[rule.ID]; ok {
		s.ordered[i] = compile(rule)
		return
	}
	s.index[rule.ID] = len(s.ordered)
	s.ordered = append(s.ordered, compile(rule))
}

// Get returns a copy of the rule with the given id.
func (s *Store) Get(id string) (*model.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *s.ordered[i].rule
	return &copied, nil
}

// List returns copies of all cached rules in load order.
func (s *Store) List() []model.AlertRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AlertRule, 0, len(s.ordered))
	for _, cr := range s.ordered {
		out = append(out, *cr.rule)
	}
	return out
}

// Create persists a new rule and adds it to the cache. The id must be
// unused.
func (s *Store) Create(ctx context.Context, rule model.AlertRule) error {
	if rule.ID == "" {
		return fmt.Errorf("rule id is required")
	}
	s.mu.RLock()
	_, exists := s.index[rule.ID]
	s.mu.RUnlock()
	if exists {
		return fmt.Errorf("rule %s already exists", rule.ID)
	}

	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	if rule.Conditions == nil {
		rule.Conditions = map[string]any{}
	}

	if err := s.backend.InsertRule(ctx, rule); err != nil {
		return fmt.Errorf("persist rule %s: %w", rule.ID, err)
	}

	s.mu.Lock()
	s.cacheLocked(&rule)
	s.mu.Unlock()
	s.logger.WithField("rule_id", rule.ID).Info("alert rule created")
	return nil
}

// RulePatch is a partial rule update. Nil fields are left unchanged.
type RulePatch struct {
	Name        *string
	Description *string
	Category    *model.Category
	Conditions  map[string]any
	Actions     []string
	Enabled     *bool
	Threshold   *float64
	TimeWindow  *int
}

// Update merges the patch into the stored rule, bumps UpdatedAt, and
// persists the result.
func (s *Store) Update(ctx context.Context, id string, patch RulePatch) (*model.AlertRule, error) {
	s.mu.RLock()
	i, ok := s.index[id]
	var current model.AlertRule
	if ok {
		current = *s.ordered[i].rule
	}
	s.mu.RUnlock()
	if !ok {
		return nil, storage.ErrNotFound
	}

	if patch.Name != nil {
		current.Name = *patch.Name
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.Category != nil {
		current.Category = *patch.Category
	}
	if patch.Conditions != nil {
		current.Conditions = patch.Conditions
	}
	if patch.Actions != nil {
		current.Actions = patch.Actions
	}
	if patch.Enabled != nil {
		current.Enabled = *patch.Enabled
	}
	if patch.Threshold != nil {
		current.Threshold = patch.Threshold
	}
	if patch.TimeWindow != nil {
		current.TimeWindow = patch.TimeWindow
	}
	current.UpdatedAt = time.Now().UTC()

	if err := s.backend.UpdateRule(ctx, current); err != nil {
		return nil, fmt.Errorf("persist rule %s: %w", id, err)
	}

	s.mu.Lock()
	s.cacheLocked(&current)
	s.mu.Unlock()
	s.logger.WithField("rule_id", id).Info("alert rule updated")

	copied := current
	return &copied, nil
}

// Delete removes the rule from the backend and the cache.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.RLock()
	_, ok := s.index[id]
	s.mu.RUnlock()
	if !ok {
		return storage.ErrNotFound
	}

	if err := s.backend.DeleteRule(ctx, id); err != nil {
		return fmt.Errorf("delete rule %s: %w", id, err)
	}

	s.mu.Lock()
	i := s.index[id]
	s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.ordered); j++ {
		s.index[s.ordered[j].rule.ID] = j
	}
	s.mu.Unlock()
	s.logger.WithField("rule_id", id).Info("alert rule deleted")
	return nil
}
