package rules

import "nids-alert-engine/internal/model"

// compiledRule pairs a stored rule with its parsed conditions so evaluation
// does not re-walk the raw condition map on every event.
type compiledRule struct {
	rule  *model.AlertRule
	conds []Condition
}

func compile(rule *model.AlertRule) compiledRule {
	return compiledRule{rule: rule, conds: ParseConditions(rule.Conditions)}
}

// matches reports whether every condition on the rule holds for the event,
// including the optional rule-level confidence threshold. Conditions are
// conjunctive and short-circuit on the first miss.
func (c compiledRule) matches(ctx EvalContext) bool {
	if c.rule.Threshold != nil && ctx.Confidence < *c.rule.Threshold {
		return false
	}
	for _, cond := range c.conds {
		if !cond.Matches(ctx) {
			return false
		}
	}
	return true
}

// Evaluate runs the event against every enabled rule and returns the rules
// that fired, in store order.
func (s *Store) Evaluate(ctx EvalContext) []*model.AlertRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*model.AlertRule
	for _, cr := range s.ordered {
		if !cr.rule.Enabled {
			continue
		}
		if cr.matches(ctx) {
			matched = append(matched, cr.rule)
		}
	}
	return matched
}
