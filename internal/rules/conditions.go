package rules

import "nids-alert-engine/internal/model"

// CounterSource exposes the per-source and per-port attack counters a
// condition may consult. Satisfied by behavior.Tracker.
type CounterSource interface {
	AttackCount(ip string) int
	PortAttackCount(port int) int
}

// EvalContext carries everything a condition can look at for one event.
type EvalContext struct {
	Event      *model.ClassificationEvent
	Confidence float64
	Counts     CounterSource
}

// Condition is a single compiled rule predicate. All conditions on a rule
// must hold for it to fire.
type Condition interface {
	Matches(ctx EvalContext) bool
}

type predictionEquals struct{ want string }

func (c predictionEquals) Matches(ctx EvalContext) bool {
	return ctx.Event.Prediction == c.want
}

type modelEquals struct{ want string }

func (c modelEquals) Matches(ctx EvalContext) bool {
	return ctx.Event.Model == c.want
}

type minConfidence struct{ min float64 }

func (c minConfidence) Matches(ctx EvalContext) bool {
	return ctx.Confidence >= c.min
}

// portsIn matches when the destination port is one of the listed ports.
// An event without a destination port never matches.
type portsIn struct{ ports []int }

func (c portsIn) Matches(ctx EvalContext) bool {
	port := ctx.Event.DestinationPort
	if port == 0 {
		return false
	}
	for _, p := range c.ports {
		if p == port {
			return true
		}
	}
	return false
}

// sameIPCountAtLeast matches once the source IP has accumulated at least n
// attack detections. Events without a source IP never match.
type sameIPCountAtLeast struct{ n int }

func (c sameIPCountAtLeast) Matches(ctx EvalContext) bool {
	ip := ctx.Event.SourceIP
	if ip == "" {
		return false
	}
	return ctx.Counts.AttackCount(ip) >= c.n
}

// repeatCountAtLeast matches once the destination port has seen at least n
// attack detections. Events without a destination port never match.
type repeatCountAtLeast struct{ n int }

func (c repeatCountAtLeast) Matches(ctx EvalContext) bool {
	port := ctx.Event.DestinationPort
	if port == 0 {
		return false
	}
	return ctx.Counts.PortAttackCount(port) >= c.n
}

// ParseConditions compiles a rule's raw condition map into predicates.
// Unknown keys are ignored so rules written against newer engines still
// load. Malformed values for known keys compile to nothing rather than
// failing the whole rule.
func ParseConditions(raw map[string]any) []Condition {
	if len(raw) == 0 {
		return nil
	}
	conds := make([]Condition, 0, len(raw))
	if v, ok := asString(raw["prediction"]); ok {
		conds = append(conds, predictionEquals{want: v})
	}
	if v, ok := asString(raw["model"]); ok {
		conds = append(conds, modelEquals{want: v})
	}
	if v, ok := asFloat(raw["min_confidence"]); ok {
		conds = append(conds, minConfidence{min: v})
	}
	if ports, ok := asIntSlice(raw["ports"]); ok {
		conds = append(conds, portsIn{ports: ports})
	}
	if v, ok := asInt(raw["same_ip_count"]); ok {
		conds = append(conds, sameIPCountAtLeast{n: v})
	}
	if v, ok := asInt(raw["repeat_count"]); ok {
		conds = append(conds, repeatCountAtLeast{n: v})
	}
	return conds
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asIntSlice(v any) ([]int, bool) {
	items, ok := v.([]any)
	if !ok {
		// YAML decoding of a rule file can hand us a typed slice directly.
		if typed, ok := v.([]int); ok {
			return typed, len(typed) > 0
		}
		return nil, false
	}
	ports := make([]int, 0, len(items))
	for _, item := range items {
		p, ok := asInt(item)
		if !ok {
			return nil, false
		}
		ports = append(ports, p)
	}
	return ports, len(ports) > 0
}
