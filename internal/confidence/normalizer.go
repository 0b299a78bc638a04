// Package confidence maps raw classifier outputs to the engine's bounded,
// threshold-aware confidence signal used for severity assignment.
package confidence

import "nids-alert-engine/internal/model"

// DefaultConfidence is returned when an event carries neither a probability
// nor an anomaly score.
const DefaultConfidence = 0.6

// Normalizer converts probabilities and anomaly scores into confidence
// values in a fixed band set. Thresholds is a read-only per-model decision
// threshold cache loaded once at startup; it is never mutated afterwards.
type Normalizer struct {
	thresholds map[string]float64
}

// NewNormalizer builds a normalizer over the given per-model thresholds.
func NewNormalizer(thresholds map[string]float64) *Normalizer {
	if thresholds == nil {
		thresholds = map[string]float64{}
	}
	return &Normalizer{thresholds: thresholds}
}

// Threshold resolves the decision threshold for an event. Priority: the
// threshold carried on the event, then the configured per-model value. The
// second return is false when neither is known.
func (n *Normalizer) Threshold(ev *model.ClassificationEvent) (float64, bool) {
	if ev.Threshold != nil {
		return *ev.Threshold, true
	}
	if v, ok := n.thresholds[ev.Model]; ok {
		return v, true
	}
	return 0, false
}

// Confidence computes the normalized confidence for an event. The band
// tables are fixed; callers depend on the exact output set
// {0.55, 0.60, 0.65, 0.70, 0.75, 0.85, 0.95}.
func (n *Normalizer) Confidence(ev *model.ClassificationEvent) float64 {
	threshold, hasThreshold := n.Threshold(ev)

	if ev.Probability != nil {
		prob := *ev.Probability
		if hasThreshold && threshold > 0 {
			ratio := prob / threshold
			switch {
			case ratio > 5:
				return 0.95
			case ratio > 2:
				return 0.85
			case ratio > 1:
				return 0.70
			default:
				return 0.60
			}
		}
		switch {
		case prob >= 0.95:
			return 0.95
		case prob >= 0.85:
			return 0.85
		case prob >= 0.70:
			return 0.70
		default:
			return 0.60
		}
	}

	if ev.AnomalyScore != nil {
		score := *ev.AnomalyScore
		if hasThreshold && threshold > 0 {
			ratio := score / threshold
			switch {
			case ratio > 5:
				return 0.95
			case ratio > 2:
				return 0.85
			case ratio > 1:
				return 0.75
			case ratio > 0.5:
				return 0.65
			default:
				return 0.55
			}
		}
		switch {
		case score > 10000:
			return 0.95
		case score > 1000:
			return 0.85
		case score > 100:
			return 0.75
		case score > 10:
			return 0.65
		default:
			return 0.55
		}
	}

	return DefaultConfidence
}
