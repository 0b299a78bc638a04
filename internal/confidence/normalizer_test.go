package confidence

import (
	"testing"

	"nids-alert-engine/internal/model"
)

func fptr(v float64) *float64 { return &v }

func TestConfidence_ProbabilityRatioBands(t *testing.T) {
	n := NewNormalizer(map[string]float64{"RandomForest": 0.1})

	cases := []struct {
		name string
		prob float64
		want float64
	}{
		{"ratio above 5", 0.6, 0.95},
		{"ratio above 2", 0.25, 0.85},
		{"ratio above 1", 0.15, 0.70},
		{"ratio at or below 1", 0.05, 0.60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := &model.ClassificationEvent{Model: "RandomForest", Probability: fptr(tc.prob)}
			if got := n.Confidence(ev); got != tc.want {
				t.Errorf("Confidence(prob=%v, threshold=0.1) = %v, want %v", tc.prob, got, tc.want)
			}
		})
	}
}

func TestConfidence_ProbabilityAbsoluteBands(t *testing.T) {
	n := NewNormalizer(nil)

	cases := []struct {
		prob float64
		want float64
	}{
		{0.97, 0.95},
		{0.95, 0.95},
		{0.90, 0.85},
		{0.75, 0.70},
		{0.50, 0.60},
	}
	for _, tc := range cases {
		ev := &model.ClassificationEvent{Model: "RandomForest", Probability: fptr(tc.prob)}
		if got := n.Confidence(ev); got != tc.want {
			t.Errorf("Confidence(prob=%v, no threshold) = %v, want %v", tc.prob, got, tc.want)
		}
	}
}

func TestConfidence_AnomalyRatioBands(t *testing.T) {
	n := NewNormalizer(map[string]float64{"Kitsune": 0.02})

	cases := []struct {
		score float64
		want  float64
	}{
		{0.12, 0.95},  // ratio 6
		{0.05, 0.85},  // ratio 2.5
		{0.03, 0.75},  // ratio 1.5
		{0.015, 0.65}, // ratio 0.75
		{0.005, 0.55}, // ratio 0.25
	}
	for _, tc := range cases {
		ev := &model.ClassificationEvent{Model: "Kitsune", AnomalyScore: fptr(tc.score)}
		if got := n.Confidence(ev); got != tc.want {
			t.Errorf("Confidence(score=%v, threshold=0.02) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestConfidence_AnomalyAbsoluteBands(t *testing.T) {
	n := NewNormalizer(nil)

	cases := []struct {
		score float64
		want  float64
	}{
		{20000, 0.95},
		{5000, 0.85},
		{500, 0.75},
		{50, 0.65},
		{5, 0.55},
	}
	for _, tc := range cases {
		ev := &model.ClassificationEvent{Model: "Kitsune", AnomalyScore: fptr(tc.score)}
		if got := n.Confidence(ev); got != tc.want {
			t.Errorf("Confidence(score=%v, no threshold) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestConfidence_NeitherValuePresent(t *testing.T) {
	n := NewNormalizer(nil)
	ev := &model.ClassificationEvent{Model: "RandomForest"}
	if got := n.Confidence(ev); got != DefaultConfidence {
		t.Errorf("Confidence(no score) = %v, want %v", got, DefaultConfidence)
	}
}

func TestConfidence_EventThresholdBeatsConfigured(t *testing.T) {
	// Config says 0.5 but the event carries 0.1; with prob 0.6 the event
	// threshold yields ratio 6 -> 0.95, the config one would yield 0.70.
	n := NewNormalizer(map[string]float64{"RandomForest": 0.5})
	ev := &model.ClassificationEvent{
		Model:       "RandomForest",
		Probability: fptr(0.6),
		Threshold:   fptr(0.1),
	}
	if got := n.Confidence(ev); got != 0.95 {
		t.Errorf("Confidence with event threshold = %v, want 0.95", got)
	}
}

func TestConfidence_Monotonicity(t *testing.T) {
	n := NewNormalizer(map[string]float64{"RandomForest": 0.1})
	prev := 0.0
	for _, prob := range []float64{0.05, 0.15, 0.25, 0.6} {
		ev := &model.ClassificationEvent{Model: "RandomForest", Probability: fptr(prob)}
		got := n.Confidence(ev)
		if got < prev {
			t.Errorf("confidence decreased: prob=%v got %v after %v", prob, got, prev)
		}
		prev = got
	}
}
