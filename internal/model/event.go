package model

// Protocols as reported by the upstream feature extractor.
const (
	ProtocolTCP  = "TCP"
	ProtocolUDP  = "UDP"
	ProtocolICMP = "ICMP"
)

// ClassificationEvent is one verdict from an upstream ML detector for a
// packet or flow. It is the engine's sole input and is never persisted by
// the engine itself.
type ClassificationEvent struct {
	Model      string `json:"model"`
	Prediction string `json:"prediction"` // "Attack"/"Normal", or "1"/"0"

	// At most one of Probability and AnomalyScore drives confidence
	// normalization; nil means the model does not report that kind of score.
	Probability  *float64 `json:"probability,omitempty"`
	AnomalyScore *float64 `json:"anomaly_score,omitempty"`

	// Threshold is a decision threshold carried on the event itself. It takes
	// priority over any threshold configured per model name.
	Threshold *float64 `json:"threshold,omitempty"`

	AttackType      string `json:"attack_type,omitempty"` // explicit upstream label
	SourceIP        string `json:"src_ip,omitempty"`
	DestinationIP   string `json:"dst_ip,omitempty"`
	DestinationPort int    `json:"dst_port,omitempty"` // 0 = unknown
	Protocol        string `json:"protocol,omitempty"`
	TCPFlags        string `json:"tcp_flags,omitempty"`

	// Features is a bounded slice of the original feature vector, retained
	// for the alert audit payload only.
	Features []float64 `json:"features,omitempty"`

	DetectionType string `json:"type,omitempty"` // e.g. "realtime", "pcap"
	Interface     string `json:"interface,omitempty"`
}

// IsAttack reports whether the event is a positive detection. Upstream
// models emit either a label or a numeric class.
func (ev *ClassificationEvent) IsAttack() bool {
	return ev.Prediction == "Attack" || ev.Prediction == "1"
}

// ModelResult returns the raw model output fields for the alert audit
// payload.
func (ev *ClassificationEvent) ModelResult() map[string]any {
	result := map[string]any{
		"model":      ev.Model,
		"prediction": ev.Prediction,
	}
	if ev.Probability != nil {
		result["probability"] = *ev.Probability
	}
	if ev.AnomalyScore != nil {
		result["anomaly_score"] = *ev.AnomalyScore
	}
	if ev.Threshold != nil {
		result["threshold"] = *ev.Threshold
	}
	if ev.TCPFlags != "" {
		result["tcp_flags"] = ev.TCPFlags
	}
	return result
}
