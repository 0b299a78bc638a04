package model

import "time"

// Severity is the alert severity tier.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Category classifies what kind of condition a rule (and its alerts) covers.
type Category string

const (
	CategoryThreatDetected  Category = "threat_detected"
	CategoryAnomalyDetected Category = "anomaly_detected"
	CategoryMultipleAttacks Category = "multiple_attacks"
	CategorySuspiciousIP    Category = "suspicious_ip"
	CategoryHighRiskPort    Category = "high_risk_port"
	CategoryZeroDayAttack   Category = "zero_day_attack"
	CategoryBruteForce      Category = "brute_force"
	CategorySystemOverload  Category = "system_overload"

	// CategoryPortScan marks alerts synthesized by the port-scan aggregator
	// rather than by a configured rule.
	CategoryPortScan Category = "port_scan_rule"
)

// Alert is one user-facing security alert. Everything except the
// acknowledgment and resolution fields is immutable after creation.
type Alert struct {
	ID              string         `json:"id"`
	RuleID          string         `json:"rule_id"`
	Category        Category       `json:"alert_type"`
	Severity        Severity       `json:"level"`
	Title           string         `json:"title"`
	Message         string         `json:"message"`
	SourceIP        string         `json:"source_ip,omitempty"`
	DestinationIP   string         `json:"destination_ip,omitempty"`
	DestinationPort int            `json:"target_port,omitempty"`
	Protocol        string         `json:"protocol,omitempty"`
	Model           string         `json:"model,omitempty"`
	Confidence      float64        `json:"confidence"`
	ThreatDetails   map[string]any `json:"threat_details,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
	Acknowledged    bool           `json:"acknowledged"`
	AcknowledgedBy  string         `json:"acknowledged_by,omitempty"`
	AcknowledgedAt  *time.Time     `json:"acknowledged_at,omitempty"`
	Resolved        bool           `json:"resolved"`
	ResolvedBy      string         `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty"`
	AttackType      string         `json:"attack_type,omitempty"`
}

// AlertHistoryEntry is one append-only audit record for an alert.
type AlertHistoryEntry struct {
	AlertID   string    `json:"alert_id"`
	Action    string    `json:"action"` // created, acknowledged, resolved
	User      string    `json:"user,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details"`
}
