package rules

import (
	"time"

	"nids-alert-engine/internal/model"
)

func f64(v float64) *float64 { return &v }
func iptr(v int) *int        { return &v }

// DefaultRules returns the built-in rule set installed when persistent
// storage holds no rules. Rules whose conditions use only informational
// keys (country, malware_signature, ...) compile to no predicates and so
// fire on every positive detection; the dispatcher's dedup keeps them from
// flooding the live feed.
func DefaultRules() []model.AlertRule {
	now := time.Now().UTC()
	rules := []model.AlertRule{
		{
			ID:          "threat_detection",
			Name:        "Threat Detection Alert",
			Description: "Triggered when any ML model detects a threat",
			Category:    model.CategoryThreatDetected,
			Conditions:  map[string]any{"prediction": "Attack"},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore},
			Threshold:   f64(0.7),
		},
		{
			ID:          "high_confidence_threat",
			Name:        "High Confidence Threat",
			Description: "Triggered for high-confidence threat detections",
			Category:    model.CategoryThreatDetected,
			Conditions:  map[string]any{"prediction": "Attack", "min_confidence": 0.9},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore, model.ActionEmail},
			Threshold:   f64(0.9),
		},
		{
			ID:          "multiple_attacks_same_ip",
			Name:        "Multiple Attacks from Same IP",
			Description: "Multiple attacks detected from the same source IP",
			Category:    model.CategoryMultipleAttacks,
			Conditions:  map[string]any{"same_ip_count": 5},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore},
			TimeWindow:  iptr(15),
		},
		{
			ID:          "suspicious_ports",
			Name:        "Suspicious Port Access",
			Description: "Access to commonly attacked ports",
			Category:    model.CategoryHighRiskPort,
			Conditions:  map[string]any{"ports": []int{22, 23, 80, 443, 8080, 8180, 8009, 3389, 445, 135, 21}},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore},
		},
		{
			ID:          "zero_day_detection",
			Name:        "Zero-day Attack Detection",
			Description: "Kitsune model detects potential zero-day attack",
			Category:    model.CategoryZeroDayAttack,
			Conditions:  map[string]any{"model": "Kitsune", "prediction": "Attack"},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore, model.ActionEmail},
			Threshold:   f64(0.02),
		},
		{
			ID:          "brute_force_detection",
			Name:        "Brute Force Attack",
			Description: "Multiple failed login attempts detected",
			Category:    model.CategoryBruteForce,
			Conditions:  map[string]any{"ports": []int{22, 23, 3389, 21}, "repeat_count": 5},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore},
			TimeWindow:  iptr(5),
		},
		{
			ID:          "ssh_brute_force_detection",
			Name:        "SSH Brute Force Attack",
			Description: "SSH brute force attack detected on port 22",
			Category:    model.CategoryBruteForce,
			Conditions:  map[string]any{"ports": []int{22}, "repeat_count": 3},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore},
			TimeWindow:  iptr(3),
		},
		{
			ID:          "port_scan_detection",
			Name:        "Port Scan Detected",
			Description: "Multiple ports accessed from same IP in short time (possible scan)",
			Category:    model.CategoryAnomalyDetected,
			Conditions:  map[string]any{"ports_scanned": 10, "time_window": 2},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore},
		},
		{
			ID:          "ddos_detection",
			Name:        "DDoS Attack Detected",
			Description: "High volume of connections from many IPs (possible DDoS)",
			Category:    model.CategoryAnomalyDetected,
			Conditions:  map[string]any{"unique_ips": 50, "connection_rate": 1000, "time_window": 1},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore, model.ActionEmail},
		},
		{
			ID:          "suspicious_country",
			Name:        "Suspicious Country Source",
			Description: "Traffic from high-risk or geo-blocked country",
			Category:    model.CategorySuspiciousIP,
			Conditions:  map[string]any{"country": []any{"RU", "CN", "KP", "IR", "SY"}},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore, model.ActionEmail},
		},
		{
			ID:          "malware_traffic",
			Name:        "Malware Traffic Pattern",
			Description: "Traffic matches known malware C2 pattern",
			Category:    model.CategoryThreatDetected,
			Conditions:  map[string]any{"malware_signature": true},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore, model.ActionEmail},
		},
		{
			ID:          "ransomware_behavior",
			Name:        "Ransomware Behavior",
			Description: "Rapid file access and encryption pattern detected",
			Category:    model.CategoryAnomalyDetected,
			Conditions:  map[string]any{"ransomware_behavior": true},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore, model.ActionEmail},
		},
		{
			ID:          "data_exfiltration",
			Name:        "Data Exfiltration",
			Description: "Large outbound data transfer detected",
			Category:    model.CategoryAnomalyDetected,
			Conditions:  map[string]any{"outbound_data_mb": 100, "time_window": 5},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore, model.ActionEmail},
		},
		{
			ID:          "privilege_escalation",
			Name:        "Privilege Escalation Attempt",
			Description: "Unusual privilege escalation detected",
			Category:    model.CategoryAnomalyDetected,
			Conditions:  map[string]any{"privilege_escalation": true},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore, model.ActionEmail},
		},
		{
			ID:          "lateral_movement",
			Name:        "Lateral Movement",
			Description: "Suspicious lateral movement in network",
			Category:    model.CategoryAnomalyDetected,
			Conditions:  map[string]any{"lateral_movement": true},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore, model.ActionEmail},
		},
		{
			ID:          "phishing_attempt",
			Name:        "Phishing Attempt",
			Description: "Traffic pattern matches known phishing campaign",
			Category:    model.CategoryThreatDetected,
			Conditions:  map[string]any{"phishing_signature": true},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore, model.ActionEmail},
		},
		{
			ID:          "internal_recon",
			Name:        "Internal Reconnaissance",
			Description: "Internal host scanning other internal hosts",
			Category:    model.CategoryAnomalyDetected,
			Conditions:  map[string]any{"internal_scan": true},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore},
		},
		{
			ID:          "unauthorized_access",
			Name:        "Unauthorized Access Attempt",
			Description: "Access to restricted resource detected",
			Category:    model.CategoryThreatDetected,
			Conditions:  map[string]any{"unauthorized_access": true},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore, model.ActionEmail},
		},
		{
			ID:          "system_overload",
			Name:        "Detection System Overload",
			Description: "Sustained detection volume beyond processing capacity",
			Category:    model.CategorySystemOverload,
			Conditions:  map[string]any{"event_rate": 500, "time_window": 1},
			Actions:     []string{model.ActionWebsocket, model.ActionLog, model.ActionStore},
		},
	}
	for i := range rules {
		rules[i].Enabled = true
		rules[i].CreatedAt = now
		rules[i].UpdatedAt = now
	}
	return rules
}
