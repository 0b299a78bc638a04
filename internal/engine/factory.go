// Package engine wires the alert pipeline: factory, dispatcher, port-scan
// aggregator, and the entry point the classification pipeline calls.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"nids-alert-engine/internal/model"
)

// maxRawFeatures bounds how much of the event's feature vector is retained
// in the alert's threat details for audit.
const maxRawFeatures = 10

// severityFor maps normalized confidence to a severity tier. Zero-day rule
// matches are always critical regardless of confidence.
func severityFor(confidence float64, category model.Category) model.Severity {
	switch {
	case confidence >= 0.9 || category == model.CategoryZeroDayAttack:
		return model.SeverityCritical
	case confidence >= 0.8:
		return model.SeverityHigh
	case confidence >= 0.6:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// BuildAlert synthesizes an alert for a rule match.
func BuildAlert(rule *model.AlertRule, event *model.ClassificationEvent, confidence float64, attackType string) model.Alert {
	modelName := event.Model
	if modelName == "" {
		modelName = "Unknown"
	}

	features := event.Features
	if len(features) > maxRawFeatures {
		features = features[:maxRawFeatures]
	}

	return model.Alert{
		ID:              uuid.NewString(),
		RuleID:          rule.ID,
		Category:        rule.Category,
		Severity:        severityFor(confidence, rule.Category),
		Title:           alertTitle(rule, modelName, event.SourceIP, event.DestinationPort, attackType),
		Message:         alertMessage(rule, event, modelName, confidence, attackType),
		SourceIP:        event.SourceIP,
		DestinationIP:   event.DestinationIP,
		DestinationPort: event.DestinationPort,
		Protocol:        event.Protocol,
		Model:           modelName,
		Confidence:      confidence,
		ThreatDetails: map[string]any{
			"detection_type": event.DetectionType,
			"model_result":   event.ModelResult(),
			"raw_features":   features,
			"interface":      event.Interface,
			"alert_rule":     rule.Name,
		},
		Timestamp:  time.Now().UTC(),
		AttackType: attackType,
	}
}

// alertTitle prefers an attack-type specific title, then a category
// fallback, then a generic one carrying the rule name.
func alertTitle(rule *model.AlertRule, modelName, sourceIP string, port int, attackType string) string {
	if attackType != "" {
		switch attackType {
		case "DDoS":
			return fmt.Sprintf("DDoS Attack Detected from %s", sourceIP)
		case "Port Scan":
			return fmt.Sprintf("Port Scan Activity from %s", sourceIP)
		case "Brute Force":
			return fmt.Sprintf("Brute Force Attack from %s", sourceIP)
		case "Malware":
			return "Malware Traffic Pattern Detected"
		case "Data Exfiltration":
			return fmt.Sprintf("Data Exfiltration Attempt from %s", sourceIP)
		case "Privilege Escalation":
			return fmt.Sprintf("Privilege Escalation Attempt from %s", sourceIP)
		case "Lateral Movement":
			return "Lateral Movement Detected"
		case "Phishing":
			return "Phishing Attempt Detected"
		case "Internal Reconnaissance":
			return "Internal Reconnaissance Detected"
		case "Unauthorized Access":
			return fmt.Sprintf("Unauthorized Access Attempt from %s", sourceIP)
		case "Suspicious Country":
			return fmt.Sprintf("Suspicious Country Source: %s", sourceIP)
		case "High Risk Port":
			return fmt.Sprintf("High Risk Port Access on %d", port)
		case "Reverse Shell":
			return fmt.Sprintf("Reverse Shell Connection from %s", sourceIP)
		case "Backdoor":
			return fmt.Sprintf("Backdoor Exploitation Activity from %s", sourceIP)
		case "Tomcat":
			return fmt.Sprintf("Tomcat Service Targeted on Port %d", port)
		case "SSH Brute Force":
			return fmt.Sprintf("SSH Brute Force from %s", sourceIP)
		case "SYN Flood":
			return fmt.Sprintf("SYN Flood Detected targeting %d", port)
		case "RDP Brute Force":
			return fmt.Sprintf("RDP Brute Force from %s", sourceIP)
		case "Telnet Brute Force":
			return fmt.Sprintf("Telnet Brute Force from %s", sourceIP)
		case "VNC Attack":
			return fmt.Sprintf("VNC Attack from %s", sourceIP)
		case "Database Attack":
			return fmt.Sprintf("Database Attack on Port %d", port)
		case "Mail Server Attack":
			return fmt.Sprintf("Mail Server Attack on Port %d", port)
		case "DNS Attack":
			return fmt.Sprintf("DNS Attack on Port %d", port)
		case "SMB Attack":
			return fmt.Sprintf("SMB/NetBIOS Attack on Port %d", port)
		case "Web Attack":
			return fmt.Sprintf("Web Attack on Port %d", port)
		case "Malware C2":
			return fmt.Sprintf("Malware C2 Communication on Port %d", port)
		case "Phishing Attack":
			return fmt.Sprintf("Phishing Attack on Port %d", port)
		case "Ransomware":
			return fmt.Sprintf("Ransomware Communication on Port %d", port)
		case "Crypto Mining":
			return fmt.Sprintf("Cryptocurrency Mining on Port %d", port)
		case "IoT Attack":
			return fmt.Sprintf("IoT Device Attack on Port %d", port)
		case "ICS Attack":
			return fmt.Sprintf("Industrial Control System Attack on Port %d", port)
		case "File Sharing Attack":
			return fmt.Sprintf("File Sharing Attack on Port %d", port)
		case "Remote Access Attack":
			return fmt.Sprintf("Remote Access Attack on Port %d", port)
		case "Gaming C2":
			return fmt.Sprintf("Gaming C2 Communication on Port %d", port)
		case "Custom App Attack":
			return fmt.Sprintf("Custom Application Attack on Port %d", port)
		case "BENIGN":
			return fmt.Sprintf("Benign Traffic from %s", sourceIP)
		default:
			return fmt.Sprintf("%s Detected from %s", attackType, sourceIP)
		}
	}

	switch rule.Category {
	case model.CategoryThreatDetected:
		return fmt.Sprintf("🚨 Threat Detected by %s", modelName)
	case model.CategoryZeroDayAttack:
		return "⚠️ Potential Zero-day Attack Detected"
	case model.CategoryMultipleAttacks:
		ip := sourceIP
		if ip == "" {
			ip = "Unknown IP"
		}
		return fmt.Sprintf("🔄 Multiple Attacks from %s", ip)
	case model.CategoryHighRiskPort:
		return fmt.Sprintf("🎯 Suspicious Access to Port %d", port)
	case model.CategoryBruteForce:
		return fmt.Sprintf("🔓 Brute Force Attack on Port %d", port)
	case model.CategoryAnomalyDetected:
		return "📊 Unusual Network Behavior Detected"
	default:
		return fmt.Sprintf("⚠️ Security Alert: %s", rule.Name)
	}
}

func alertMessage(rule *model.AlertRule, event *model.ClassificationEvent, modelName string, confidence float64, attackType string) string {
	sourceIP := event.SourceIP
	port := event.DestinationPort
	confidencePct := confidence * 100

	if attackType != "" {
		switch attackType {
		case "DDoS":
			return fmt.Sprintf("A Distributed Denial of Service (DDoS) attack was detected. Source IP: %s. High volume of traffic targeting port %d. Immediate mitigation is recommended.", sourceIP, port)
		case "Brute Force":
			return fmt.Sprintf("Brute force attack suspected: Multiple failed login attempts from %s targeting port %d.", sourceIP, port)
		case "Malware":
			return fmt.Sprintf("Malware-like traffic pattern detected from %s. Communication resembles known malware command-and-control channels. Immediate isolation is recommended.", sourceIP)
		case "Data Exfiltration":
			return fmt.Sprintf("Possible data exfiltration: Large outbound data transfer detected from %s. Review for potential data breach.", sourceIP)
		case "Privilege Escalation":
			return fmt.Sprintf("Privilege escalation attempt detected: Unusual access rights change from %s. Investigate for possible compromise.", sourceIP)
		case "Lateral Movement":
			return fmt.Sprintf("Lateral movement detected: %s is accessing multiple internal hosts, which may indicate attacker pivoting.", sourceIP)
		case "Phishing":
			return fmt.Sprintf("Phishing attempt detected: Traffic from %s matches known phishing campaign patterns.", sourceIP)
		case "Internal Reconnaissance":
			return fmt.Sprintf("Internal reconnaissance detected: %s is scanning other internal hosts.", sourceIP)
		case "Unauthorized Access":
			return fmt.Sprintf("Unauthorized access attempt: %s tried to access restricted resources on port %d.", sourceIP, port)
		case "Suspicious Country":
			return fmt.Sprintf("Suspicious traffic from high-risk country detected. Source IP: %s. Review geolocation and block if necessary.", sourceIP)
		case "High Risk Port":
			return fmt.Sprintf("Suspicious activity detected on high-risk port %d. Source IP: %s.", port, sourceIP)
		case "Reverse Shell":
			return fmt.Sprintf("Potential reverse shell connection detected from %s to port %d. Investigate outbound connections and block suspicious sessions.", sourceIP, port)
		case "Backdoor":
			return fmt.Sprintf("Potential backdoor exploitation activity observed from %s. Check for unauthorized service responses and spawned shells.", sourceIP)
		case "Tomcat":
			return fmt.Sprintf("Traffic targeting Tomcat-related port %d detected with malicious indicators. Review Tomcat/AJP exposure, authentication and patch level.", port)
		case "SSH Brute Force":
			return fmt.Sprintf("SSH brute force behavior detected from %s against port %d. Implement lockout/MFA and review auth logs.", sourceIP, port)
		case "SYN Flood":
			return fmt.Sprintf("SYN flood pattern detected targeting port %d. Consider rate limiting and SYN cookies on perimeter devices.", port)
		case "RDP Brute Force":
			return fmt.Sprintf("RDP brute force attack detected from %s against port %d. Enable Network Level Authentication and strong passwords.", sourceIP, port)
		case "Telnet Brute Force":
			return fmt.Sprintf("Telnet brute force attack detected from %s against port %d. Disable Telnet and use SSH instead.", sourceIP, port)
		case "VNC Attack":
			return fmt.Sprintf("VNC attack detected from %s against port %d. Secure VNC with strong passwords and VPN access.", sourceIP, port)
		case "Database Attack":
			return fmt.Sprintf("Database attack detected from %s against port %d. Review database access controls and enable encryption.", sourceIP, port)
		case "Mail Server Attack":
			return fmt.Sprintf("Mail server attack detected from %s against port %d. Implement SPF, DKIM, and DMARC policies.", sourceIP, port)
		case "DNS Attack":
			return fmt.Sprintf("DNS attack detected from %s against port %d. Monitor for DNS tunneling and cache poisoning attempts.", sourceIP, port)
		case "SMB Attack":
			return fmt.Sprintf("SMB/NetBIOS attack detected from %s against port %d. Disable SMBv1 and implement strong authentication.", sourceIP, port)
		case "Web Attack":
			return fmt.Sprintf("Web application attack detected from %s against port %d. Review web application security and implement WAF.", sourceIP, port)
		case "Malware C2":
			return fmt.Sprintf("Malware command and control communication detected from %s on port %d. Isolate affected systems immediately.", sourceIP, port)
		case "Phishing Attack":
			return fmt.Sprintf("Phishing attack detected from %s against port %d. Implement email security controls and user training.", sourceIP, port)
		case "Ransomware":
			return fmt.Sprintf("Ransomware communication detected from %s on port %d. Isolate systems and check for encryption activities.", sourceIP, port)
		case "Crypto Mining":
			return fmt.Sprintf("Cryptocurrency mining activity detected from %s on port %d. Check for unauthorized mining software.", sourceIP, port)
		case "IoT Attack":
			return fmt.Sprintf("IoT device attack detected from %s against port %d. Secure IoT devices and implement network segmentation.", sourceIP, port)
		case "ICS Attack":
			return fmt.Sprintf("Industrial Control System attack detected from %s against port %d. Isolate OT networks and review SCADA security.", sourceIP, port)
		case "File Sharing Attack":
			return fmt.Sprintf("File sharing attack detected from %s against port %d. Review file sharing permissions and access controls.", sourceIP, port)
		case "Remote Access Attack":
			return fmt.Sprintf("Remote access attack detected from %s against port %d. Implement VPN and multi-factor authentication.", sourceIP, port)
		case "Gaming C2":
			return fmt.Sprintf("Gaming-related command and control communication detected from %s on port %d. Check for unauthorized gaming software.", sourceIP, port)
		case "Custom App Attack":
			return fmt.Sprintf("Custom application attack detected from %s against port %d. Review application security and access controls.", sourceIP, port)
		case "Port Scan":
			return fmt.Sprintf("Port scanning activity detected from %s. Monitor for reconnaissance activities and potential follow-up attacks.", sourceIP)
		case "BENIGN":
			return fmt.Sprintf("Benign traffic detected from %s. No action required.", sourceIP)
		default:
			return fmt.Sprintf("%s detected from %s. Target port: %d. Model: %s. Confidence: %.1f%%. Immediate investigation recommended.", attackType, sourceIP, port, modelName, confidencePct)
		}
	}

	msg := fmt.Sprintf("Security alert triggered by rule '%s'. ", rule.Name)
	switch rule.Category {
	case model.CategoryThreatDetected:
		msg += fmt.Sprintf("The %s model detected malicious activity with %.1f%% confidence.", modelName, confidencePct)
	case model.CategoryZeroDayAttack:
		score := 0.0
		if event.AnomalyScore != nil {
			score = *event.AnomalyScore
		}
		msg += fmt.Sprintf("Kitsune detected potential zero-day attack with anomaly score %.4f.", score)
	case model.CategoryMultipleAttacks:
		msg += fmt.Sprintf("Multiple attack attempts detected from source IP %s.", sourceIP)
	case model.CategoryHighRiskPort:
		msg += fmt.Sprintf("Suspicious activity detected on high-risk port %d.", port)
	case model.CategoryBruteForce:
		msg += fmt.Sprintf("Potential brute force attack detected against port %d.", port)
	}
	if sourceIP != "" {
		msg += fmt.Sprintf(" Source IP: %s.", sourceIP)
	}
	if port != 0 {
		msg += fmt.Sprintf(" Target port: %d.", port)
	}
	msg += " Immediate investigation recommended."
	return msg
}
