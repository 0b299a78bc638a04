package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"nids-alert-engine/internal/model"
)

// PortScanConfig tunes the rule-independent port-scan aggregator.
type PortScanConfig struct {
	Window        time.Duration
	PortThreshold int
}

// portScanActions is the fixed action set for aggregator alerts; they are
// not tied to any stored rule.
var portScanActions = []string{model.ActionWebsocket, model.ActionLog, model.ActionStore}

// checkPortScan inspects the source IP's recent port history and emits a
// port-scan alert once the distinct-port threshold is crossed inside the
// window. The history is cleared after firing so the next alert requires a
// fresh burst.
func (e *AlertEngine) checkPortScan(ev *model.ClassificationEvent) {
	if ev.SourceIP == "" {
		return
	}
	ports := e.tracker.RecentDistinctPorts(ev.SourceIP, e.portScan.Window)
	if len(ports) < e.portScan.PortThreshold {
		return
	}

	windowSeconds := int(e.portScan.Window / time.Second)
	a := model.Alert{
		ID:       uuid.NewString(),
		RuleID:   "port_scan_rule",
		Category: model.CategoryPortScan,
		Severity: model.SeverityHigh,
		Title:    fmt.Sprintf("Port Scan Detected from %s", ev.SourceIP),
		Message: fmt.Sprintf("Port scan behavior detected: Source IP %s accessed %d different ports in %d seconds.",
			ev.SourceIP, len(ports), windowSeconds),
		SourceIP:      ev.SourceIP,
		DestinationIP: ev.DestinationIP,
		Protocol:      ev.Protocol,
		Model:         "Rule-based",
		Confidence:    1.0,
		ThreatDetails: map[string]any{
			"ports_scanned":  ports,
			"window_seconds": windowSeconds,
		},
		Timestamp:  time.Now().UTC(),
		AttackType: "Port Scan",
	}

	e.tracker.ClearHistory(ev.SourceIP)
	e.dispatcher.Dispatch(e.ctx, a, portScanActions)
}
