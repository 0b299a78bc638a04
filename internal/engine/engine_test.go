package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"nids-alert-engine/internal/behavior"
	"nids-alert-engine/internal/confidence"
	"nids-alert-engine/internal/model"
	"nids-alert-engine/internal/rules"
	"nids-alert-engine/internal/storage"
)

type fakeNotifier struct {
	sent []model.Alert
}

func (f *fakeNotifier) SendAlert(a model.Alert) error {
	f.sent = append(f.sent, a)
	return nil
}

type testHarness struct {
	eng        *AlertEngine
	dispatcher *Dispatcher
	store      *storage.MemoryStore
	ws         *fakeNotifier
	log        *fakeNotifier
}

func newTestHarness(t *testing.T, ruleList ...model.AlertRule) *testHarness {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	store := storage.NewMemoryStore(0, logger)
	ruleStore := rules.NewStore(store, logger)
	for _, r := range ruleList {
		r.Enabled = true
		if err := ruleStore.Create(context.Background(), r); err != nil {
			t.Fatalf("Create rule %s: %v", r.ID, err)
		}
	}

	tracker := behavior.NewTracker(20, 5*time.Minute, logger)
	normalizer := confidence.NewNormalizer(map[string]float64{"RandomForest": 0.5})

	dispatcher := NewDispatcher(DispatcherConfig{
		RecentBufferSize: 1000,
		DedupWindow:      5 * time.Second,
		DedupScanDepth:   50,
		QueueSize:        256,
	}, store, nil, logger)

	ws := &fakeNotifier{}
	lg := &fakeNotifier{}
	dispatcher.RegisterNotifier(model.ActionWebsocket, ws)
	dispatcher.RegisterNotifier(model.ActionLog, lg)

	eng := NewAlertEngine(tracker, normalizer, ruleStore, dispatcher, PortScanConfig{
		Window:        10 * time.Second,
		PortThreshold: 10,
	}, nil, logger)

	return &testHarness{eng: eng, dispatcher: dispatcher, store: store, ws: ws, log: lg}
}

// drain processes everything queued without starting the worker goroutine,
// keeping tests deterministic.
func (h *testHarness) drain() {
	for {
		select {
		case job := <-h.dispatcher.queue:
			h.dispatcher.process(context.Background(), job)
		default:
			return
		}
	}
}

func (h *testHarness) persistedCount(t *testing.T) int64 {
	t.Helper()
	_, total, err := h.store.ListAlerts(context.Background(), storage.AlertQuery{})
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	return total
}

func attackDetection(sourceIP string, port int) *model.ClassificationEvent {
	p := 0.9
	return &model.ClassificationEvent{
		Model:           "RandomForest",
		Prediction:      "Attack",
		Probability:     &p,
		SourceIP:        sourceIP,
		DestinationIP:   "10.0.0.5",
		DestinationPort: port,
		Protocol:        model.ProtocolTCP,
		DetectionType:   "flow",
	}
}

func normalDetection(sourceIP string, port int) *model.ClassificationEvent {
	p := 0.1
	ev := attackDetection(sourceIP, port)
	ev.Prediction = "Normal"
	ev.Probability = &p
	return ev
}

func threatRule() model.AlertRule {
	return model.AlertRule{
		ID:         "threat_detection",
		Name:       "Threat Detection Alert",
		Category:   model.CategoryThreatDetected,
		Conditions: map[string]any{"prediction": "Attack"},
		Actions:    []string{model.ActionWebsocket, model.ActionLog, model.ActionStore},
	}
}

func TestProcessDetection_AttackGeneratesAlert(t *testing.T) {
	h := newTestHarness(t, threatRule())

	h.eng.ProcessDetection(attackDetection("203.0.113.1", 8000))
	h.drain()

	if got := h.persistedCount(t); got != 1 {
		t.Fatalf("persisted alerts = %d, want 1", got)
	}
	if len(h.ws.sent) != 1 {
		t.Errorf("websocket notifications = %d, want 1", len(h.ws.sent))
	}
	if len(h.log.sent) != 1 {
		t.Errorf("log notifications = %d, want 1", len(h.log.sent))
	}

	history, err := h.store.GetHistory(context.Background(), h.ws.sent[0].ID)
	if err != nil || len(history) != 1 || history[0].Action != "created" {
		t.Errorf("created history entry missing: %v %v", history, err)
	}
}

func TestProcessDetection_NormalTrafficNoRuleAlerts(t *testing.T) {
	h := newTestHarness(t, threatRule())

	h.eng.ProcessDetection(normalDetection("192.168.1.10", 443))
	h.drain()

	if got := h.persistedCount(t); got != 0 {
		t.Errorf("persisted alerts = %d, want 0", got)
	}
}

func TestDedup_SuppressesWebsocketOnly(t *testing.T) {
	h := newTestHarness(t, threatRule())

	h.eng.ProcessDetection(attackDetection("203.0.113.1", 8000))
	h.eng.ProcessDetection(attackDetection("203.0.113.1", 8000))
	h.drain()

	// Both alerts are persisted and buffered, only the live feed is deduped.
	if got := h.persistedCount(t); got != 2 {
		t.Errorf("persisted alerts = %d, want 2", got)
	}
	if got := len(h.dispatcher.Recent(10)); got != 2 {
		t.Errorf("buffered alerts = %d, want 2", got)
	}
	if len(h.ws.sent) != 1 {
		t.Errorf("websocket notifications = %d, want 1 (duplicate suppressed)", len(h.ws.sent))
	}
	if len(h.log.sent) != 2 {
		t.Errorf("log notifications = %d, want 2 (log not deduped)", len(h.log.sent))
	}
}

func TestDedup_DifferentSourceNotSuppressed(t *testing.T) {
	h := newTestHarness(t, threatRule())

	h.eng.ProcessDetection(attackDetection("203.0.113.1", 8000))
	h.eng.ProcessDetection(attackDetection("203.0.113.2", 8000))
	h.drain()

	if len(h.ws.sent) != 2 {
		t.Errorf("websocket notifications = %d, want 2", len(h.ws.sent))
	}
}

func TestRepeatCountRule_FiresOnThirdAttack(t *testing.T) {
	h := newTestHarness(t, model.AlertRule{
		ID:         "ssh_brute_force_detection",
		Name:       "SSH Brute Force Attack",
		Category:   model.CategoryBruteForce,
		Conditions: map[string]any{"ports": []int{22}, "repeat_count": 3},
		Actions:    []string{model.ActionStore},
	})

	h.eng.ProcessDetection(attackDetection("203.0.113.1", 22))
	h.eng.ProcessDetection(attackDetection("203.0.113.1", 22))
	h.drain()
	if got := h.persistedCount(t); got != 0 {
		t.Fatalf("persisted alerts after 2 attacks = %d, want 0", got)
	}

	// The third event's own counter update is visible to its rule pass.
	h.eng.ProcessDetection(attackDetection("203.0.113.1", 22))
	h.drain()
	if got := h.persistedCount(t); got != 1 {
		t.Errorf("persisted alerts after 3 attacks = %d, want 1", got)
	}
}

func TestPortScanAggregator_FiresOnceThenClears(t *testing.T) {
	h := newTestHarness(t) // no rules; the aggregator is rule-independent

	for p := 0; p < 12; p++ {
		h.eng.ProcessDetection(normalDetection("198.51.100.7", 2000+p))
	}
	h.drain()

	alerts := h.dispatcher.Recent(10)
	if len(alerts) != 1 {
		t.Fatalf("aggregator alerts = %d, want exactly 1", len(alerts))
	}
	a := alerts[0]
	if a.RuleID != "port_scan_rule" || a.Category != model.CategoryPortScan {
		t.Errorf("RuleID=%q Category=%q", a.RuleID, a.Category)
	}
	if a.Severity != model.SeverityHigh || a.Confidence != 1.0 || a.Model != "Rule-based" {
		t.Errorf("aggregator alert fields: %+v", a)
	}
	if a.AttackType != "Port Scan" {
		t.Errorf("AttackType = %q", a.AttackType)
	}
	ports, ok := a.ThreatDetails["ports_scanned"].([]int)
	if !ok || len(ports) < 10 {
		t.Errorf("ports_scanned detail = %v", a.ThreatDetails["ports_scanned"])
	}
}

func TestPortScanAggregator_CountsAttackTrafficToo(t *testing.T) {
	h := newTestHarness(t)

	for p := 0; p < 5; p++ {
		h.eng.ProcessDetection(normalDetection("198.51.100.7", 3000+p))
	}
	for p := 5; p < 10; p++ {
		h.eng.ProcessDetection(attackDetection("198.51.100.7", 3000+p))
	}
	h.drain()

	found := false
	for _, a := range h.dispatcher.Recent(20) {
		if a.RuleID == "port_scan_rule" {
			found = true
		}
	}
	if !found {
		t.Error("mixed attack/normal port walk did not trigger the aggregator")
	}
}

func TestProcessDetection_PanicContained(t *testing.T) {
	h := newTestHarness(t, threatRule())

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic escaped ProcessDetection: %v", r)
		}
	}()
	h.eng.ProcessDetection(nil)
}

func TestDispatcher_SynchronousFallbackWhenQueueFull(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	store := storage.NewMemoryStore(0, logger)
	d := NewDispatcher(DispatcherConfig{QueueSize: 1}, store, nil, logger)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		a := model.Alert{
			ID:        fmt.Sprintf("a%d", i),
			Category:  model.CategoryThreatDetected,
			Severity:  model.SeverityLow,
			Title:     "t",
			Timestamp: time.Now().UTC(),
		}
		d.Dispatch(ctx, a, []string{model.ActionStore})
	}

	// One alert sits in the queue; the overflow was processed inline.
	_, total, err := store.ListAlerts(ctx, storage.AlertQuery{})
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if total != 2 {
		t.Errorf("inline-processed alerts = %d, want 2", total)
	}
}
