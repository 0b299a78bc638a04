package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"nids-alert-engine/internal/model"
)

func newTestStore() *MemoryStore {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewMemoryStore(0, logger)
}

func makeAlert(id string, severity model.Severity, ts time.Time) model.Alert {
	return model.Alert{
		ID:        id,
		RuleID:    "threat_detection",
		Category:  model.CategoryThreatDetected,
		Severity:  severity,
		Title:     "test alert " + id,
		Message:   "message",
		SourceIP:  "10.0.0.1",
		Model:     "RandomForest",
		Timestamp: ts,
	}
}

func TestInsertGetAlert(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	a := makeAlert("a1", model.SeverityHigh, time.Now().UTC())
	if err := s.InsertAlert(ctx, a); err != nil {
		t.Fatalf("InsertAlert: %v", err)
	}

	got, err := s.GetAlert(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAlert: %v", err)
	}
	if got.Title != a.Title || got.Severity != a.Severity {
		t.Errorf("alert round trip mismatch: %+v", got)
	}

	if _, err := s.GetAlert(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAlert(missing) = %v, want ErrNotFound", err)
	}
}

func TestListAlerts_PaginationAndOrder(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 25; i++ {
		a := makeAlert(fmt.Sprintf("a%02d", i), model.SeverityLow, base.Add(time.Duration(i)*time.Second))
		if err := s.InsertAlert(ctx, a); err != nil {
			t.Fatalf("InsertAlert: %v", err)
		}
	}

	page1, total, err := s.ListAlerts(ctx, AlertQuery{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if total != 25 {
		t.Errorf("total = %d, want 25", total)
	}
	if len(page1) != 10 {
		t.Fatalf("page 1 size = %d, want 10", len(page1))
	}
	if page1[0].ID != "a24" {
		t.Errorf("newest first violated: first = %s", page1[0].ID)
	}

	page3, _, err := s.ListAlerts(ctx, AlertQuery{Page: 3, PerPage: 10})
	if err != nil {
		t.Fatalf("ListAlerts page 3: %v", err)
	}
	if len(page3) != 5 {
		t.Errorf("page 3 size = %d, want 5", len(page3))
	}

	empty, _, err := s.ListAlerts(ctx, AlertQuery{Page: 4, PerPage: 10})
	if err != nil {
		t.Fatalf("ListAlerts page 4: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("page past the end returned %d alerts", len(empty))
	}
}

func TestListAlerts_Filters(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	base := time.Now().UTC()

	s.InsertAlert(ctx, makeAlert("old", model.SeverityLow, base.Add(-2*time.Hour)))
	s.InsertAlert(ctx, makeAlert("high", model.SeverityHigh, base))
	resolved := makeAlert("done", model.SeverityHigh, base)
	resolved.Resolved = true
	s.InsertAlert(ctx, resolved)

	byLevel, total, _ := s.ListAlerts(ctx, AlertQuery{Level: model.SeverityHigh})
	if total != 2 || len(byLevel) != 2 {
		t.Errorf("level filter: total=%d len=%d, want 2/2", total, len(byLevel))
	}

	since := base.Add(-time.Hour)
	_, total, _ = s.ListAlerts(ctx, AlertQuery{StartDate: since})
	if total != 2 {
		t.Errorf("start date filter: total=%d, want 2", total)
	}

	unresolved := false
	_, total, _ = s.ListAlerts(ctx, AlertQuery{Resolved: &unresolved})
	if total != 2 {
		t.Errorf("resolved=false filter: total=%d, want 2", total)
	}
}

func TestAcknowledgeAndResolve(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	s.InsertAlert(ctx, makeAlert("a1", model.SeverityHigh, time.Now().UTC()))

	at := time.Now().UTC()
	if err := s.AcknowledgeAlert(ctx, "a1", "analyst", at); err != nil {
		t.Fatalf("AcknowledgeAlert: %v", err)
	}
	if err := s.ResolveAlert(ctx, "a1", "analyst", at); err != nil {
		t.Fatalf("ResolveAlert: %v", err)
	}

	got, _ := s.GetAlert(ctx, "a1")
	if !got.Acknowledged || got.AcknowledgedBy != "analyst" || got.AcknowledgedAt == nil {
		t.Errorf("acknowledgment fields not set: %+v", got)
	}
	if !got.Resolved || got.ResolvedBy != "analyst" || got.ResolvedAt == nil {
		t.Errorf("resolution fields not set: %+v", got)
	}

	if err := s.AcknowledgeAlert(ctx, "missing", "analyst", at); !errors.Is(err, ErrNotFound) {
		t.Errorf("AcknowledgeAlert(missing) = %v, want ErrNotFound", err)
	}
}

func TestHistoryAppendOnly(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	for _, action := range []string{"created", "acknowledged", "resolved"} {
		err := s.AppendHistory(ctx, model.AlertHistoryEntry{
			AlertID:   "a1",
			Action:    action,
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("AppendHistory(%s): %v", action, err)
		}
	}

	history, err := s.GetHistory(ctx, "a1")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	if history[0].Action != "created" || history[2].Action != "resolved" {
		t.Errorf("history order not preserved: %+v", history)
	}
}

func TestInsertAlert_EvictionKeepsNewest(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	s := NewMemoryStore(5, logger)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		s.InsertAlert(ctx, makeAlert(fmt.Sprintf("a%d", i), model.SeverityLow, time.Now().UTC()))
	}

	if _, err := s.GetAlert(ctx, "a0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("evicted alert still retrievable")
	}
	if _, err := s.GetAlert(ctx, "a7"); err != nil {
		t.Errorf("newest alert missing after eviction: %v", err)
	}
}
