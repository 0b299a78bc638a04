package behavior

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestTracker() *Tracker {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewTracker(20, 5*time.Minute, logger)
}

func TestRecordAttack_Counts(t *testing.T) {
	tr := newTestTracker()
	tr.RecordAttack("10.0.0.1")
	tr.RecordAttack("10.0.0.1")
	tr.RecordAttack("10.0.0.2")

	if got := tr.AttackCount("10.0.0.1"); got != 2 {
		t.Errorf("AttackCount(10.0.0.1) = %d, want 2", got)
	}
	if got := tr.AttackCount("10.0.0.2"); got != 1 {
		t.Errorf("AttackCount(10.0.0.2) = %d, want 1", got)
	}
	if got := tr.AttackCount("10.0.0.3"); got != 0 {
		t.Errorf("AttackCount(unknown) = %d, want 0", got)
	}
}

func TestRecordAttack_EmptyIPIgnored(t *testing.T) {
	tr := newTestTracker()
	tr.RecordAttack("")
	if got := tr.AttackCount(""); got != 0 {
		t.Errorf("AttackCount(\"\") = %d, want 0", got)
	}
}

func TestRecordPortAccess_AttackIncrementsPortCounter(t *testing.T) {
	tr := newTestTracker()
	tr.RecordPortAccess("10.0.0.1", 22, true)
	tr.RecordPortAccess("10.0.0.2", 22, true)
	tr.RecordPortAccess("10.0.0.3", 22, false)

	if got := tr.PortAttackCount(22); got != 2 {
		t.Errorf("PortAttackCount(22) = %d, want 2", got)
	}
	if got := tr.HistoryLen("10.0.0.3"); got != 1 {
		t.Errorf("HistoryLen for non-attack access = %d, want 1", got)
	}
}

func TestRecordPortAccess_HistoryCapacity(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	tr := NewTracker(5, 5*time.Minute, logger)

	for port := 1; port <= 8; port++ {
		tr.RecordPortAccess("10.0.0.1", port, false)
	}
	if got := tr.HistoryLen("10.0.0.1"); got != 5 {
		t.Errorf("HistoryLen = %d, want capacity 5", got)
	}
	// Oldest entries were evicted.
	ports := tr.RecentDistinctPorts("10.0.0.1", time.Hour)
	for _, p := range ports {
		if p <= 3 {
			t.Errorf("evicted port %d still present", p)
		}
	}
}

func TestRecentDistinctPorts_Window(t *testing.T) {
	tr := newTestTracker()
	base := time.Now()
	tr.now = func() time.Time { return base }

	tr.RecordPortAccess("10.0.0.1", 100, false)
	tr.RecordPortAccess("10.0.0.1", 101, false)
	tr.RecordPortAccess("10.0.0.1", 101, false)

	tr.now = func() time.Time { return base.Add(30 * time.Second) }
	tr.RecordPortAccess("10.0.0.1", 102, false)

	got := tr.RecentDistinctPorts("10.0.0.1", 10*time.Second)
	if len(got) != 1 || got[0] != 102 {
		t.Errorf("RecentDistinctPorts(10s) = %v, want [102]", got)
	}

	all := tr.RecentDistinctPorts("10.0.0.1", time.Hour)
	if len(all) != 3 {
		t.Errorf("RecentDistinctPorts(1h) = %v, want 3 distinct ports", all)
	}
}

func TestClearHistory(t *testing.T) {
	tr := newTestTracker()
	tr.RecordPortAccess("10.0.0.1", 80, false)
	tr.ClearHistory("10.0.0.1")
	if got := tr.HistoryLen("10.0.0.1"); got != 0 {
		t.Errorf("HistoryLen after clear = %d, want 0", got)
	}
}

func TestReset_ClearsCountersKeepsHistory(t *testing.T) {
	tr := newTestTracker()
	tr.RecordAttack("10.0.0.1")
	tr.RecordPortAccess("10.0.0.1", 22, true)

	tr.Reset()

	if got := tr.AttackCount("10.0.0.1"); got != 0 {
		t.Errorf("AttackCount after reset = %d, want 0", got)
	}
	if got := tr.PortAttackCount(22); got != 0 {
		t.Errorf("PortAttackCount after reset = %d, want 0", got)
	}
	if got := tr.HistoryLen("10.0.0.1"); got != 1 {
		t.Errorf("HistoryLen after reset = %d, want 1 (histories survive resets)", got)
	}

	// Reset on empty state is a no-op.
	tr.Reset()
	if got := tr.AttackCount("10.0.0.1"); got != 0 {
		t.Errorf("AttackCount after second reset = %d, want 0", got)
	}
}
