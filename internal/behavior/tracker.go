package behavior

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type portAccess struct {
	port int
	at   time.Time
}

// Tracker keeps short-lived per-source-IP state for temporal correlation:
// attack counters, per-destination-port attack counters, and a bounded
// recent history of port accesses. State lives only in memory; loss on
// restart is acceptable.
type Tracker struct {
	mu              sync.Mutex
	attackCounts    map[string]int
	portCounts      map[int]int
	portHistory     map[string][]portAccess
	historyCapacity int
	resetInterval   time.Duration
	logger          *logrus.Logger
	now             func() time.Time
}

// NewTracker creates a tracker with the given port-history capacity and
// counter reset interval. Non-positive values take the defaults (20 entries,
// 5 minutes).
func NewTracker(historyCapacity int, resetInterval time.Duration, logger *logrus.Logger) *Tracker {
	if historyCapacity <= 0 {
		historyCapacity = 20
	}
	if resetInterval <= 0 {
		resetInterval = 5 * time.Minute
	}
	return &Tracker{
		attackCounts:    make(map[string]int),
		portCounts:      make(map[int]int),
		portHistory:     make(map[string][]portAccess),
		historyCapacity: historyCapacity,
		resetInterval:   resetInterval,
		logger:          logger,
		now:             time.Now,
	}
}

// RecordAttack increments the attack counter for a source IP.
func (t *Tracker) RecordAttack(ip string) {
	if ip == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attackCounts[ip]++
}

// RecordPortAccess appends (port, now) to the IP's bounded history, evicting
// the oldest entry at capacity. When attack is true the per-port attack
// counter is incremented as well.
func (t *Tracker) RecordPortAccess(ip string, port int, attack bool) {
	if port == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if attack {
		t.portCounts[port]++
	}
	if ip == "" {
		return
	}

	history := append(t.portHistory[ip], portAccess{port: port, at: t.now()})
	if len(history) > t.historyCapacity {
		history = history[len(history)-t.historyCapacity:]
	}
	t.portHistory[ip] = history
}

// AttackCount returns the IP's attack counter since the last reset.
func (t *Tracker) AttackCount(ip string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attackCounts[ip]
}

// PortAttackCount returns the destination port's attack counter since the
// last reset.
func (t *Tracker) PortAttackCount(port int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.portCounts[port]
}

// HistoryLen returns the number of entries in the IP's port history.
func (t *Tracker) HistoryLen(ip string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.portHistory[ip])
}

// RecentDistinctPorts returns the set of distinct destination ports the IP
// touched within the trailing window.
func (t *Tracker) RecentDistinctPorts(ip string, window time.Duration) []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-window)
	seen := make(map[int]bool)
	ports := make([]int, 0)
	for _, access := range t.portHistory[ip] {
		if access.at.Before(cutoff) {
			continue
		}
		if !seen[access.port] {
			seen[access.port] = true
			ports = append(ports, access.port)
		}
	}
	return ports
}

// ClearHistory empties the IP's port history. Called after a port-scan alert
// fires so the next events do not immediately re-trigger it.
func (t *Tracker) ClearHistory(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.portHistory, ip)
}

// Reset clears all attack counters. Port histories are preserved; they
// expire through their own capacity and time window. Safe to call on an
// already-empty tracker.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attackCounts = make(map[string]int)
	t.portCounts = make(map[int]int)
}

// Start runs the periodic counter reset until the context is cancelled.
func (t *Tracker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.resetInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.Reset()
			if t.logger != nil {
				t.logger.Debug("Behavioral attack counters reset")
			}
		case <-ctx.Done():
			return
		}
	}
}
