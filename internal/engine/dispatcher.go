package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"nids-alert-engine/internal/alert"
	"nids-alert-engine/internal/model"
	"nids-alert-engine/internal/storage"
)

// dispatchJob is one alert plus the actions its originating rule asked for.
type dispatchJob struct {
	alert   model.Alert
	actions []string
}

// Dispatcher persists alerts, deduplicates the live feed, and fans out to
// the configured notification channels. Alerts are queued to a worker
// goroutine; when the queue is full the caller processes the alert inline
// so nothing is lost.
type Dispatcher struct {
	store   storage.Store
	logger  *logrus.Logger
	metrics *alert.Metrics

	notifiers map[string]alert.Notifier

	mu     sync.RWMutex
	recent []model.Alert
	max    int

	queue chan dispatchJob

	dedupWindow time.Duration
	dedupDepth  int

	now func() time.Time
}

// DispatcherConfig carries the dispatcher tunables.
type DispatcherConfig struct {
	RecentBufferSize int
	DedupWindow      time.Duration
	DedupScanDepth   int
	QueueSize        int
}

func NewDispatcher(cfg DispatcherConfig, store storage.Store, metrics *alert.Metrics, logger *logrus.Logger) *Dispatcher {
	if cfg.RecentBufferSize <= 0 {
		cfg.RecentBufferSize = 1000
	}
	if cfg.DedupScanDepth <= 0 {
		cfg.DedupScanDepth = 50
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 5 * time.Second
	}
	return &Dispatcher{
		store:       store,
		logger:      logger,
		metrics:     metrics,
		notifiers:   make(map[string]alert.Notifier),
		recent:      make([]model.Alert, 0, cfg.RecentBufferSize),
		max:         cfg.RecentBufferSize,
		queue:       make(chan dispatchJob, cfg.QueueSize),
		dedupWindow: cfg.DedupWindow,
		dedupDepth:  cfg.DedupScanDepth,
		now:         time.Now,
	}
}

// RegisterNotifier binds a notifier to an action name ("websocket", "log",
// "email"). The "store" action is handled by the dispatcher itself.
func (d *Dispatcher) RegisterNotifier(action string, n alert.Notifier) {
	d.notifiers[action] = n
	d.logger.WithField("action", action).Info("alert notifier registered")
}

// Start runs the dispatch worker until the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-d.queue:
				d.process(ctx, job)
			}
		}
	}()
}

// Dispatch hands an alert to the worker. A full queue falls back to
// processing on the caller's goroutine rather than dropping the alert.
func (d *Dispatcher) Dispatch(ctx context.Context, a model.Alert, actions []string) {
	select {
	case d.queue <- dispatchJob{alert: a, actions: actions}:
	default:
		d.logger.Warn("alert queue full, dispatching synchronously")
		d.process(ctx, dispatchJob{alert: a, actions: actions})
	}
}

// Recent returns up to n buffered alerts, newest first.
func (d *Dispatcher) Recent(n int) []model.Alert {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n <= 0 || n > len(d.recent) {
		n = len(d.recent)
	}
	out := make([]model.Alert, 0, n)
	for i := len(d.recent) - 1; i >= len(d.recent)-n; i-- {
		out = append(out, d.recent[i])
	}
	return out
}

func (d *Dispatcher) process(ctx context.Context, job dispatchJob) {
	a := &job.alert

	d.mu.Lock()
	if len(d.recent) == d.max {
		copy(d.recent, d.recent[1:])
		d.recent = d.recent[:d.max-1]
	}
	d.recent = append(d.recent, *a)
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.ObserveAlert(a)
	}

	if err := d.store.InsertAlert(ctx, *a); err != nil {
		if d.metrics != nil {
			d.metrics.DispatchErrors.Inc()
		}
		d.logger.WithError(err).WithField("alert_id", a.ID).Error("failed to store alert")
		// Last-resort audit trail for an alert that could not be persisted.
		d.logger.Warnf("SECURITY ALERT: %s - %s", a.Title, a.Message)
		return
	}

	entry := model.AlertHistoryEntry{
		AlertID:   a.ID,
		Action:    "created",
		Timestamp: d.now().UTC(),
		Details:   "Alert created: " + a.Title,
	}
	if err := d.store.AppendHistory(ctx, entry); err != nil {
		d.logger.WithError(err).WithField("alert_id", a.ID).Warn("failed to record alert history")
	}

	duplicate := d.isDuplicate(a)
	if duplicate && d.metrics != nil {
		d.metrics.SuppressedTotal.Inc()
	}

	for _, action := range job.actions {
		switch action {
		case model.ActionStore:
			// Already persisted above.
			continue
		case model.ActionWebsocket:
			if duplicate {
				continue
			}
		}
		n, ok := d.notifiers[action]
		if !ok {
			continue
		}
		if err := n.SendAlert(*a); err != nil {
			if d.metrics != nil {
				d.metrics.DispatchErrors.Inc()
			}
			d.logger.WithError(err).WithField("action", action).Error("alert action failed")
		}
	}

	d.logger.Infof("Alert processed: %s [%s]", a.Title, a.Severity)
}

// isDuplicate scans the tail of the recent buffer for a near-identical
// alert: same source IP, category, severity and model within the dedup
// window. The alert itself (already buffered) is excluded.
func (d *Dispatcher) isDuplicate(a *model.Alert) bool {
	now := d.now().UTC()

	d.mu.RLock()
	defer d.mu.RUnlock()

	start := len(d.recent) - d.dedupDepth
	if start < 0 {
		start = 0
	}
	for i := start; i < len(d.recent); i++ {
		prev := &d.recent[i]
		if prev.ID == a.ID {
			continue
		}
		if prev.SourceIP == a.SourceIP &&
			prev.Category == a.Category &&
			prev.Severity == a.Severity &&
			prev.Model == a.Model &&
			now.Sub(prev.Timestamp) < d.dedupWindow {
			return true
		}
	}
	return false
}
