package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"nids-alert-engine/internal/alert"
	"nids-alert-engine/internal/attack"
	"nids-alert-engine/internal/behavior"
	"nids-alert-engine/internal/confidence"
	"nids-alert-engine/internal/model"
	"nids-alert-engine/internal/rules"
)

// AlertEngine is the entry point the classification pipeline feeds. It owns
// the behavioral tracker, the confidence normalizer, the rule evaluation
// pass and the dispatcher, and never returns an error to its caller: the
// detection path absorbs every failure.
type AlertEngine struct {
	tracker    *behavior.Tracker
	normalizer *confidence.Normalizer
	rules      *rules.Store
	dispatcher *Dispatcher
	portScan   PortScanConfig
	metrics    *alert.Metrics
	logger     *logrus.Logger

	ctx context.Context
}

func NewAlertEngine(
	tracker *behavior.Tracker,
	normalizer *confidence.Normalizer,
	ruleStore *rules.Store,
	dispatcher *Dispatcher,
	portScan PortScanConfig,
	metrics *alert.Metrics,
	logger *logrus.Logger,
) *AlertEngine {
	if portScan.Window <= 0 {
		portScan.Window = 10 * time.Second
	}
	if portScan.PortThreshold <= 0 {
		portScan.PortThreshold = 10
	}
	return &AlertEngine{
		tracker:    tracker,
		normalizer: normalizer,
		rules:      ruleStore,
		dispatcher: dispatcher,
		portScan:   portScan,
		metrics:    metrics,
		logger:     logger,
		ctx:        context.Background(),
	}
}

// Start launches the dispatch worker and the periodic counter reset.
func (e *AlertEngine) Start(ctx context.Context) {
	e.ctx = ctx
	e.dispatcher.Start(ctx)
	go e.tracker.Start(ctx)
}

// Tracker exposes the behavioral state for host surfaces (stats endpoint).
func (e *AlertEngine) Tracker() *behavior.Tracker { return e.tracker }

// Dispatcher exposes the recent-alert buffer for host surfaces.
func (e *AlertEngine) Dispatcher() *Dispatcher { return e.dispatcher }

// ProcessDetection evaluates one classification event. Behavioral state is
// updated before any rule or aggregator check so conditions see the state
// as of this event. Panics are contained here; the classification pipeline
// never observes a failure.
func (e *AlertEngine) ProcessDetection(ev *model.ClassificationEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("panic", r).Error("panic while processing detection event")
		}
	}()

	if e.metrics != nil {
		e.metrics.EventsTotal.Inc()
	}

	isAttack := ev.IsAttack()
	conf := e.normalizer.Confidence(ev)

	if isAttack {
		e.tracker.RecordAttack(ev.SourceIP)
	}
	e.tracker.RecordPortAccess(ev.SourceIP, ev.DestinationPort, isAttack)

	if isAttack {
		e.logger.WithFields(logrus.Fields{
			"model":      ev.Model,
			"confidence": conf,
			"source_ip":  ev.SourceIP,
			"dst_port":   ev.DestinationPort,
			"protocol":   ev.Protocol,
		}).Info("attack detected")

		attackType := ev.AttackType
		if attackType == "" {
			attackType = attack.Classify(ev.DestinationPort, ev.Protocol, ev.TCPFlags,
				e.tracker.HistoryLen(ev.SourceIP))
		}

		evalCtx := rules.EvalContext{Event: ev, Confidence: conf, Counts: e.tracker}
		matched := e.rules.Evaluate(evalCtx)
		for _, rule := range matched {
			a := BuildAlert(rule, ev, conf, attackType)
			e.dispatcher.Dispatch(e.ctx, a, rule.Actions)
		}
		if len(matched) > 0 {
			e.logger.WithField("alerts", len(matched)).Debug("rules matched for event")
		}
	}

	// The aggregator runs on every event, attack or not.
	e.checkPortScan(ev)
}
