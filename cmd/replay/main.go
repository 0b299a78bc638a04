// replay drives the alert engine with synthetic classification events. It
// stands in for the capture and classification pipeline during development:
// normal traffic, port scans and brute force bursts, all processed by an
// in-process engine backed by in-memory storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"nids-alert-engine/internal/alert"
	"nids-alert-engine/internal/behavior"
	"nids-alert-engine/internal/confidence"
	"nids-alert-engine/internal/engine"
	"nids-alert-engine/internal/model"
	"nids-alert-engine/internal/rules"
	"nids-alert-engine/internal/storage"
	"nids-alert-engine/internal/utils"
)

type replayer struct {
	eng *engine.AlertEngine
	rng *rand.Rand
}

func fptr(v float64) *float64 { return &v }

// normalEvent generates benign traffic from a random internal host.
func (r *replayer) normalEvent() *model.ClassificationEvent {
	return &model.ClassificationEvent{
		Model:           "RandomForest",
		Prediction:      "Normal",
		Probability:     fptr(r.rng.Float64() * 0.3),
		SourceIP:        fmt.Sprintf("192.168.1.%d", r.rng.Intn(254)+1),
		DestinationIP:   "10.0.0.5",
		DestinationPort: []int{80, 443, 53, 8080}[r.rng.Intn(4)],
		Protocol:        model.ProtocolTCP,
		DetectionType:   "flow",
		Interface:       "eth0",
	}
}

// sshBruteForce emits repeated attack detections against port 22 from one
// host, enough to trip the repeat-count rules.
func (r *replayer) sshBruteForce(count int) {
	sourceIP := "203.0.113.66"
	for i := 0; i < count; i++ {
		r.eng.ProcessDetection(&model.ClassificationEvent{
			Model:           "RandomForest",
			Prediction:      "Attack",
			Probability:     fptr(0.85 + r.rng.Float64()*0.14),
			SourceIP:        sourceIP,
			DestinationIP:   "10.0.0.5",
			DestinationPort: 22,
			Protocol:        model.ProtocolTCP,
			DetectionType:   "flow",
			Interface:       "eth0",
		})
	}
}

// portScan walks one source across distinct ports fast enough to trigger
// the aggregator.
func (r *replayer) portScan(ports int) {
	sourceIP := "198.51.100.23"
	for p := 0; p < ports; p++ {
		r.eng.ProcessDetection(&model.ClassificationEvent{
			Model:           "RandomForest",
			Prediction:      "Normal",
			Probability:     fptr(0.2),
			SourceIP:        sourceIP,
			DestinationIP:   "10.0.0.5",
			DestinationPort: 1000 + p,
			Protocol:        model.ProtocolTCP,
			DetectionType:   "flow",
			Interface:       "eth0",
		})
	}
}

// zeroDay emits a Kitsune anomaly detection.
func (r *replayer) zeroDay() {
	score := 1500.0
	r.eng.ProcessDetection(&model.ClassificationEvent{
		Model:           "Kitsune",
		Prediction:      "Attack",
		AnomalyScore:    &score,
		SourceIP:        "203.0.113.99",
		DestinationIP:   "10.0.0.5",
		DestinationPort: 4444,
		Protocol:        model.ProtocolTCP,
		DetectionType:   "anomaly",
		Interface:       "eth0",
	})
}

func main() {
	var (
		normalCount = flag.Int("normal", 200, "Number of normal background events")
		bruteCount  = flag.Int("brute", 6, "SSH brute force burst size")
		scanPorts   = flag.Int("scan", 12, "Distinct ports in the scan burst")
	)
	flag.Parse()

	logger := utils.NewLogger("INFO", "text")
	config := utils.DefaultConfig()

	store := storage.NewMemoryStore(0, logger)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ruleStore := rules.NewStore(store, logger)
	if err := ruleStore.Load(ctx); err != nil {
		logger.Fatalf("Failed to load rules: %v", err)
	}

	metrics := alert.NewMetrics()
	tracker := behavior.NewTracker(
		config.Engine.PortHistoryCapacity,
		time.Duration(config.Engine.ResetIntervalMins)*time.Minute,
		logger,
	)
	dispatcher := engine.NewDispatcher(engine.DispatcherConfig{
		RecentBufferSize: config.Engine.RecentBufferSize,
		DedupWindow:      time.Duration(config.Engine.DedupWindowSeconds) * time.Second,
		DedupScanDepth:   config.Engine.DedupScanDepth,
		QueueSize:        config.Engine.QueueSize,
	}, store, metrics, logger)
	dispatcher.RegisterNotifier("log", alert.NewLogAlertNotifier(logger))

	eng := engine.NewAlertEngine(tracker, confidence.NewNormalizer(config.ModelThresholds),
		ruleStore, dispatcher, engine.PortScanConfig{
			Window:        time.Duration(config.Engine.PortScan.WindowSeconds) * time.Second,
			PortThreshold: config.Engine.PortScan.PortThreshold,
		}, metrics, logger)
	eng.Start(ctx)

	r := &replayer{eng: eng, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}

	fmt.Printf("Replaying %d normal events...\n", *normalCount)
	for i := 0; i < *normalCount; i++ {
		eng.ProcessDetection(r.normalEvent())
	}

	fmt.Printf("Replaying SSH brute force burst (%d events)...\n", *bruteCount)
	r.sshBruteForce(*bruteCount)

	fmt.Printf("Replaying port scan burst (%d ports)...\n", *scanPorts)
	r.portScan(*scanPorts)

	fmt.Println("Replaying zero-day anomaly event...")
	r.zeroDay()

	// Let the dispatch worker drain the queue.
	time.Sleep(500 * time.Millisecond)

	recent := dispatcher.Recent(20)
	fmt.Printf("\n%d most recent alerts:\n", len(recent))
	for _, a := range recent {
		fmt.Printf("  [%s] %-20s %s\n", a.Severity, a.Category, a.Title)
	}
}
