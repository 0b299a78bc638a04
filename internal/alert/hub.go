package alert

import (
	"sync"

	"github.com/sirupsen/logrus"

	"nids-alert-engine/internal/model"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts missing alerts instead of stalling dispatch.
const subscriberBuffer = 16

// Hub fans alerts out to live subscribers (websocket connections, the
// replay tool, tests). Sends never block; a full subscriber channel drops
// that one message for that one subscriber.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan model.Alert]struct{}
	logger      *logrus.Logger
	metrics     *Metrics
}

// NewHub creates a new live alert hub. metrics may be nil.
func NewHub(logger *logrus.Logger, metrics *Metrics) *Hub {
	return &Hub{
		subscribers: make(map[chan model.Alert]struct{}),
		logger:      logger,
		metrics:     metrics,
	}
}

// Subscribe registers a new live alert channel. The caller must drain it
// and call Unsubscribe when done.
func (h *Hub) Subscribe() chan model.Alert {
	ch := make(chan model.Alert, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	count := len(h.subscribers)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(count))
	}
	h.logger.WithField("subscribers", count).Debug("alert subscriber added")
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(ch chan model.Alert) {
	h.mu.Lock()
	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
	count := len(h.subscribers)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(count))
	}
	h.logger.WithField("subscribers", count).Debug("alert subscriber removed")
}

// SubscriberCount returns the current number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// SendAlert implements Notifier interface - fans the alert out to every
// subscriber without blocking.
func (h *Hub) SendAlert(alert model.Alert) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- alert:
		default:
			h.logger.WithField("alert_id", alert.ID).
				Debug("subscriber channel full, dropping alert for that subscriber")
		}
	}
	return nil
}
