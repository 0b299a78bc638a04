package alert

import "nids-alert-engine/internal/model"

// Notifier interface for alert notification channels
type Notifier interface {
	SendAlert(alert model.Alert) error
}
