package alert

import (
	"nids-alert-engine/internal/model"

	"github.com/sirupsen/logrus"
)

// EmailNotifier is a placeholder channel. No SMTP delivery is wired up yet;
// it records the intent so the audit log shows which alerts would have been
// mailed.
type EmailNotifier struct {
	logger *logrus.Logger
}

// NewEmailNotifier creates a new email notifier stub
func NewEmailNotifier(logger *logrus.Logger) *EmailNotifier {
	return &EmailNotifier{
		logger: logger,
	}
}

// SendAlert implements Notifier interface
func (en *EmailNotifier) SendAlert(alert model.Alert) error {
	en.logger.Infof("Email notification would be sent for: %s", alert.Title)
	return nil
}
