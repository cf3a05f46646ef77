package notifications

import (
	"context"
	"errors"
	"strings"

	"github.com/zefiro/zefiro-job/models/events"
)

// Notifier to notify about workload events
type Notifier interface {
	// Notify Send notification
	Notify(ctx context.Context, event events.WorkloadEvent) error
	// Enabled The notifier is enabled and can be used
	Enabled() bool
	// String Describes the notifier
	String() string
}

type multiNotifier struct {
	notifiers []Notifier
}

// NewMulti Sends every event to each enabled notifier
func NewMulti(notifiers ...Notifier) Notifier {
	var enabled []Notifier
	for _, notifier := range notifiers {
		if notifier != nil && notifier.Enabled() {
			enabled = append(enabled, notifier)
		}
	}
	return &multiNotifier{notifiers: enabled}
}

func (m *multiNotifier) Notify(ctx context.Context, event events.WorkloadEvent) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *multiNotifier) Enabled() bool {
	return len(m.notifiers) > 0
}

func (m *multiNotifier) String() string {
	if !m.Enabled() {
		return "Notifications are disabled"
	}
	descriptions := make([]string, 0, len(m.notifiers))
	for _, notifier := range m.notifiers {
		descriptions = append(descriptions, notifier.String())
	}
	return strings.Join(descriptions, "; ")
}
