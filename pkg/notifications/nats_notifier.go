package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zefiro/zefiro-job/models/events"
)

// Publisher Publishes a message on a subject. Implemented by *nats.Conn
type Publisher interface {
	Publish(subject string, data []byte) error
}

type natsNotifier struct {
	publisher Publisher
	subject   string
}

// NewNATSNotifier Publishes events as JSON on the subject. Disabled without a publisher or subject
func NewNATSNotifier(publisher Publisher, subject string) Notifier {
	return &natsNotifier{publisher: publisher, subject: subject}
}

func (notifier *natsNotifier) Enabled() bool {
	return notifier.publisher != nil && len(notifier.subject) > 0
}

func (notifier *natsNotifier) String() string {
	if notifier.Enabled() {
		return fmt.Sprintf("NATS notifier is enabled. Subject: %s", notifier.subject)
	}
	return "NATS notifier is disabled"
}

func (notifier *natsNotifier) Notify(_ context.Context, event events.WorkloadEvent) error {
	if !notifier.Enabled() {
		return nil
	}
	eventJson, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed serialize event for workload %s: %w", event.ID, err)
	}
	if err := notifier.publisher.Publish(notifier.subject, eventJson); err != nil {
		return fmt.Errorf("failed to publish %s of workload %s: %w", event.Event, event.ID, err)
	}
	return nil
}
