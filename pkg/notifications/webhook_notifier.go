package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zefiro/zefiro-job/models/events"
)

const webhookTimeout = 10 * time.Second

type webhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier Posts events as JSON to the URL. Disabled when the URL is empty
func NewWebhookNotifier(webhookURL string) Notifier {
	return &webhookNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: webhookTimeout},
	}
}

func (notifier *webhookNotifier) Enabled() bool {
	return len(notifier.webhookURL) > 0
}

func (notifier *webhookNotifier) String() string {
	if notifier.Enabled() {
		return fmt.Sprintf("Webhook notifier is enabled. Webhook: %s", notifier.webhookURL)
	}
	return "Webhook notifier is disabled"
}

func (notifier *webhookNotifier) Notify(ctx context.Context, event events.WorkloadEvent) error {
	if !notifier.Enabled() {
		return nil
	}
	eventJson, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed serialize event for workload %s: %w", event.ID, err)
	}
	log.Trace().Msg(string(eventJson))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, notifier.webhookURL, bytes.NewReader(eventJson))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := notifier.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to notify on %s of workload %s: %w", event.Event, event.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s on %s of workload %s", resp.Status, event.Event, event.ID)
	}
	return nil
}
