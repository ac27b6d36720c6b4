package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// WebhookNotifier posts messages to the sales channel through an incoming
// webhook. Slack hiccups are retried with backoff; the channel is the
// team's primary view into the pipeline, so a dropped message matters.
type WebhookNotifier struct {
	WebhookURL string
	Client     *retryablehttp.Client
	Log        *logrus.Logger
}

func NewWebhookNotifier(webhookURL string, log *logrus.Logger) *WebhookNotifier {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 10 * time.Second
	client.Logger = nil

	return &WebhookNotifier{WebhookURL: webhookURL, Client: client, Log: log}
}

type payload struct {
	Text string `json:"text"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, message string) error {
	body, err := json.Marshal(payload{Text: message})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, body)
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned %d", resp.StatusCode)
	}
	return nil
}
