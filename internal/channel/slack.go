package channel

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
)

// Slack posts the whole report to Slack incoming webhooks.
type Slack struct {
	client   adapter.HTTPClient
	urls     []string
	critical bool
}

// NewSlack creates a Slack webhook dispatcher.
func NewSlack(client adapter.HTTPClient, urls []string, critical bool) *Slack {
	return &Slack{client: client, urls: urls, critical: critical}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Critical() bool { return s.critical }

func (s *Slack) Send(ctx context.Context, report string) error {
	for _, url := range s.urls {
		status, body, err := s.client.PostJSON(ctx, url, map[string]string{"text": report})
		if err != nil {
			return fmt.Errorf("slack webhook: %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack webhook returned %d: %s", status, string(body))
		}
	}

	return nil
}
