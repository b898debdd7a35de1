package channel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
	"github.com/kronicd/WA-Covid-Mailer/internal/chunk"
	"github.com/kronicd/WA-Covid-Mailer/internal/logger"
)

// Discord posts report chunks to Discord webhooks. Discord caps messages
// at 2000 characters and rate-limits bursts, so the report is chunked on
// entry boundaries and successive sends are spaced out.
type Discord struct {
	client    adapter.HTTPClient
	clock     adapter.Clock
	urls      []string
	critical  bool
	maxLength int
	sendDelay time.Duration
}

// NewDiscord creates a Discord webhook dispatcher.
func NewDiscord(client adapter.HTTPClient, clock adapter.Clock, urls []string, critical bool, maxLength int, sendDelay time.Duration) *Discord {
	if maxLength <= 0 {
		maxLength = chunk.MaxLength
	}
	return &Discord{
		client:    client,
		clock:     clock,
		urls:      urls,
		critical:  critical,
		maxLength: maxLength,
		sendDelay: sendDelay,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Critical() bool { return d.critical }

// Send delivers the report to every configured webhook, one chunk per
// message. Discord answers 204 No Content on success.
func (d *Discord) Send(ctx context.Context, report string) error {
	total := chunk.Count(report, chunk.Delimiter, d.maxLength)

	for _, url := range d.urls {
		sent := 0
		for piece := range chunk.Split(report, chunk.Delimiter, d.maxLength) {
			if sent > 0 {
				d.clock.Sleep(d.sendDelay)
			}

			status, body, err := d.client.PostJSON(ctx, url, map[string]string{"content": piece})
			if err != nil {
				return fmt.Errorf("discord webhook: %w", err)
			}
			if status != http.StatusOK && status != http.StatusNoContent {
				return fmt.Errorf("discord webhook returned %d: %s", status, string(body))
			}

			sent++
			logger.Debug("discord chunk sent", zap.Int("chunk", sent), zap.Int("total", total))
		}
	}

	return nil
}
