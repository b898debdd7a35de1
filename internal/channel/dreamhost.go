package channel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
)

// dreamhostAPIURL is the announce-list API endpoint.
const dreamhostAPIURL = "https://api.dreamhost.com/"

// Dreamhost posts the report to a Dreamhost announcement list.
type Dreamhost struct {
	client     adapter.HTTPClient
	clock      adapter.Clock
	apiURL     string
	apiKey     string
	listDomain string
	listName   string
	critical   bool
}

// NewDreamhost creates an announce-list dispatcher.
func NewDreamhost(client adapter.HTTPClient, clock adapter.Clock, apiKey, listDomain, listName string, critical bool) *Dreamhost {
	return &Dreamhost{
		client:     client,
		clock:      clock,
		apiURL:     dreamhostAPIURL,
		apiKey:     apiKey,
		listDomain: listDomain,
		listName:   listName,
		critical:   critical,
	}
}

func (d *Dreamhost) Name() string { return "dreamhost" }

func (d *Dreamhost) Critical() bool { return d.critical }

func (d *Dreamhost) Send(ctx context.Context, report string) error {
	subject := fmt.Sprintf("Alert: Updated WA covid-19 exposure sites (%s)",
		d.clock.Now().Format("02/01/2006 15:04:05"))

	form := url.Values{
		"key":          {d.apiKey},
		"cmd":          {"announcement_list-post_announcement"},
		"listname":     {d.listName},
		"domain":       {d.listDomain},
		"subject":      {subject},
		"message":      {report},
		"charset":      {"utf-8"},
		"type":         {"text"},
		"duplicate_ok": {"1"},
	}

	status, body, err := d.client.PostForm(ctx, d.apiURL, form)
	if err != nil {
		return fmt.Errorf("dreamhost announce: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("dreamhost announce returned %d: %s", status, string(body))
	}

	return nil
}
