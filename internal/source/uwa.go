package source

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
)

var uwaHeader = []string{"Date", "Location", "Time"}

// UWA scrapes the University of Western Australia FAQ page. The exposure
// table has no distinct markup, so the first table row doubles as the
// header and is validated before the rest is trusted.
type UWA struct {
	client adapter.HTTPClient
	url    string
}

// NewUWA creates the UWA source adapter.
func NewUWA(client adapter.HTTPClient, url string) *UWA {
	return &UWA{client: client, url: url}
}

func (s *UWA) Name() string { return s.Schema().Name }

func (s *UWA) Schema() *domain.Schema { return domain.UWA }

func (s *UWA) Fetch(ctx context.Context) ([]domain.Record, error) {
	doc, err := fetchDocument(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}

	rows := doc.Find("div table tbody tr")
	if rows.Length() == 0 {
		return nil, fmt.Errorf("%w: uwa exposure table not found", domain.ErrSchemaMismatch)
	}

	if err := checkHeader(rows.First().Children(), uwaHeader, "uwa"); err != nil {
		return nil, err
	}

	var records []domain.Record
	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := cellText(row)
		if len(cells) < 3 {
			return
		}
		records = append(records, domain.Record{
			Schema: s.Schema(),
			Values: map[string]string{
				"date":     cells[0],
				"location": cells[1],
				"time":     cells[2],
			},
		})
	})

	return records, nil
}
