package source

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
)

var murdochHeader = []string{"Date", "Time", "Campus", "Location"}

// Murdoch scrapes the Murdoch University notices page.
type Murdoch struct {
	client adapter.HTTPClient
	url    string
}

// NewMurdoch creates the Murdoch source adapter.
func NewMurdoch(client adapter.HTTPClient, url string) *Murdoch {
	return &Murdoch{client: client, url: url}
}

func (s *Murdoch) Name() string { return s.Schema().Name }

func (s *Murdoch) Schema() *domain.Schema { return domain.Murdoch }

func (s *Murdoch) Fetch(ctx context.Context) ([]domain.Record, error) {
	doc, err := fetchDocument(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}

	rows := doc.Find("tr")
	if rows.Length() == 0 {
		return nil, fmt.Errorf("%w: murdoch exposure table not found", domain.ErrSchemaMismatch)
	}

	if err := checkHeader(rows.First().Children(), murdochHeader, "murdoch"); err != nil {
		return nil, err
	}

	var records []domain.Record
	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := cellText(row)
		if len(cells) < 4 {
			return
		}
		records = append(records, domain.Record{
			Schema: s.Schema(),
			Values: map[string]string{
				"date":     cells[0],
				"time":     cells[1],
				"campus":   cells[2],
				"location": cells[3],
			},
		})
	})

	return records, nil
}
