package source

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
)

var curtinHeader = []string{"Date", "Time", "Campus", "Location", "Contact type"}

// Curtin scrapes the Curtin University recent-exposures page.
type Curtin struct {
	client adapter.HTTPClient
	url    string
}

// NewCurtin creates the Curtin source adapter.
func NewCurtin(client adapter.HTTPClient, url string) *Curtin {
	return &Curtin{client: client, url: url}
}

func (s *Curtin) Name() string { return s.Schema().Name }

func (s *Curtin) Schema() *domain.Schema { return domain.Curtin }

func (s *Curtin) Fetch(ctx context.Context) ([]domain.Record, error) {
	doc, err := fetchDocument(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table#table_1").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: curtin exposure table not found", domain.ErrSchemaMismatch)
	}

	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil, fmt.Errorf("%w: curtin exposure table is empty", domain.ErrSchemaMismatch)
	}

	if err := checkHeader(rows.First().Children(), curtinHeader, "curtin"); err != nil {
		return nil, err
	}

	var records []domain.Record
	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := cellText(row)
		if len(cells) < 5 {
			return
		}
		records = append(records, domain.Record{
			Schema: s.Schema(),
			Values: map[string]string{
				"date":         cells[0],
				"time":         cells[1],
				"campus":       cells[2],
				"location":     cells[3],
				"contact_type": cells[4],
			},
		})
	})

	return records, nil
}
