package source

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
)

var wahealthHeader = []string{
	"Exposure date & time",
	"Suburb",
	"Location",
	"Date updated",
	"Health advice",
}

// WAHealth scrapes the HealthyWA government exposure table.
type WAHealth struct {
	client adapter.HTTPClient
	url    string
}

// NewWAHealth creates the HealthyWA source adapter.
func NewWAHealth(client adapter.HTTPClient, url string) *WAHealth {
	return &WAHealth{client: client, url: url}
}

func (s *WAHealth) Name() string { return s.Schema().Name }

func (s *WAHealth) Schema() *domain.Schema { return domain.WAHealth }

// Fetch extracts the location table. The first cell of each row is a
// presentational marker and is skipped.
func (s *WAHealth) Fetch(ctx context.Context) ([]domain.Record, error) {
	doc, err := fetchDocument(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table#locationTable").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: wahealth location table not found", domain.ErrSchemaMismatch)
	}

	if err := checkHeader(table.Find("thead th"), wahealthHeader, "wahealth"); err != nil {
		return nil, err
	}

	var records []domain.Record
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := cellText(row)
		if len(cells) < 6 {
			return
		}
		records = append(records, domain.Record{
			Schema: s.Schema(),
			Values: map[string]string{
				"datentime": cells[1],
				"suburb":    cells[2],
				"location":  cells[3],
				"updated":   cells[4],
				"advice":    cells[5],
			},
		})
	})

	if len(records) == 0 {
		return nil, fmt.Errorf("wahealth: %w", domain.ErrNoRecords)
	}

	return records, nil
}
