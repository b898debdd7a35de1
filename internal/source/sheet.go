package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
)

// Sheet scrapes the crowd-sourced Google Sheets CSV export of unofficial
// exposure reports.
type Sheet struct {
	client adapter.HTTPClient
	url    string
}

// NewSheet creates the spreadsheet source adapter.
func NewSheet(client adapter.HTTPClient, url string) *Sheet {
	return &Sheet{client: client, url: url}
}

func (s *Sheet) Name() string { return s.Schema().Name }

func (s *Sheet) Schema() *domain.Schema { return domain.Sheet }

// Fetch downloads the CSV export and keeps the Business-category rows.
// Zero retained rows is treated as a failed fetch: the sheet always has
// data, so an empty result means the export broke.
func (s *Sheet) Fetch(ctx context.Context) ([]domain.Record, error) {
	body, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet: %w", err)
	}

	// The export pads short rows with empty quoted cells that shift the
	// column positions; drop them before parsing.
	contents := strings.ReplaceAll(string(body), `"",`, "")

	reader := csv.NewReader(strings.NewReader(contents))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheet csv: %w", err)
	}

	var records []domain.Record
	for _, row := range rows {
		if len(row) < 5 || row[4] != "Business" {
			continue
		}
		records = append(records, domain.Record{
			Schema: s.Schema(),
			Values: map[string]string{
				"datentime": row[2],
				"suburb":    row[1],
				"location":  row[0] + " " + row[3],
			},
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("sheet: %w", domain.ErrNoRecords)
	}

	return records, nil
}
