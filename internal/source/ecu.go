package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
)

// ecuAccordionID is the container ECU publishes its per-campus exposure
// tables under.
const ecuAccordionID = "accordion-01e803ff84807e270adaddf7ade2fa91035b560d"

var ecuHeader = []string{"Date", "Time", "Building", "Room"}

// ECU scrapes the Edith Cowan University advice page, which lists one
// table per campus inside an accordion.
type ECU struct {
	client adapter.HTTPClient
	url    string
}

// NewECU creates the ECU source adapter.
func NewECU(client adapter.HTTPClient, url string) *ECU {
	return &ECU{client: client, url: url}
}

func (s *ECU) Name() string { return s.Schema().Name }

func (s *ECU) Schema() *domain.Schema { return domain.ECU }

func (s *ECU) Fetch(ctx context.Context) ([]domain.Record, error) {
	doc, err := fetchDocument(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}

	container := doc.Find("div#" + ecuAccordionID).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("%w: ecu accordion not found", domain.ErrSchemaMismatch)
	}

	tables := container.Find("table")
	if tables.Length() == 0 {
		return nil, fmt.Errorf("%w: ecu exposure tables not found", domain.ErrSchemaMismatch)
	}

	var headerErr error
	tables.EachWithBreak(func(_ int, table *goquery.Selection) bool {
		headerErr = checkHeader(table.Find("thead th"), ecuHeader, "ecu")
		return headerErr == nil
	})
	if headerErr != nil {
		return nil, headerErr
	}

	var records []domain.Record
	tables.Each(func(_ int, table *goquery.Selection) {
		campus := ecuCampus(table)
		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			cells := cellText(row)
			if len(cells) < 4 {
				return
			}
			records = append(records, domain.Record{
				Schema: s.Schema(),
				Values: map[string]string{
					"date":     cells[0],
					"time":     cells[1],
					"campus":   campus,
					"building": cells[2],
					"room":     cells[3],
				},
			})
		})
	})

	return records, nil
}

// ecuCampus walks up from a table to the accordion section heading that
// names the campus.
func ecuCampus(table *goquery.Selection) string {
	section := table.Parent().Parent().Parent().Parent()
	return strings.TrimSpace(section.Children().First().Text())
}
