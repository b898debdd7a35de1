package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
)

// fetchDocument GETs a page and parses it into a goquery document.
func fetchDocument(ctx context.Context, client adapter.HTTPClient, url string) (*goquery.Document, error) {
	body, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return doc, nil
}

// checkHeader verifies the expected column titles are still present, in
// order. Anything else means the page layout changed under us.
func checkHeader(cells *goquery.Selection, want []string, sourceName string) error {
	if cells.Length() < len(want) {
		return fmt.Errorf("%w: %s header has %d columns, want %d",
			domain.ErrSchemaMismatch, sourceName, cells.Length(), len(want))
	}

	for i, expected := range want {
		got := strings.TrimSpace(cells.Eq(i).Text())
		if got != expected {
			return fmt.Errorf("%w: %s column %d is %q, want %q",
				domain.ErrSchemaMismatch, sourceName, i, got, expected)
		}
	}

	return nil
}

// cellText extracts the trimmed text of every direct child cell of a row.
func cellText(row *goquery.Selection) []string {
	cells := row.Children()
	out := make([]string, cells.Length())
	cells.Each(func(i int, cell *goquery.Selection) {
		out[i] = strings.TrimSpace(cell.Text())
	})
	return out
}
