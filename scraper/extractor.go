package scraper

import (
	"context"

	"gomera-scraper/apperr"
	"gomera-scraper/fetcher"
	"gomera-scraper/models"
	"gomera-scraper/parser"
)

// DefaultTableSelector matches the container the dashboard renders its table into
const DefaultTableSelector = "div.tabla-evolucion-content"

// Extractor reads the dynamic dashboard table behind a URL.
// It keeps no state between calls and never retries.
type Extractor struct {
	source   fetcher.TableSource
	parser   *parser.TableParser
	selector string
}

// NewExtractor creates an Extractor reading tables from source
func NewExtractor(source fetcher.TableSource, selector string) *Extractor {
	if selector == "" {
		selector = DefaultTableSelector
	}
	return &Extractor{
		source:   source,
		parser:   parser.NewTableParser(),
		selector: selector,
	}
}

// ExtractData navigates to url, waits for the table and returns its headers and rows
func (e *Extractor) ExtractData(ctx context.Context, url string) (*models.RawTable, error) {
	if url == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "url must not be empty")
	}

	html, err := e.source.TableHTML(ctx, url, e.selector)
	if err != nil {
		if _, classified := apperr.KindOf(err); classified {
			return nil, err
		}
		return nil, apperr.Wrapf(apperr.KindExtraction, err, "failed to extract table from %s", url)
	}

	table, err := e.parser.ParseTable(html)
	if err != nil {
		return nil, err
	}
	return table, nil
}
