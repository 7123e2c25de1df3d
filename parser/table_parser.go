package parser

import (
	"fmt"
	"strconv"
	"strings"

	"gomera-scraper/apperr"
	"gomera-scraper/models"

	"github.com/PuerkitoBio/goquery"
)

const (
	headerSelector = "tbody > tr > th"
	rowSelector    = "tbody > tr"
	cellSelector   = "td"
)

// TableParser turns the HTML of a dashboard table container into a RawTable
type TableParser struct{}

// NewTableParser creates a new TableParser instance
func NewTableParser() *TableParser {
	return &TableParser{}
}

// ParseTable extracts headers and data rows from the table HTML.
// A non-numeric value cell fails the whole table with a CELL_FORMAT error.
func (p *TableParser) ParseTable(htmlContent string) (*models.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExtraction, err, "failed to parse table HTML")
	}

	headers := p.extractHeaders(doc.Selection)
	data, err := p.extractDataRows(doc.Selection, len(headers))
	if err != nil {
		return nil, err
	}

	return &models.RawTable{
		Headers: headers,
		Data:    data,
	}, nil
}

// extractHeaders keeps the non-blank header cells in DOM order
func (p *TableParser) extractHeaders(table *goquery.Selection) []string {
	headers := []string{}
	table.Find(headerSelector).Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			headers = append(headers, text)
		}
	})
	return headers
}

// extractDataRows reads every body row after the first one, which repeats the header
func (p *TableParser) extractDataRows(table *goquery.Selection, width int) ([]models.Row, error) {
	data := []models.Row{}
	var rowErr error

	table.Find(rowSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i == 0 {
			return true
		}

		cells := s.Find(cellSelector)
		// Incomplete rows never reach the dataset
		if cells.Length() == 0 || (width > 0 && cells.Length() != width) {
			return true
		}

		row := make(models.Row, 0, cells.Length())
		cells.EachWithBreak(func(j int, c *goquery.Selection) bool {
			text := strings.TrimSpace(c.Text())
			if j == 0 {
				row = append(row, models.TextCell(text))
				return true
			}
			if text == "" {
				row = append(row, models.MissingCell())
				return true
			}
			value, err := strconv.ParseFloat(text, 64)
			if err != nil {
				rowErr = apperr.Wrapf(apperr.KindCellFormat, err,
					"failed to process cell %d of row %d (%s)", j, i, rowLabel(row))
				return false
			}
			row = append(row, models.NumberCell(value))
			return true
		})
		if rowErr != nil {
			return false
		}

		data = append(data, row)
		return true
	})

	if rowErr != nil {
		return nil, rowErr
	}
	return data, nil
}

func rowLabel(row models.Row) string {
	if len(row) == 0 {
		return "no timestamp"
	}
	return fmt.Sprintf("hora %q", row[0].Text)
}
