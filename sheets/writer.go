package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/url"
	"strings"
	"time"

	"gomera-scraper/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer mirrors datasets into a Google Sheets spreadsheet, one sheet per write
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewWriter creates a Writer for spreadsheetID authenticated with a
// service account key
func NewWriter(ctx context.Context, spreadsheetID string, credentials []byte) (*Writer, error) {
	if spreadsheetID == "" {
		return nil, errors.New("no spreadsheet id")
	}

	var key struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(credentials, &key); err != nil {
		return nil, fmt.Errorf("sheets credentials are not valid JSON: %w", err)
	}
	if key.Type != "service_account" {
		return nil, fmt.Errorf("sheets credentials must be a service account key, got type %q", key.Type)
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credentials))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Writer{service: service, spreadsheetID: spreadsheetID}, nil
}

// Write puts the dataset in a sheet named <measurement>_<date tag>, replacing
// the sheet contents if it already exists. database is written to the
// metadata row only.
func (w *Writer) Write(ctx context.Context, database, measurement string, ds *models.Dataset, tags map[string]string) error {
	sheetName := SheetName(measurement, tags)

	if err := w.ensureSheet(ctx, sheetName); err != nil {
		return err
	}

	values := [][]interface{}{{"database", database, "measurement", measurement}}
	values = append(values, DatasetValues(ds)...)

	range_ := fmt.Sprintf("'%s'!A1", sheetName)
	_, err := w.service.Spreadsheets.Values.Update(w.spreadsheetID, range_, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write to sheet %s: %w", sheetName, err)
	}

	log.Printf("Wrote %d rows to sheet '%s'\n", ds.Len(), sheetName)
	return nil
}

// ensureSheet adds the sheet, or clears it when a previous run created it
func (w *Writer) ensureSheet(ctx context.Context, sheetName string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: sheetName},
				},
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do()
	if err == nil {
		return nil
	}
	if !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create sheet %s: %w", sheetName, err)
	}

	_, err = w.service.Spreadsheets.Values.Clear(w.spreadsheetID, fmt.Sprintf("'%s'", sheetName), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to clear sheet %s: %w", sheetName, err)
	}
	return nil
}

// DatasetValues lays out a header row followed by one row per timestamp.
// NaN cells are left empty.
func DatasetValues(ds *models.Dataset) [][]interface{} {
	header := []interface{}{"hora"}
	for _, c := range ds.Columns {
		header = append(header, c)
	}
	values := [][]interface{}{header}

	for i, ts := range ds.Index {
		row := []interface{}{ts.Format(time.RFC3339)}
		for _, v := range ds.Values[i] {
			if math.IsNaN(v) {
				row = append(row, "")
				continue
			}
			row = append(row, v)
		}
		values = append(values, row)
	}
	return values
}

// SheetName builds the sheet title for a write: <measurement>_<date>,
// without the characters Sheets rejects and at most 100 characters long
func SheetName(measurement string, tags map[string]string) string {
	name := measurement
	if date := tags["date"]; date != "" {
		name += "_" + date
	}
	name = strings.TrimSpace(sheetNameReplacer.Replace(name))
	if name == "" {
		return "Sheet1"
	}
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

var sheetNameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", "?", "_", "*", "_", "[", "_", "]", "_", "'", "_",
)

// ExtractSpreadsheetID returns the id segment of a .../spreadsheets/d/<id>/... URL
func ExtractSpreadsheetID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "d" {
			return segments[i+1]
		}
	}
	return ""
}
