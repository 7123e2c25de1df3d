package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CellKind tells which of the three cell shapes a Cell holds
type CellKind int

const (
	CellMissing CellKind = iota
	CellText
	CellNumber
)

// Cell is one extracted table cell: raw text (the timestamp column),
// a number, or the missing marker for a blank cell
type Cell struct {
	Kind  CellKind
	Text  string
	Value float64
}

// TextCell wraps raw text
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// NumberCell wraps a parsed number
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, Value: v}
}

// MissingCell marks a blank cell
func MissingCell() Cell {
	return Cell{Kind: CellMissing}
}

// Float returns the numeric value of the cell. Missing cells and blank text
// are NaN; text is parsed as a float.
func (c Cell) Float() (float64, error) {
	switch c.Kind {
	case CellNumber:
		return c.Value, nil
	case CellMissing:
		return math.NaN(), nil
	}
	text := strings.TrimSpace(c.Text)
	if text == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(text, 64)
}

// String renders the cell the way it was read
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Value, 'f', -1, 64)
	}
	return ""
}

// Row is one table row in column order
type Row []Cell

// RawTable is the header/rows dictionary produced by the extractor
type RawTable struct {
	Headers []string
	Data    []Row
}

// Dataset is a table indexed by timestamp with float64 columns.
// Values[i] holds the row for Index[i], in Columns order.
type Dataset struct {
	Columns []string
	Index   []time.Time
	Values  [][]float64
	// Skipped counts input rows dropped because their timestamp did not parse
	Skipped int
	// Duplicates counts rows replaced by a later row with the same timestamp
	Duplicates int
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.Index)
}

// Column returns a copy of the named column, or false if it does not exist
func (d *Dataset) Column(name string) ([]float64, bool) {
	pos := -1
	for i, c := range d.Columns {
		if c == name {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, false
	}
	out := make([]float64, len(d.Values))
	for i, row := range d.Values {
		out[i] = row[pos]
	}
	return out, true
}

// Page is one of the three dashboard tables published per date
type Page struct {
	Index int
	Name  string
}

// Pages lists the dashboard pages in the fixed extraction order
var Pages = []Page{
	{Index: 1, Name: "demanda"},
	{Index: 2, Name: "generacion"},
	{Index: 3, Name: "emision"},
}

// DateLayout is the date format used in dashboard URLs and storage tags
const DateLayout = "2006-01-02"

// Target is one (date, page) unit of extraction work
type Target struct {
	Date time.Time
	Page Page
}

// URL builds <base>/<YYYY-MM-DD>/<page index>
func (t Target) URL(base string) string {
	return fmt.Sprintf("%s/%s/%d", strings.TrimRight(base, "/"), t.Date.Format(DateLayout), t.Page.Index)
}

// DateTag returns the date in the form used for storage tags
func (t Target) DateTag() string {
	return t.Date.Format(DateLayout)
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%d", t.DateTag(), t.Page.Index)
}
