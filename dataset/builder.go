package dataset

import (
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"gomera-scraper/apperr"
	"gomera-scraper/models"
)

// IndexColumn is the normalized name of the timestamp column
const IndexColumn = "hora"

// DefaultTimezone is the zone the dashboard publishes its timestamps in
const DefaultTimezone = "Atlantic/Canary"

const wallClockLayout = "2006-01-02 15:04:05"

var timestampLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
}

// Builder converts raw tables into timestamp-indexed datasets
type Builder struct {
	location *time.Location
}

// NewBuilder creates a Builder that localizes timestamps to the named zone
func NewBuilder(timezone string) (*Builder, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &Builder{location: loc}, nil
}

// Location returns the zone timestamps are localized to
func (b *Builder) Location() *time.Location {
	return b.location
}

type indexedRow struct {
	ts     time.Time
	values []float64
}

// Build normalizes the headers, indexes rows by the hora column and
// coerces every other column to float64.
func (b *Builder) Build(raw *models.RawTable) (*models.Dataset, error) {
	if raw == nil {
		raw = &models.RawTable{}
	}

	indexPos := -1
	columns := make([]string, 0, len(raw.Headers))
	positions := make([]int, 0, len(raw.Headers))
	for i, h := range raw.Headers {
		name := NormalizeHeader(h)
		if name == IndexColumn && indexPos < 0 {
			indexPos = i
			continue
		}
		columns = append(columns, name)
		positions = append(positions, i)
	}
	if indexPos < 0 {
		return nil, apperr.Newf(apperr.KindMissingColumn,
			"column %q not found in headers %v", IndexColumn, raw.Headers)
	}

	ds := &models.Dataset{
		Columns: columns,
		Index:   []time.Time{},
		Values:  [][]float64{},
	}

	byTime := make(map[int64]int)
	rows := []indexedRow{}
	var last time.Time
	for n, row := range raw.Data {
		if len(row) != len(raw.Headers) {
			return nil, apperr.Newf(apperr.KindTypeConversion,
				"row %d has %d cells, expected %d", n, len(row), len(raw.Headers))
		}

		ts, ok := b.parseTimestamp(row[indexPos])
		if !ok {
			ds.Skipped++
			continue
		}
		ts = b.resolveFold(ts, last)
		last = ts

		values := make([]float64, len(positions))
		for j, pos := range positions {
			v, err := row[pos].Float()
			if err != nil {
				return nil, apperr.Wrapf(apperr.KindTypeConversion, err,
					"failed to convert column %q at %s", columns[j], ts.Format(time.RFC3339))
			}
			values[j] = v
		}

		// Duplicate timestamps keep the last row read
		if prev, seen := byTime[ts.UnixNano()]; seen {
			rows[prev].values = values
			ds.Duplicates++
			continue
		}
		byTime[ts.UnixNano()] = len(rows)
		rows = append(rows, indexedRow{ts: ts, values: values})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ts.Before(rows[j].ts)
	})
	for _, r := range rows {
		ds.Index = append(ds.Index, r.ts)
		ds.Values = append(ds.Values, r.values)
	}

	return ds, nil
}

func (b *Builder) parseTimestamp(cell models.Cell) (time.Time, bool) {
	text := strings.TrimSpace(cell.String())
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, text, b.location); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// resolveFold picks which instant a wall-clock time stands for when the
// clocks go back and the hour repeats. Rows are in reading order, so the
// first occurrence after the previous row is taken.
func (b *Builder) resolveFold(ts, prev time.Time) time.Time {
	candidates := b.occurrences(ts)
	if prev.IsZero() {
		return candidates[0]
	}
	for _, c := range candidates {
		if c.After(prev) {
			return c
		}
	}
	return candidates[len(candidates)-1]
}

// occurrences returns the instants shown as ts's wall clock, earliest first
func (b *Builder) occurrences(ts time.Time) []time.Time {
	_, before := ts.Add(-3 * time.Hour).Zone()
	_, after := ts.Add(3 * time.Hour).Zone()
	shift := time.Duration(before-after) * time.Second
	if shift <= 0 {
		return []time.Time{ts}
	}

	wall := ts.Format(wallClockLayout)
	var out []time.Time
	for _, c := range []time.Time{ts.Add(-shift), ts, ts.Add(shift)} {
		c = c.In(b.location)
		if c.Format(wallClockLayout) == wall {
			out = append(out, c)
		}
	}
	return out
}
