package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gomera-scraper/models"

	"github.com/lib/pq"
)

// Point is one stored (timestamp, field) value
type Point struct {
	Measurement string          `db:"measurement"`
	Timestamp   time.Time       `db:"ts"`
	Field       string          `db:"field"`
	Value       sql.NullFloat64 `db:"value"`
	Tags        string          `db:"tags"`
}

// Points flattens a dataset into one point per timestamp and column.
// NaN becomes NULL so "not reported" stays distinct from zero.
func Points(measurement string, ds *models.Dataset, tags map[string]string) ([]Point, error) {
	if tags == nil {
		tags = map[string]string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	points := make([]Point, 0, ds.Len()*len(ds.Columns))
	for i, ts := range ds.Index {
		for j, field := range ds.Columns {
			v := ds.Values[i][j]
			points = append(points, Point{
				Measurement: measurement,
				Timestamp:   ts,
				Field:       field,
				Value:       sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)},
				Tags:        string(encoded),
			})
		}
	}
	return points, nil
}

// Write stores the dataset rows under measurement in database, in one transaction.
// Rewriting a timestamp replaces its previous values.
func (db *DB) Write(ctx context.Context, database, measurement string, ds *models.Dataset, tags map[string]string) error {
	points, err := Points(measurement, ds, tags)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}

	if err := db.ensureSchema(ctx, database); err != nil {
		return err
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO `+pq.QuoteIdentifier(database)+`.points (measurement, ts, field, value, tags)
		VALUES (:measurement, :ts, :field, :value, :tags)
		ON CONFLICT (measurement, ts, field)
		DO UPDATE SET value = EXCLUDED.value, tags = EXCLUDED.tags, written_at = now()
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("failed to write point %s/%s at %s: %w",
				measurement, p.Field, p.Timestamp.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %d points: %w", len(points), err)
	}
	return nil
}

// CountPoints returns how many points measurement holds for the given date tag
func (db *DB) CountPoints(ctx context.Context, database, measurement, date string) (int, error) {
	if err := db.ensureSchema(ctx, database); err != nil {
		return 0, err
	}

	var n int
	err := db.conn.GetContext(ctx, &n, `
		SELECT count(*) FROM `+pq.QuoteIdentifier(database)+`.points
		WHERE measurement = $1 AND tags->>'date' = $2
	`, measurement, date)
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return n, nil
}
