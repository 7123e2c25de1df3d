package db

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"gomera-scraper/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset() *models.Dataset {
	loc, _ := time.LoadLocation("Atlantic/Canary")
	return &models.Dataset{
		Columns: []string{"demanda_mw", "prevista_mw"},
		Index: []time.Time{
			time.Date(2024, 2, 1, 0, 0, 0, 0, loc),
			time.Date(2024, 2, 1, 0, 5, 0, 0, loc),
		},
		Values: [][]float64{
			{120.5, 118},
			{math.NaN(), 0},
		},
	}
}

func TestPoints(t *testing.T) {
	points, err := Points("demanda", testDataset(), map[string]string{"date": "2024-02-01"})
	require.NoError(t, err)
	require.Len(t, points, 4)

	assert.Equal(t, "demanda", points[0].Measurement)
	assert.Equal(t, "demanda_mw", points[0].Field)
	assert.True(t, points[0].Value.Valid)
	assert.Equal(t, 120.5, points[0].Value.Float64)
	assert.JSONEq(t, `{"date":"2024-02-01"}`, points[0].Tags)

	// NaN is stored as NULL, a measured zero is kept
	assert.False(t, points[2].Value.Valid)
	assert.True(t, points[3].Value.Valid)
	assert.Equal(t, 0.0, points[3].Value.Float64)
}

func TestPoints_NoTags(t *testing.T) {
	points, err := Points("emision", &models.Dataset{Columns: []string{"co2"}}, nil)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestConnString(t *testing.T) {
	assert.Equal(t, "postgres://x", ConnString("postgres://x"))

	t.Setenv("DB_HOST", "tsdb")
	t.Setenv("DB_NAME", "monitoring")
	dsn := ConnString("")
	assert.Contains(t, dsn, "host=tsdb")
	assert.Contains(t, dsn, "dbname=monitoring")
	assert.Contains(t, dsn, "sslmode=disable")
}

// TestWrite runs against a real PostgreSQL when TEST_DATABASE_URL is set
func TestWrite(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := NewDB(ctx, dsn)
	require.NoError(t, err)
	defer database.Close()

	schema := "gomera_test_" + time.Now().Format("20060102150405")
	defer database.conn.Exec(`DROP SCHEMA IF EXISTS ` + schema + ` CASCADE`)

	tags := map[string]string{"date": "2024-02-01"}
	require.NoError(t, database.Write(ctx, schema, "demanda", testDataset(), tags))
	// second write upserts instead of duplicating
	require.NoError(t, database.Write(ctx, schema, "demanda", testDataset(), tags))

	n, err := database.CountPoints(ctx, schema, "demanda", "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
