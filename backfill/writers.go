package backfill

import (
	"context"

	"gomera-scraper/models"
)

// MultiWriter writes to each writer in order and stops at the first error
type MultiWriter []Writer

// Write implements Writer
func (mw MultiWriter) Write(ctx context.Context, database, measurement string, ds *models.Dataset, tags map[string]string) error {
	for _, w := range mw {
		if err := w.Write(ctx, database, measurement, ds, tags); err != nil {
			return err
		}
	}
	return nil
}

// Mirror is a best-effort writer: failures are logged and never stop a run
type Mirror struct {
	Name   string
	Writer Writer
	Logger Logger
}

// Write implements Writer
func (m Mirror) Write(ctx context.Context, database, measurement string, ds *models.Dataset, tags map[string]string) error {
	if err := m.Writer.Write(ctx, database, measurement, ds, tags); err != nil {
		m.Logger.Warning("failed to mirror %s to %s: %v", measurement, m.Name, err)
	}
	return nil
}
