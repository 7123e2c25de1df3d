package commands

import (
	"context"
	"fmt"

	"gomera-scraper/backfill"
	"gomera-scraper/config"
	"gomera-scraper/dataset"
	"gomera-scraper/db"
	"gomera-scraper/fetcher"
	"gomera-scraper/logging"
	"gomera-scraper/notify"
	"gomera-scraper/scraper"
	"gomera-scraper/sheets"
)

// app holds the collaborators wired from configuration
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	sink      *notify.ErrorSink
	session   *fetcher.Session
	extractor *scraper.Extractor
	builder   *dataset.Builder
	closers   []func() error
}

// newApp wires logging, error reporting, the table source and the builder.
// name selects the log file.
func newApp(name string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Options{
		File:       cfg.LogFile(name),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	a := &app{
		cfg:     cfg,
		logger:  logger,
		sink:    notify.NewErrorSink(logger),
		closers: []func() error{logger.Close},
	}

	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		sink, err := notify.NewTelegramErrorSink(logger, cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, "gomera-scraper "+name)
		if err != nil {
			logger.Warning("Telegram notifications disabled: %v", err)
		} else {
			a.sink = sink
		}
	}

	var source fetcher.TableSource
	switch cfg.Source.Engine {
	case "colly":
		source = fetcher.NewCollyFetcher(cfg.Source.WaitTimeout)
	default:
		a.session = fetcher.NewSession(fetcher.SessionOptions{
			ChromeBin:   cfg.Source.ChromeBin,
			UserDataDir: cfg.Source.UserDataDir,
		})
		source = fetcher.NewRodFetcher(a.session, cfg.Source.WaitTimeout)
	}
	a.extractor = scraper.NewExtractor(source, cfg.Source.TableSelector)

	a.builder, err = dataset.NewBuilder(cfg.Backfill.Timezone)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// writer connects to the time-series database and, when configured, the sheets mirror
func (a *app) writer(ctx context.Context) (backfill.Writer, *db.DB, error) {
	database, err := db.NewDB(ctx, a.cfg.Storage.DSN)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, database.Close)

	writers := backfill.MultiWriter{database}
	if a.cfg.Sheets.SpreadsheetURL != "" {
		w, err := a.sheetsWriter(ctx)
		if err != nil {
			a.logger.Warning("Google Sheets mirror disabled: %v", err)
		} else {
			writers = append(writers, backfill.Mirror{Name: "Google Sheets", Writer: w, Logger: a.logger})
		}
	}
	return writers, database, nil
}

func (a *app) sheetsWriter(ctx context.Context) (*sheets.Writer, error) {
	credentials, err := a.cfg.Sheets.Credentials()
	if err != nil {
		return nil, err
	}
	return sheets.NewWriter(ctx, sheets.ExtractSpreadsheetID(a.cfg.Sheets.SpreadsheetURL), credentials)
}

func (a *app) runner(w backfill.Writer, existing backfill.ExistingCounter) *backfill.Runner {
	deps := backfill.Deps{
		Extractor: a.extractor,
		Builder:   a.builder,
		Writer:    w,
		Logger:    a.logger,
		Errors:    a.sink,
	}
	// a nil *fetcher.Session must not become a non-nil interface
	if a.session != nil {
		deps.Session = a.session
	}
	deps.Existing = existing

	return backfill.NewRunner(deps, backfill.Options{
		BaseURL:     a.cfg.Source.BaseURL,
		Database:    a.cfg.Storage.Database,
		MaxAttempts: a.cfg.Backfill.MaxAttempts,
		RetryPause:  a.cfg.Backfill.RetryPause,
		DatePause:   a.cfg.Backfill.DatePause,
	})
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			fmt.Printf("Warning: cleanup failed: %v\n", err)
		}
	}
}
