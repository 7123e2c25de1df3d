package backfill

import (
	"context"
	"fmt"
	"time"

	"gomera-scraper/models"
)

// Extractor reads the raw table behind a dashboard URL
type Extractor interface {
	ExtractData(ctx context.Context, url string) (*models.RawTable, error)
}

// Builder shapes a raw table into a dataset
type Builder interface {
	Build(raw *models.RawTable) (*models.Dataset, error)
}

// Writer persists a dataset as rows of a measurement
type Writer interface {
	Write(ctx context.Context, database, measurement string, ds *models.Dataset, tags map[string]string) error
}

// Session is the browser lifecycle owned by a run
type Session interface {
	Start() error
	Stop() error
}

// Logger is the logging sink
type Logger interface {
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
}

// ErrorSink receives the single report of a run-aborting failure
type ErrorSink interface {
	ReportFatal(msg string)
}

// ExistingCounter tells how many points are already stored for a target
type ExistingCounter interface {
	CountPoints(ctx context.Context, database, measurement, date string) (int, error)
}

// Deps are the collaborators of a Runner. Session and Existing may be nil.
type Deps struct {
	Session   Session
	Extractor Extractor
	Builder   Builder
	Writer    Writer
	Logger    Logger
	Errors    ErrorSink
	// Existing, when set, makes the run skip targets that already have data
	Existing ExistingCounter
}

// Options control the retry policy and target URLs
type Options struct {
	BaseURL     string
	Database    string
	MaxAttempts int
	RetryPause  time.Duration
	DatePause   time.Duration
}

// DefaultMaxAttempts is the number of tries per target before it is skipped
const DefaultMaxAttempts = 3

// Runner drives extraction over a date range and the three dashboard pages,
// one target at a time
type Runner struct {
	deps  Deps
	opts  Options
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner creates a Runner
func NewRunner(deps Deps, opts Options) *Runner {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Runner{
		deps:  deps,
		opts:  opts,
		sleep: sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run processes every date from `from` to `to` inclusive. Targets that keep
// failing with known kinds are skipped; any other error stops the run, is
// reported once to the error sink and returned. The session is stopped on
// every path.
func (r *Runner) Run(ctx context.Context, from, to time.Time) (summary Summary, err error) {
	r.deps.Logger.Info("Starting La Gomera extraction from %s to %s...",
		from.Format(models.DateLayout), to.Format(models.DateLayout))

	var current models.Target
	defer func() {
		if err != nil {
			r.deps.Errors.ReportFatal(fatalMessage(current, err))
		}
		r.deps.Logger.Info("Run summary: %d targets, %d written, %d exhausted, %d skipped, %d attempts, %d rows",
			summary.Targets, summary.Written, summary.Exhausted, summary.Skipped, summary.Attempts, summary.Rows)
		r.deps.Logger.Info("La Gomera extraction finished.")
	}()

	if r.deps.Session != nil {
		if err = r.deps.Session.Start(); err != nil {
			return summary, err
		}
		defer func() {
			if stopErr := r.deps.Session.Stop(); stopErr != nil {
				r.deps.Logger.Warning("failed to stop browser session: %v", stopErr)
			}
		}()
	}

	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		for _, page := range models.Pages {
			current = models.Target{Date: date, Page: page}

			result, procErr := r.processTarget(ctx, current)
			if procErr != nil {
				summary.Attempts += result.Attempts
				return summary, procErr
			}
			summary.add(result)
		}

		if date.Before(to) {
			if err = r.sleep(ctx, r.opts.DatePause); err != nil {
				return summary, err
			}
		}
	}

	return summary, nil
}

func fatalMessage(target models.Target, err error) string {
	if target.Page.Index == 0 {
		return fmt.Sprintf("Error extracting La Gomera data: %v", err)
	}
	return fmt.Sprintf("Error extracting La Gomera data for '%s': %v", target, err)
}

// processTarget runs the PENDING -> ATTEMPT -> SUCCESS | EXHAUSTED state machine
func (r *Runner) processTarget(ctx context.Context, target models.Target) (TargetResult, error) {
	result := TargetResult{Target: target}

	skip, err := r.alreadyStored(ctx, target)
	if err != nil {
		return result, err
	}
	if skip {
		r.deps.Logger.Info("\tSkipping '%s' (%s): data already stored", target, target.Page.Name)
		result.State = TargetSkipped
		return result, nil
	}

	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		result.Attempts = attempt
		r.deps.Logger.Info("\tExtracting La Gomera data for '%s' (%s), attempt %d/%d...",
			target, target.Page.Name, attempt, r.opts.MaxAttempts)

		res := r.attempt(ctx, target)
		switch res.Outcome {
		case OutcomeSuccess:
			if err := r.write(ctx, target, res.Dataset); err != nil {
				return result, err
			}
			result.State = TargetWritten
			result.Rows = res.Dataset.Len()
			return result, nil

		case OutcomeRetry:
			r.deps.Logger.Warning("No La Gomera data for '%s' (%s) on attempt %d/%d [%s]: %v",
				target, target.Page.Name, attempt, r.opts.MaxAttempts, res.Kind, res.Err)
			if attempt < r.opts.MaxAttempts {
				if err := r.sleep(ctx, r.opts.RetryPause); err != nil {
					return result, err
				}
			}

		default:
			return result, res.Err
		}
	}

	r.deps.Logger.Warning("Attempts exhausted for '%s' (%s) after %d tries, moving on",
		target, target.Page.Name, r.opts.MaxAttempts)
	result.State = TargetExhausted
	return result, nil
}

// attempt extracts and builds the target once
func (r *Runner) attempt(ctx context.Context, target models.Target) AttemptResult {
	if err := ctx.Err(); err != nil {
		return AttemptResult{Outcome: OutcomeFatal, Err: err}
	}

	raw, err := r.deps.Extractor.ExtractData(ctx, target.URL(r.opts.BaseURL))
	if err != nil {
		return classify(err)
	}

	ds, err := r.deps.Builder.Build(raw)
	if err != nil {
		return classify(err)
	}

	return AttemptResult{Outcome: OutcomeSuccess, Dataset: ds}
}

func (r *Runner) write(ctx context.Context, target models.Target, ds *models.Dataset) error {
	tags := map[string]string{"date": target.DateTag()}
	if err := r.deps.Writer.Write(ctx, r.opts.Database, target.Page.Name, ds, tags); err != nil {
		return fmt.Errorf("failed to store %s: %w", target.Page.Name, err)
	}
	if ds.Skipped > 0 {
		r.deps.Logger.Warning("'%s' (%s): %d rows with unreadable timestamps were dropped",
			target, target.Page.Name, ds.Skipped)
	}
	if ds.Duplicates > 0 {
		r.deps.Logger.Warning("'%s' (%s): %d rows repeated an earlier timestamp and replaced it",
			target, target.Page.Name, ds.Duplicates)
	}
	r.deps.Logger.Info("\tStored %d rows for '%s' (%s)", ds.Len(), target, target.Page.Name)
	return nil
}

func (r *Runner) alreadyStored(ctx context.Context, target models.Target) (bool, error) {
	if r.deps.Existing == nil {
		return false, nil
	}
	n, err := r.deps.Existing.CountPoints(ctx, r.opts.Database, target.Page.Name, target.DateTag())
	if err != nil {
		return false, fmt.Errorf("failed to check stored data: %w", err)
	}
	return n > 0, nil
}
