package backfill

import (
	"gomera-scraper/apperr"
	"gomera-scraper/models"
)

// Outcome is what one attempt at a target means for the retry state machine
type Outcome int

const (
	// OutcomeSuccess carries a dataset ready to be written
	OutcomeSuccess Outcome = iota
	// OutcomeRetry is a known failure kind: count the attempt and try again
	OutcomeRetry
	// OutcomeFatal aborts the whole run
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	}
	return "fatal"
}

// AttemptResult is the result of extracting and building one target once
type AttemptResult struct {
	Outcome Outcome
	Dataset *models.Dataset
	Kind    apperr.Kind
	Err     error
}

// classify turns a component error into an attempt result
func classify(err error) AttemptResult {
	kind, ok := apperr.KindOf(err)
	if ok && kind.Retryable() {
		return AttemptResult{Outcome: OutcomeRetry, Kind: kind, Err: err}
	}
	return AttemptResult{Outcome: OutcomeFatal, Kind: kind, Err: err}
}

// TargetState is the terminal state of one (date, page) target
type TargetState int

const (
	TargetWritten TargetState = iota
	TargetExhausted
	TargetSkipped
)

func (s TargetState) String() string {
	switch s {
	case TargetWritten:
		return "written"
	case TargetExhausted:
		return "exhausted"
	}
	return "skipped"
}

// TargetResult records how a target ended
type TargetResult struct {
	Target   models.Target
	State    TargetState
	Attempts int
	Rows     int
}

// Summary aggregates a run
type Summary struct {
	Targets   int
	Written   int
	Exhausted int
	Skipped   int
	Attempts  int
	Rows      int
}

func (s *Summary) add(r TargetResult) {
	s.Targets++
	s.Attempts += r.Attempts
	s.Rows += r.Rows
	switch r.State {
	case TargetWritten:
		s.Written++
	case TargetExhausted:
		s.Exhausted++
	case TargetSkipped:
		s.Skipped++
	}
}
