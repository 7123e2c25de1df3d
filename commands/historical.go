package commands

import (
	"fmt"
	"time"

	"gomera-scraper/backfill"

	"github.com/spf13/cobra"
)

var (
	historicalFrom   string
	historicalTo     string
	historicalResume bool
)

var historicalCmd = &cobra.Command{
	Use:   "historical [--from YYYY-MM-DD] [--to YYYY-MM-DD] [--resume]",
	Short: "Backfills a date range, retrying each page a few times before skipping it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("historical")
		if err != nil {
			return err
		}
		defer a.close()

		if historicalFrom != "" {
			a.cfg.Backfill.Start = historicalFrom
		}
		if historicalTo != "" {
			a.cfg.Backfill.End = historicalTo
		}
		if err := a.cfg.Validate(); err != nil {
			return fmt.Errorf("invalid date range: %w", err)
		}
		from, to, err := a.cfg.DateRange()
		if err != nil {
			return err
		}

		w, database, err := a.writer(cmd.Context())
		if err != nil {
			a.sink.ReportFatal(err.Error())
			return err
		}

		var existing backfill.ExistingCounter
		if historicalResume {
			existing = database
		}

		started := time.Now()
		summary, err := a.runner(w, existing).Run(cmd.Context(), from, to)
		a.logger.Info("Backfill took %s: %d/%d targets written", time.Since(started).Round(time.Second), summary.Written, summary.Targets)
		return err
	},
}

func init() {
	historicalCmd.Flags().StringVar(&historicalFrom, "from", "", "First date to extract (defaults to backfill.start)")
	historicalCmd.Flags().StringVar(&historicalTo, "to", "", "Last date to extract, inclusive (defaults to backfill.end)")
	historicalCmd.Flags().BoolVar(&historicalResume, "resume", false, "Skip pages that already have data stored for the date")
	rootCmd.AddCommand(historicalCmd)
}
