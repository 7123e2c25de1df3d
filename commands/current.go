package commands

import (
	"time"

	"github.com/spf13/cobra"
)

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Extracts today's demand, generation and emission tables and stores them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("current")
		if err != nil {
			return err
		}
		defer a.close()

		w, _, err := a.writer(cmd.Context())
		if err != nil {
			a.sink.ReportFatal(err.Error())
			return err
		}

		today := startOfDay(time.Now().In(a.builder.Location()))
		_, err = a.runner(w, nil).Run(cmd.Context(), today, today)
		return err
	},
}

func init() {
	rootCmd.AddCommand(currentCmd)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
