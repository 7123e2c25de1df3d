package commands

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gomera-scraper/models"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	probeDate string
	probePage int
)

var probeCmd = &cobra.Command{
	Use:   "probe [url...]",
	Short: "Extracts one or more dashboard tables and prints them without storing anything.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("probe")
		if err != nil {
			return err
		}
		defer a.close()

		urls := args
		if len(urls) == 0 {
			target, err := probeTarget(a.builder.Location())
			if err != nil {
				return err
			}
			urls = []string{target.URL(a.cfg.Source.BaseURL)}
		}

		if a.session != nil {
			if err := a.session.Start(); err != nil {
				return err
			}
			defer a.session.Stop()
		}

		for _, url := range urls {
			raw, err := a.extractor.ExtractData(cmd.Context(), url)
			if err != nil {
				return fmt.Errorf("%s: %w", url, err)
			}
			ds, err := a.builder.Build(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", url, err)
			}

			fmt.Println(url)
			renderDataset(ds)
			if ds.Skipped > 0 {
				fmt.Printf("%d rows skipped (unreadable timestamp)\n", ds.Skipped)
			}
			if ds.Duplicates > 0 {
				fmt.Printf("%d rows replaced (repeated timestamp)\n", ds.Duplicates)
			}
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeDate, "date", "", "Date to probe, YYYY-MM-DD (defaults to today)")
	probeCmd.Flags().IntVar(&probePage, "page", 1, "Dashboard page: 1 demanda, 2 generacion, 3 emision")
	rootCmd.AddCommand(probeCmd)
}

func probeTarget(loc *time.Location) (models.Target, error) {
	var page models.Page
	for _, p := range models.Pages {
		if p.Index == probePage {
			page = p
		}
	}
	if page.Index == 0 {
		return models.Target{}, fmt.Errorf("unknown page %d", probePage)
	}

	date := startOfDay(time.Now().In(loc))
	if probeDate != "" {
		d, err := time.ParseInLocation(models.DateLayout, probeDate, loc)
		if err != nil {
			return models.Target{}, fmt.Errorf("invalid --date: %w", err)
		}
		date = d
	}
	return models.Target{Date: date, Page: page}, nil
}

func renderDataset(ds *models.Dataset) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)

	header := table.Row{"hora"}
	for _, c := range ds.Columns {
		header = append(header, c)
	}
	t.AppendHeader(header)

	for i, ts := range ds.Index {
		row := table.Row{ts.Format("2006-01-02 15:04")}
		for _, v := range ds.Values[i] {
			if math.IsNaN(v) {
				row = append(row, "-")
				continue
			}
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		t.AppendRow(row)
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}
