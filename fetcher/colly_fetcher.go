package fetcher

import (
	"context"
	"fmt"
	"time"

	"gomera-scraper/apperr"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// CollyFetcher reads tables from pages that are already rendered server side,
// such as saved copies of the dashboard. It needs no browser session.
type CollyFetcher struct {
	timeout time.Duration
}

// NewCollyFetcher creates a new CollyFetcher instance
func NewCollyFetcher(timeout time.Duration) *CollyFetcher {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	return &CollyFetcher{timeout: timeout}
}

// TableHTML implements TableSource. A page without the table container is
// reported the same way the browser reports a wait timeout.
func (cf *CollyFetcher) TableHTML(ctx context.Context, url, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(cf.timeout)

	var (
		html     string
		found    bool
		fetchErr error
	)
	c.OnHTML(selector, func(e *colly.HTMLElement) {
		if found {
			return
		}
		outer, err := goquery.OuterHtml(e.DOM)
		if err != nil {
			fetchErr = err
			return
		}
		html = outer
		found = true
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(url); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	if fetchErr != nil {
		return "", apperr.Wrapf(apperr.KindExtraction, fetchErr, "failed to fetch %s", url)
	}
	if !found {
		return "", apperr.Newf(apperr.KindExtractionTimeout, "table %q not present in %s", selector, url)
	}
	return html, nil
}
