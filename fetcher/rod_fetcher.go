package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gomera-scraper/apperr"

	"github.com/go-rod/rod/lib/proto"
)

// DefaultWaitTimeout bounds the wait for the table container
const DefaultWaitTimeout = 10 * time.Second

// RodFetcher renders dashboard pages in the session's headless browser
type RodFetcher struct {
	session *Session
	timeout time.Duration
}

// NewRodFetcher creates a RodFetcher that waits at most timeout for the table
func NewRodFetcher(session *Session, timeout time.Duration) *RodFetcher {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	return &RodFetcher{
		session: session,
		timeout: timeout,
	}
}

// TableHTML implements TableSource
func (rf *RodFetcher) TableHTML(ctx context.Context, url, selector string) (string, error) {
	browser := rf.session.Browser()
	if browser == nil {
		return "", apperr.New(apperr.KindNotInitialized, "browser session is not started, call Start first")
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", apperr.Wrap(apperr.KindExtraction, err, "failed to open page")
	}
	defer page.Close()

	if err := page.Timeout(rf.timeout).Navigate(url); err != nil {
		return "", rf.classify(ctx, err, fmt.Sprintf("navigation to %s", url))
	}

	table, err := page.Timeout(rf.timeout).Element(selector)
	if err != nil {
		return "", rf.classify(ctx, err, fmt.Sprintf("table %q", selector))
	}

	html, err := table.HTML()
	if err != nil {
		return "", apperr.Wrap(apperr.KindExtraction, err, "failed to get table HTML")
	}
	return html, nil
}

// classify tells a wait that ran out of time apart from other browser failures.
// A cancelled run is not a timeout.
func (rf *RodFetcher) classify(ctx context.Context, err error, what string) error {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return apperr.Wrapf(apperr.KindExtractionTimeout, err, "%s did not complete within %s", what, rf.timeout)
	}
	return apperr.Wrapf(apperr.KindExtraction, err, "%s failed", what)
}
