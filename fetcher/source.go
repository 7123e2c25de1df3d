package fetcher

import "context"

// TableSource returns the outer HTML of the first element matching selector
// on the page at url
type TableSource interface {
	TableHTML(ctx context.Context, url, selector string) (string, error)
}
