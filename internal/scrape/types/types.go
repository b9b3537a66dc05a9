package types

import "context"

// ScrapeResult lists the export files a fetcher wrote.
type ScrapeResult struct {
	Source string
	Files  []string
	Failed int
}

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (ScrapeResult, error)
}
