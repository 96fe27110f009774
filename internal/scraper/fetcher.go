package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"dealerscout/internal/errs"
)

// Page is a fetched dealer page.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher retrieves one page. Non-2xx statuses and network failures are
// returned as fetch errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// FetcherConfig configures CollyFetcher.
type FetcherConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// DefaultFetcherConfig returns the browser-like user agent and the 10s budget.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122 Safari/537.36",
		Timeout:   10 * time.Second,
	}
}

// CollyFetcher issues plain GETs through a fresh colly collector per call.
type CollyFetcher struct {
	config FetcherConfig
}

func NewCollyFetcher(cfg FetcherConfig) *CollyFetcher {
	def := DefaultFetcherConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &CollyFetcher{config: cfg}
}

// Fetch performs the GET. A cancelled ctx aborts before the request is sent;
// an in-flight request is bounded by the configured timeout.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Fetch("get", url, err)
	}

	c := colly.NewCollector(
		colly.UserAgent(f.config.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.config.Timeout)
	// colly only treats 200-202 as success unless told otherwise.
	c.ParseHTTPErrorResponse = true

	page := &Page{URL: url}
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		page.StatusCode = r.StatusCode
		page.Body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			page.StatusCode = r.StatusCode
			fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		fetchErr = err
	})

	if err := c.Visit(url); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return nil, errs.Fetch("get", url, fetchErr)
	}
	if page.StatusCode < 200 || page.StatusCode > 299 {
		return nil, errs.Fetch("get", url, fmt.Errorf("unexpected status %d", page.StatusCode))
	}
	return page, nil
}
