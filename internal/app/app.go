// Package app assembles the pipeline from configuration for the server and
// the CLI.
package app

import (
	"fmt"

	"dealerscout/internal/cache"
	"dealerscout/internal/config"
	"dealerscout/internal/database"
	"dealerscout/internal/discovery"
	"dealerscout/internal/pipeline"
	"dealerscout/internal/scraper"
)

type App struct {
	Config  *config.Config
	DB      *database.Database
	Crawler *discovery.Crawler
	Scraper *scraper.Scraper
	Cache   *cache.RegionCache
	Service *pipeline.Service
}

// New opens the database and wires every component. Close releases it.
func New(cfg *config.Config) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	browser := discovery.NewRodBrowser(discovery.RodConfig{
		Headless:  cfg.Discovery.Headless,
		ChromeBin: cfg.Discovery.ChromeBin,
		UserAgent: cfg.Scrape.UserAgent,
	})
	crawler := discovery.NewCrawler(browser, db, CrawlerOptions(cfg))

	fetcher := scraper.NewCollyFetcher(scraper.FetcherConfig{
		UserAgent: cfg.Scrape.UserAgent,
		Timeout:   cfg.Scrape.Timeout,
	})
	scr := scraper.New(fetcher, scraper.Options{
		Workers:           cfg.Scrape.Workers,
		RequestsPerSecond: cfg.Scrape.RequestsPerSecond,
	})

	regions := cache.NewRegionCache(cfg.Cache.Path, cfg.Cache.Expiry)

	return &App{
		Config:  cfg,
		DB:      db,
		Crawler: crawler,
		Scraper: scr,
		Cache:   regions,
		Service: pipeline.New(crawler, scr, db, regions),
	}, nil
}

// CrawlerOptions maps the discovery config section.
func CrawlerOptions(cfg *config.Config) discovery.Options {
	d := cfg.Discovery
	return discovery.Options{
		BaseURL:       d.BaseURL,
		Query:         d.Query,
		Brands:        d.Brands,
		InitialSettle: d.InitialSettle,
		ScrollSettle:  d.ScrollSettle,
		PanelSettle:   d.PanelSettle,
		BackSettle:    d.BackSettle,
		MaxScrolls:    d.MaxScrolls,
		MaxCandidates: d.MaxCandidates,
	}
}

func (a *App) Close() error {
	return a.DB.Close()
}
