// Package scraper fetches dealer inventory pages and turns them into cars.
package scraper

import (
	"bytes"
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"dealerscout/internal/errs"
	"dealerscout/internal/extract"
	"dealerscout/internal/logger"
	"dealerscout/internal/models"
)

// Options tunes a Scraper.
type Options struct {
	// Workers bounds concurrent fetches in ScrapeAll.
	Workers int
	// RequestsPerSecond paces fetches across workers; zero disables pacing.
	RequestsPerSecond float64
}

type Scraper struct {
	fetcher Fetcher
	limiter *rate.Limiter
	workers int
}

func New(fetcher Fetcher, opts Options) *Scraper {
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	s := &Scraper{fetcher: fetcher, workers: opts.Workers}
	if opts.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return s
}

// Scrape fetches one dealer page and returns its listings as cars located at
// dealerURL. On any failure it logs, returns an empty slice and the error so
// callers can count it; the error never needs to stop a batch.
func (s *Scraper) Scrape(ctx context.Context, dealerURL string) ([]*models.Car, error) {
	log := logger.WithFields(logrus.Fields{"url": dealerURL})
	start := time.Now()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			log.WithError(err).Warn("scrape cancelled while waiting for rate limiter")
			return []*models.Car{}, errs.Fetch("wait", dealerURL, err)
		}
	}

	page, err := s.fetcher.Fetch(ctx, dealerURL)
	if err != nil {
		log.WithError(err).Warn("failed to fetch dealer page")
		return []*models.Car{}, err
	}

	listings, err := extract.ParseListings(bytes.NewReader(page.Body))
	if err != nil {
		perr := errs.Parse("parse html", dealerURL, err)
		log.WithError(perr).Warn("failed to parse dealer page")
		return []*models.Car{}, perr
	}

	cars := make([]*models.Car, 0, len(listings))
	for _, l := range listings {
		cars = append(cars, l.Car(dealerURL))
	}

	log.WithFields(logrus.Fields{
		"count":    len(cars),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("scraped dealer inventory")
	return cars, nil
}
