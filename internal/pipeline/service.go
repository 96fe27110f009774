// Package pipeline ties discovery, inventory scraping and persistence into
// the region-level operations exposed by the server and the CLI.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dealerscout/internal/cache"
	"dealerscout/internal/database"
	"dealerscout/internal/discovery"
	"dealerscout/internal/logger"
	"dealerscout/internal/models"
	"dealerscout/internal/scraper"
)

// ErrInProgress is returned when a discovery run for the same region is
// already active.
var ErrInProgress = errors.New("discovery already running for region")

type Crawler interface {
	Run(ctx context.Context, zip string) (*discovery.RunResult, error)
}

type Scraper interface {
	Scrape(ctx context.Context, dealerURL string) ([]*models.Car, error)
	ScrapeAll(ctx context.Context, urls []string) []scraper.Result
}

type Store interface {
	DealershipURLs(ctx context.Context, zip string) ([]string, error)
	Dealerships(ctx context.Context, zip string) ([]*models.Dealership, error)
	CountDealerships(ctx context.Context, zip string) (int, error)
	InsertCars(ctx context.Context, cars []*models.Car) (database.WriteResult, error)
	Cars(ctx context.Context, filter models.CarFilter) ([]*models.Car, error)
}

// RegionCache remembers when a region was last refreshed.
type RegionCache interface {
	Fresh(zip string) (cache.RegionEntry, bool)
	Record(zip string, summary models.RegionSummary) error
}

// DiscoveryResult reports a RunDiscovery call. Run is nil when the region
// was already known and no crawl happened.
type DiscoveryResult struct {
	ZipCode  string               `json:"zipCode" yaml:"zip_code"`
	Skipped  bool                 `json:"skipped" yaml:"skipped"`
	Existing int                  `json:"existing" yaml:"existing"`
	Run      *discovery.RunResult `json:"run,omitempty" yaml:"run,omitempty"`
}

type Service struct {
	crawler Crawler
	scraper Scraper
	store   Store
	cache   RegionCache
	now     func() time.Time

	mu      sync.Mutex
	running map[string]struct{}
}

// New builds a Service. cache may be nil, in which case every refresh
// scrapes.
func New(crawler Crawler, scraper Scraper, store Store, regionCache RegionCache) *Service {
	return &Service{
		crawler: crawler,
		scraper: scraper,
		store:   store,
		cache:   regionCache,
		now:     time.Now,
		running: make(map[string]struct{}),
	}
}

// ListDealershipURLs returns the website of every stored dealership for zip.
func (s *Service) ListDealershipURLs(ctx context.Context, zip string) ([]string, error) {
	return s.store.DealershipURLs(ctx, zip)
}

// Dealerships returns the stored dealerships for zip.
func (s *Service) Dealerships(ctx context.Context, zip string) ([]*models.Dealership, error) {
	return s.store.Dealerships(ctx, zip)
}

// ScrapeInventory extracts listings from one dealer page. Failures are
// logged by the scraper and yield an empty slice.
func (s *Service) ScrapeInventory(ctx context.Context, dealerURL string) []*models.Car {
	cars, _ := s.scraper.Scrape(ctx, dealerURL)
	if cars == nil {
		cars = []*models.Car{}
	}
	return cars
}

// SaveCars appends cars to storage.
func (s *Service) SaveCars(ctx context.Context, cars []*models.Car) (database.WriteResult, error) {
	return s.store.InsertCars(ctx, cars)
}

// Cars returns stored cars matching filter.
func (s *Service) Cars(ctx context.Context, filter models.CarFilter) ([]*models.Car, error) {
	return s.store.Cars(ctx, filter)
}

// RunDiscovery crawls for dealerships near zip. Unless force is set the crawl
// only happens when nothing is stored for the region yet.
func (s *Service) RunDiscovery(ctx context.Context, zip string, force bool) (*DiscoveryResult, error) {
	if !s.acquire(zip) {
		return nil, ErrInProgress
	}
	defer s.release(zip)

	result := &DiscoveryResult{ZipCode: zip}
	existing, err := s.store.CountDealerships(ctx, zip)
	if err != nil {
		return nil, err
	}
	result.Existing = existing

	if existing > 0 && !force {
		logger.WithFields(logrus.Fields{"zip": zip, "count": existing}).Info("dealerships already stored, skipping discovery")
		result.Skipped = true
		return result, nil
	}

	run, err := s.crawler.Run(ctx, zip)
	result.Run = run
	if err != nil {
		return result, fmt.Errorf("failed to discover dealerships for %s: %w", zip, err)
	}
	return result, nil
}

// RefreshRegion discovers dealerships if needed, scrapes every dealer site
// and saves the listings. A region refreshed within the cache expiry is
// answered from the cache unless force is set.
func (s *Service) RefreshRegion(ctx context.Context, zip string, force bool) (models.RegionSummary, error) {
	start := s.now()
	log := logger.WithField("zip", zip)

	if !force && s.cache != nil {
		if entry, ok := s.cache.Fresh(zip); ok {
			log.WithField("refreshed_at", entry.Timestamp).Info("region is fresh, using cached summary")
			summary := entry.Summary
			summary.Cached = true
			return summary, nil
		}
	}

	summary := models.RegionSummary{ZipCode: zip}

	disc, err := s.RunDiscovery(ctx, zip, false)
	if err != nil {
		return summary, err
	}
	if disc.Run != nil {
		summary.NewDealerships = disc.Run.Write.Inserted
	}

	urls, err := s.store.DealershipURLs(ctx, zip)
	if err != nil {
		return summary, err
	}
	summary.Dealerships = len(urls)

	results := s.scraper.ScrapeAll(ctx, urls)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	for _, r := range results {
		summary.DealersVisited++
		if r.Err != nil {
			summary.DealersFailed++
		}
	}
	cars := scraper.Cars(results)
	summary.CarsFound = len(cars)

	write, err := s.store.InsertCars(ctx, cars)
	summary.CarsSaved = write.Inserted
	if err != nil {
		return summary, err
	}

	summary.FinishedAt = s.now()
	summary.Duration = summary.FinishedAt.Sub(start)

	if s.cache != nil {
		if err := s.cache.Record(zip, summary); err != nil {
			log.WithError(err).Warn("failed to record region refresh")
		}
	}

	log.WithFields(logrus.Fields{
		"dealers":  summary.Dealerships,
		"failed":   summary.DealersFailed,
		"cars":     summary.CarsFound,
		"saved":    summary.CarsSaved,
		"duration": summary.Duration.Round(time.Millisecond),
	}).Info("region refreshed")
	return summary, nil
}

func (s *Service) acquire(zip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.running[zip]; busy {
		return false
	}
	s.running[zip] = struct{}{}
	return true
}

func (s *Service) release(zip string) {
	s.mu.Lock()
	delete(s.running, zip)
	s.mu.Unlock()
}
