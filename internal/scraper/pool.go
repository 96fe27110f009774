package scraper

import (
	"context"
	"sync"

	"dealerscout/internal/logger"
	"dealerscout/internal/models"
)

// Result is the outcome of scraping one dealer URL.
type Result struct {
	URL  string
	Cars []*models.Car
	Err  error
}

type scrapeJob struct {
	URL   string
	Index int
}

type scrapeResult struct {
	Result
	Index int
}

// ScrapeAll scrapes every URL with a bounded worker pool. Results keep the
// order of urls; a failed URL carries an empty car slice and its error.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string) []Result {
	if len(urls) == 0 {
		return nil
	}

	numWorkers := s.workers
	if numWorkers > len(urls) {
		numWorkers = len(urls)
	}

	jobChan := make(chan scrapeJob, len(urls))
	resultChan := make(chan scrapeResult, len(urls))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go s.worker(ctx, jobChan, resultChan, &wg)
	}

	for i, u := range urls {
		jobChan <- scrapeJob{URL: u, Index: i}
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]Result, len(urls))
	failed := 0
	for r := range resultChan {
		if r.Err != nil {
			failed++
		}
		results[r.Index] = r.Result
	}

	logger.Infof("scraped %d dealer pages (%d failed) with %d workers", len(urls), failed, numWorkers)
	return results
}

func (s *Scraper) worker(ctx context.Context, jobChan <-chan scrapeJob, resultChan chan<- scrapeResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobChan {
		cars, err := s.Scrape(ctx, job.URL)
		resultChan <- scrapeResult{
			Result: Result{URL: job.URL, Cars: cars, Err: err},
			Index:  job.Index,
		}
	}
}

// Cars flattens results into one slice.
func Cars(results []Result) []*models.Car {
	var all []*models.Car
	for _, r := range results {
		all = append(all, r.Cars...)
	}
	return all
}
