package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dealerscout/internal/database"
	"dealerscout/internal/errs"
	"dealerscout/internal/logger"
	"dealerscout/internal/models"
)

// XPath selectors for the map search UI.
const (
	FeedXPath    = `//div[@role="feed"]`
	BodyXPath    = `//body`
	PlaceXPath   = `//a[contains(@href, "/place/")]`
	NameXPath    = `//h1[contains(@class, "fontHeadlineLarge")]`
	AddressXPath = `//button[contains(@data-item-id, "address")]`
	PhoneXPath   = `//button[contains(@data-item-id, "phone")]`
	WebsiteXPath = `//a[contains(@data-item-id, "authority")]`
)

// Store persists accepted dealerships.
type Store interface {
	UpsertDealerships(ctx context.Context, rows []*models.Dealership) (database.WriteResult, error)
}

// Options holds the search target and the timing budget.
type Options struct {
	BaseURL       string
	Query         string
	Brands        []string
	InitialSettle time.Duration
	ScrollSettle  time.Duration
	PanelSettle   time.Duration
	BackSettle    time.Duration
	MaxScrolls    int
	// MaxCandidates caps place links visited; zero visits all of them.
	MaxCandidates int
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Crawler runs map searches. It is safe for concurrent use; every Run opens
// and releases its own browser session.
type Crawler struct {
	browser Browser
	store   Store
	opts    Options
	sleep   Sleeper
}

func NewCrawler(browser Browser, store Store, opts Options) *Crawler {
	return &Crawler{browser: browser, store: store, opts: opts, sleep: SleepContext}
}

// WithSleeper replaces the settle-delay function.
func (c *Crawler) WithSleeper(s Sleeper) *Crawler {
	c.sleep = s
	return c
}

// RunResult summarizes one search.
type RunResult struct {
	RunID      string               `json:"runId" yaml:"run_id"`
	ZipCode    string               `json:"zipCode" yaml:"zip_code"`
	SearchURL  string               `json:"searchUrl" yaml:"search_url"`
	States     []State              `json:"states" yaml:"states"`
	Scrolls    int                  `json:"scrolls" yaml:"scrolls"`
	Candidates int                  `json:"candidates" yaml:"candidates"`
	Failed     int                  `json:"failed" yaml:"failed"`
	Rejected   int                  `json:"rejected" yaml:"rejected"`
	NoWebsite  int                  `json:"noWebsite" yaml:"no_website"`
	Accepted   []*models.Dealership `json:"accepted" yaml:"accepted"`
	Write      database.WriteResult `json:"write" yaml:"write"`
}

// State returns the final state reached.
func (r *RunResult) State() State {
	if len(r.States) == 0 {
		return StateIdle
	}
	return r.States[len(r.States)-1]
}

// SearchURL builds the map search URL for query near location.
func SearchURL(baseURL, query, location string) string {
	return baseURL + url.QueryEscape(strings.TrimSpace(query)) + "+" + url.QueryEscape(strings.TrimSpace(location))
}

type run struct {
	*RunResult
	log *logrus.Entry
}

func (r *run) enter(s State) {
	r.States = append(r.States, s)
	r.log.WithField("state", s.String()).Debug("discovery state change")
}

// Run searches for dealerships near zip and persists the brand matches.
// Session or initial navigation failures abort the run before anything is
// written. Per-candidate failures are logged and skipped.
func (c *Crawler) Run(ctx context.Context, zip string) (*RunResult, error) {
	r := &run{RunResult: &RunResult{
		RunID:     uuid.NewString(),
		ZipCode:   zip,
		SearchURL: SearchURL(c.opts.BaseURL, c.opts.Query, zip),
	}}
	r.log = logger.WithFields(logrus.Fields{"run_id": r.RunID, "zip": zip})
	r.enter(StateIdle)

	sess, err := c.browser.Open(ctx)
	if err != nil {
		r.enter(StateFailed)
		return r.RunResult, errs.Browser("open session", "", err)
	}
	var closeOnce sync.Once
	release := func() {
		closeOnce.Do(func() {
			if err := sess.Close(); err != nil {
				r.log.WithError(err).Warn("failed to close browser session")
			}
		})
	}
	defer release()

	r.log.WithField("url", r.SearchURL).Info("starting dealership search")
	if err := sess.Navigate(ctx, r.SearchURL); err != nil {
		r.enter(StateFailed)
		return r.RunResult, errs.Browser("navigate", r.SearchURL, err)
	}
	if err := c.sleep(ctx, c.opts.InitialSettle); err != nil {
		r.enter(StateFailed)
		return r.RunResult, err
	}
	r.enter(StatePageLoaded)

	r.enter(StateScrolling)
	if err := c.scroll(ctx, sess, r); err != nil {
		r.enter(StateFailed)
		return r.RunResult, err
	}

	r.enter(StateExtracting)
	if err := c.extract(ctx, sess, r); err != nil {
		r.enter(StateFailed)
		return r.RunResult, err
	}

	release()

	write, err := c.store.UpsertDealerships(ctx, r.Accepted)
	r.Write = write
	if err != nil {
		r.enter(StateFailed)
		return r.RunResult, fmt.Errorf("failed to save dealerships: %w", err)
	}
	r.enter(StateDone)

	r.log.WithFields(logrus.Fields{
		"candidates": r.Candidates,
		"accepted":   len(r.Accepted),
		"rejected":   r.Rejected,
		"failed":     r.Failed,
		"inserted":   write.Inserted,
	}).Info("dealership search finished")
	return r.RunResult, nil
}

// scroll pushes the results container to its bottom until its height stops
// growing or MaxScrolls is reached. Only cancellation is returned as an error.
func (c *Crawler) scroll(ctx context.Context, sess Session, r *run) error {
	container, err := sess.Find(ctx, FeedXPath)
	if err != nil {
		container, err = sess.Find(ctx, BodyXPath)
	}
	if err != nil {
		r.log.WithError(err).Warn("no scrollable results container, skipping scroll")
		return nil
	}

	last, err := container.ScrollHeight()
	if err != nil {
		r.log.WithError(err).Warn("failed to read results height, skipping scroll")
		return nil
	}

	for r.Scrolls < c.opts.MaxScrolls {
		if err := container.ScrollTo(last); err != nil {
			r.log.WithError(err).Warn("scroll failed")
			return nil
		}
		r.Scrolls++
		if err := c.sleep(ctx, c.opts.ScrollSettle); err != nil {
			return err
		}
		height, err := container.ScrollHeight()
		if err != nil {
			r.log.WithError(err).Warn("failed to read results height")
			return nil
		}
		if height == last {
			break
		}
		last = height
	}
	r.log.WithField("scrolls", r.Scrolls).Debug("finished scrolling")
	return nil
}

func (c *Crawler) extract(ctx context.Context, sess Session, r *run) error {
	places, err := sess.FindAll(ctx, PlaceXPath)
	if err != nil {
		r.log.WithError(err).Warn("failed to list place links")
		return nil
	}
	r.Candidates = len(places)
	if c.opts.MaxCandidates > 0 && r.Candidates > c.opts.MaxCandidates {
		r.Candidates = c.opts.MaxCandidates
	}
	if r.Candidates == 0 {
		r.log.Warn("no place links found")
		return nil
	}
	r.log.WithField("count", r.Candidates).Info("visiting place results")

	for i := 0; i < r.Candidates; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		dealer, err := c.safeVisit(ctx, sess, i)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.Failed++
			r.log.WithError(err).WithField("index", i).Warn("failed to process place result")
			if backErr := sess.Back(ctx); backErr == nil {
				_ = c.sleep(ctx, c.opts.BackSettle)
			}
			continue
		}
		c.accept(r, dealer)
	}
	return nil
}

// safeVisit turns a panic inside the browser driver into a per-place failure.
func (c *Crawler) safeVisit(ctx context.Context, sess Session, i int) (dealer *models.Dealership, err error) {
	defer func() {
		if p := recover(); p != nil {
			dealer = nil
			err = errs.Browser("visit place", fmt.Sprintf("#%d", i), fmt.Errorf("panic: %v", p))
		}
	}()
	return c.visit(ctx, sess, i)
}

// visit opens the i-th place result and reads its detail panel. Links are
// looked up again on every visit since navigating back re-renders the list.
func (c *Crawler) visit(ctx context.Context, sess Session, i int) (*models.Dealership, error) {
	places, err := sess.FindAll(ctx, PlaceXPath)
	if err != nil {
		return nil, errs.Browser("list places", "", err)
	}
	if i >= len(places) {
		return nil, errs.Browser("open place", fmt.Sprintf("#%d", i), errors.New("result list shrank after navigation"))
	}
	if err := places[i].Click(); err != nil {
		return nil, errs.Browser("click place", fmt.Sprintf("#%d", i), err)
	}
	if err := c.sleep(ctx, c.opts.PanelSettle); err != nil {
		return nil, err
	}

	dealer := &models.Dealership{
		Address: textOf(ctx, sess, AddressXPath),
		Phone:   textOf(ctx, sess, PhoneXPath),
	}
	if name := textOf(ctx, sess, NameXPath); name != nil {
		dealer.Name = *name
	}
	if website := attrOf(ctx, sess, WebsiteXPath, "href"); website != nil {
		dealer.WebsiteURL = *website
	}

	if err := sess.Back(ctx); err != nil {
		return nil, errs.Browser("back", "", err)
	}
	if err := c.sleep(ctx, c.opts.BackSettle); err != nil {
		return nil, err
	}
	return dealer, nil
}

func (c *Crawler) accept(r *run, dealer *models.Dealership) {
	log := r.log.WithField("name", dealer.Name)
	brand, ok := MatchBrand(dealer.Name, c.opts.Brands)
	if !ok {
		r.Rejected++
		log.Debug("skipping place without a brand match")
		return
	}
	if dealer.WebsiteURL == "" {
		r.NoWebsite++
		log.Debug("skipping dealership without a website")
		return
	}
	dealer.Brand = &brand
	dealer.ZipCode = r.ZipCode
	r.Accepted = append(r.Accepted, dealer)
	log.WithField("website", dealer.WebsiteURL).Info("dealership accepted")
}

// textOf returns the trimmed text of the first match, or nil.
func textOf(ctx context.Context, sess Session, xpath string) *string {
	node, err := sess.Find(ctx, xpath)
	if err != nil {
		return nil
	}
	text, err := node.Text()
	if err != nil {
		return nil
	}
	return models.StringPtr(strings.TrimSpace(text))
}

func attrOf(ctx context.Context, sess Session, xpath, name string) *string {
	node, err := sess.Find(ctx, xpath)
	if err != nil {
		return nil
	}
	value, err := node.Attribute(name)
	if err != nil || value == nil {
		return nil
	}
	return models.StringPtr(strings.TrimSpace(*value))
}
