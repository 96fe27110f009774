// Package scheduler refreshes configured regions on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"dealerscout/internal/logger"
	"dealerscout/internal/models"
)

type Refresher interface {
	RefreshRegion(ctx context.Context, zip string, force bool) (models.RegionSummary, error)
}

// RegionRefresher runs RefreshRegion for every zip on each tick. Zips are
// refreshed one at a time so only one browser session is open.
type RegionRefresher struct {
	cron      *cron.Cron
	refresher Refresher
	zips      []string
	timeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
}

// New schedules zips on spec, a standard five-field cron expression.
// timeout bounds one full pass; zero means no bound.
func New(spec string, zips []string, refresher Refresher, timeout time.Duration) (*RegionRefresher, error) {
	ctx, cancel := context.WithCancel(context.Background())
	rr := &RegionRefresher{
		cron:      cron.New(),
		refresher: refresher,
		zips:      zips,
		timeout:   timeout,
		ctx:       ctx,
		cancel:    cancel,
	}
	if _, err := rr.cron.AddFunc(spec, rr.RunOnce); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return rr, nil
}

// Start begins the schedule.
func (rr *RegionRefresher) Start() {
	rr.cron.Start()
	logger.WithFields(logrus.Fields{"zips": rr.zips, "next": rr.Next()}).Info("region refresh scheduled")
}

// Next returns the next scheduled run, or the zero time before Start.
func (rr *RegionRefresher) Next() time.Time {
	entries := rr.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop cancels an in-flight pass and waits for it to return.
func (rr *RegionRefresher) Stop() {
	rr.cancel()
	<-rr.cron.Stop().Done()
}

// RunOnce refreshes every configured zip. Overlapping passes are skipped.
func (rr *RegionRefresher) RunOnce() {
	rr.mu.Lock()
	if rr.running {
		rr.mu.Unlock()
		logger.Warnf("previous region refresh still running, skipping tick")
		return
	}
	rr.running = true
	rr.mu.Unlock()
	defer func() {
		rr.mu.Lock()
		rr.running = false
		rr.mu.Unlock()
	}()

	ctx := rr.ctx
	if rr.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rr.timeout)
		defer cancel()
	}

	for _, zip := range rr.zips {
		if ctx.Err() != nil {
			return
		}
		summary, err := rr.refresher.RefreshRegion(ctx, zip, false)
		if err != nil {
			logger.WithError(err).WithField("zip", zip).Error("scheduled refresh failed")
			continue
		}
		logger.WithFields(logrus.Fields{
			"zip":    zip,
			"cars":   summary.CarsSaved,
			"cached": summary.Cached,
		}).Info("scheduled refresh finished")
	}
}
