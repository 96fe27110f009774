// Package cache remembers when each region was last refreshed so repeat
// requests inside the expiry window skip re-scraping.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dealerscout/internal/logger"
	"dealerscout/internal/models"
)

const (
	DefaultFileName = "region_cache.json"
	DefaultExpiry   = 24 * time.Hour
)

// ErrNotCached is returned by Age for regions never refreshed.
var ErrNotCached = errors.New("region not cached")

// RegionEntry is one refreshed region.
type RegionEntry struct {
	Timestamp time.Time            `json:"timestamp"`
	Summary   models.RegionSummary `json:"summary"`
}

type regionFile struct {
	Regions map[string]RegionEntry `json:"regions"`
}

// RegionCache is a JSON file keyed by zip code. It is safe for concurrent use.
type RegionCache struct {
	path   string
	expiry time.Duration
	now    func() time.Time

	mu      sync.Mutex
	loaded  bool
	regions map[string]RegionEntry
}

func NewRegionCache(path string, expiry time.Duration) *RegionCache {
	if path == "" {
		path = DefaultFileName
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &RegionCache{path: path, expiry: expiry, now: time.Now}
}

// Fresh returns the entry for zip if it was recorded within the expiry window.
func (c *RegionCache) Fresh(zip string) (RegionEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()

	entry, ok := c.regions[zip]
	if !ok {
		return RegionEntry{}, false
	}
	age := c.now().Sub(entry.Timestamp)
	if age > c.expiry {
		logger.Debugf("region %s cache expired (%v old)", zip, age.Round(time.Minute))
		return RegionEntry{}, false
	}
	return entry, true
}

// Age returns how long ago zip was refreshed.
func (c *RegionCache) Age(zip string) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()

	entry, ok := c.regions[zip]
	if !ok {
		return 0, ErrNotCached
	}
	return c.now().Sub(entry.Timestamp), nil
}

// Record stores summary as the latest refresh of zip and writes the file.
func (c *RegionCache) Record(zip string, summary models.RegionSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()

	c.regions[zip] = RegionEntry{Timestamp: c.now(), Summary: summary}
	return c.saveLocked()
}

// Invalidate forgets zip.
func (c *RegionCache) Invalidate(zip string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()

	if _, ok := c.regions[zip]; !ok {
		return nil
	}
	delete(c.regions, zip)
	return c.saveLocked()
}

// loadLocked reads the file once. A missing or corrupt file starts empty.
func (c *RegionCache) loadLocked() {
	if c.loaded {
		return
	}
	c.loaded = true
	c.regions = map[string]RegionEntry{}

	file, err := os.Open(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("failed to open region cache %s: %v", c.path, err)
		}
		return
	}
	defer file.Close()

	var data regionFile
	if err := json.NewDecoder(file).Decode(&data); err != nil {
		logger.Warnf("ignoring corrupt region cache %s: %v", c.path, err)
		return
	}
	if data.Regions != nil {
		c.regions = data.Regions
	}
}

func (c *RegionCache) saveLocked() error {
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	tmp := c.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(regionFile{Regions: c.regions}); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}
