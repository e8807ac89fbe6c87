package application

import (
	"sync"
	"time"
)

// SummaryCache memoizes month summaries between roster mutations. Every archive
// read is a full repository scan, so repeated views of the same month are served
// from here until a day of that month changes or the entry expires.
//
// Each month carries a generation that InvalidateMonth bumps. A summary computed
// from a scan that raced with a write is dropped by Store instead of cached.
type SummaryCache struct {
	mu          sync.RWMutex
	now         func() time.Time
	ttl         time.Duration
	maxEntries  int
	entries     map[string]summaryCacheEntry
	generations map[string]uint64
}

type summaryCacheEntry struct {
	summary   MonthSummary
	expiresAt time.Time
}

// NewSummaryCache creates a cache holding at most maxEntries months for ttl each.
func NewSummaryCache(ttl time.Duration, maxEntries int, now func() time.Time) *SummaryCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 24
	}
	if now == nil {
		now = time.Now
	}
	return &SummaryCache{
		now:         now,
		ttl:         ttl,
		maxEntries:  maxEntries,
		entries:     make(map[string]summaryCacheEntry),
		generations: make(map[string]uint64),
	}
}

// Get returns a copy of the cached summary for month. On a miss it returns the
// month's current generation, to be handed back to Store.
func (c *SummaryCache) Get(month string) (MonthSummary, uint64, bool) {
	if c == nil {
		return MonthSummary{}, 0, false
	}
	c.mu.RLock()
	entry, ok := c.entries[month]
	generation := c.generations[month]
	c.mu.RUnlock()
	if !ok {
		return MonthSummary{}, generation, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, month)
		generation = c.generations[month]
		c.mu.Unlock()
		return MonthSummary{}, generation, false
	}
	return cloneSummary(entry.summary), generation, true
}

// Store caches summary under its month unless the month was invalidated after
// generation was read.
func (c *SummaryCache) Store(summary MonthSummary, generation uint64) {
	if c == nil {
		return
	}
	cloned := cloneSummary(summary)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[summary.Month] != generation {
		return
	}
	c.cleanupLocked()
	if _, exists := c.entries[summary.Month]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[summary.Month] = summaryCacheEntry{summary: cloned, expiresAt: expiry}
}

// InvalidateMonth drops the summary of a single month.
func (c *SummaryCache) InvalidateMonth(month string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, month)
	c.generations[month]++
	c.mu.Unlock()
}

func (c *SummaryCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// evictOneLocked drops the entry closest to expiry.
func (c *SummaryCache) evictOneLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

func cloneSummary(summary MonthSummary) MonthSummary {
	clone := summary
	if summary.Days != nil {
		clone.Days = make([]DaySummary, len(summary.Days))
		copy(clone.Days, summary.Days)
	}
	return clone
}
