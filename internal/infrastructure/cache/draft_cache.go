// Package cache holds in-process state: report builder drafts and the
// settings reload listener.
package cache

import (
	"context"
	"sync"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/domain/reports"
	"stockroom/pkg/logger"
)

// DefaultDraftTTL is how long an untouched draft is kept.
const DefaultDraftTTL = 2 * time.Hour

type draftEntry struct {
	mu      sync.Mutex
	owner   string
	builder *reports.Builder
	touched time.Time
}

// DraftCache keeps report builder drafts per user. Builders are not safe
// for concurrent use, so every access goes through With, which holds the
// draft's own lock.
type DraftCache struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	drafts map[string]*draftEntry

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewDraftCache creates a cache. ttl <= 0 uses DefaultDraftTTL.
func NewDraftCache(ttl time.Duration) *DraftCache {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &DraftCache{
		ttl:    ttl,
		now:    time.Now,
		drafts: make(map[string]*draftEntry),
	}
}

// Put stores b for owner and returns its id.
func (c *DraftCache) Put(owner string, b *reports.Builder) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drafts[b.ID()] = &draftEntry{owner: owner, builder: b, touched: c.now()}
	return b.ID()
}

func (c *DraftCache) entry(owner, draftID string) (*draftEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.drafts[draftID]
	// Drafts of other users are reported as missing.
	if !ok || e.owner != owner {
		return nil, apperror.NewNotFound("report draft", draftID)
	}
	return e, nil
}

// With runs fn on the draft under its lock. Unknown, expired or foreign
// drafts fail with NOT_FOUND.
func (c *DraftCache) With(owner, draftID string, fn func(b *reports.Builder) error) error {
	e, err := c.entry(owner, draftID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	err = fn(e.builder)

	c.mu.Lock()
	e.touched = c.now()
	c.mu.Unlock()
	return err
}

// Delete discards a draft.
func (c *DraftCache) Delete(owner, draftID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.drafts[draftID]
	if !ok || e.owner != owner {
		return apperror.NewNotFound("report draft", draftID)
	}
	delete(c.drafts, draftID)
	return nil
}

// Len returns the number of cached drafts.
func (c *DraftCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.drafts)
}

// Evict drops drafts untouched for longer than the TTL and returns how many
// were removed.
func (c *DraftCache) Evict() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-c.ttl)
	n := 0
	for draftID, e := range c.drafts {
		if e.touched.Before(cutoff) {
			delete(c.drafts, draftID)
			n++
		}
	}
	return n
}

// Start runs the eviction janitor until Stop or ctx cancellation.
func (c *DraftCache) Start(ctx context.Context) {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)

	interval := max(c.ttl/4, time.Second)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.Evict(); n > 0 {
					logger.Debug(ctx, "expired report drafts evicted", "count", n)
				}
			}
		}
	}()
}

// Stop ends the janitor and waits for it.
func (c *DraftCache) Stop() {
	c.lifecycleMu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
		c.wg.Wait()
	}
}
