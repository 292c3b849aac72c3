// Package github caches per-project GitHub integration status so views
// don't hammer the backend with redundant lookups. Each project id moves
// through Empty -> Loading -> Cached -> (expired) -> Loading; a fetch
// already in flight is shared by every caller instead of duplicated.
package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/planfold/plotd/internal/client"
	"github.com/planfold/plotd/internal/model"
)

// DefaultTTL is how long a cached integration status stays fresh.
const DefaultTTL = 5 * time.Minute

// Retry policy for transient fetch failures.
const (
	maxAttempts = 3
	baseDelay   = 500 * time.Millisecond
)

// Fetcher loads the integration record for a project. A nil integration
// with a nil error means "no integration configured" and is cached as a
// valid result.
type Fetcher interface {
	FetchIntegration(ctx context.Context, projectID string) (*model.Integration, error)
}

// State is the lifecycle state of a cache entry.
type State string

const (
	StateEmpty   State = "empty"
	StateLoading State = "loading"
	StateCached  State = "cached"
	StateExpired State = "expired"
)

// entry is one project's cache slot. Guarded by Cache.mu; the pending
// channel is closed when a load completes so waiters can attach to the
// in-flight result.
type entry struct {
	loading     bool
	pending     chan struct{}
	integration *model.Integration
	fetchedAt   time.Time
	err         error // load failure, visible to attached waiters only
}

// Cache is the shared integration-status cache. All access goes through
// its methods; the single mutex is the access discipline.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	fetcher Fetcher
	ttl     time.Duration

	// sleep is swappable so tests can count backoff delays without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCache creates a cache with the default 5-minute TTL.
func NewCache(f Fetcher) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		fetcher: f,
		ttl:     DefaultTTL,
		sleep:   sleepCtx,
	}
}

// SetTTL overrides the freshness window (used by config).
func (c *Cache) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		c.ttl = ttl
	}
}

// GetStatus returns the project's integration status. Fresh cached values
// return immediately; if a fetch is in flight the caller attaches to it;
// otherwise a fetch is triggered. Within the TTL window, repeated calls
// issue exactly one network request.
func (c *Cache) GetStatus(ctx context.Context, projectID string) (*model.Integration, error) {
	c.mu.Lock()
	e := c.entries[projectID]

	if e != nil && !e.loading && time.Since(e.fetchedAt) < c.ttl {
		integ := e.integration
		c.mu.Unlock()
		return integ, nil
	}

	if e != nil && e.loading {
		pending := e.pending
		c.mu.Unlock()
		select {
		case <-pending:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		c.mu.Lock()
		integ, err := e.integration, e.err
		c.mu.Unlock()
		return integ, err
	}

	return c.startFetch(ctx, projectID)
}

// ForceRefresh bypasses the cache and re-fetches, regardless of freshness.
func (c *Cache) ForceRefresh(ctx context.Context, projectID string) (*model.Integration, error) {
	c.mu.Lock()
	return c.startFetch(ctx, projectID)
}

// startFetch transitions the entry to Loading and runs the fetch.
// Called with c.mu held; releases it before the network call.
func (c *Cache) startFetch(ctx context.Context, projectID string) (*model.Integration, error) {
	e := &entry{loading: true, pending: make(chan struct{})}
	c.entries[projectID] = e
	c.mu.Unlock()

	integ, err := c.fetchWithRetry(ctx, projectID)

	c.mu.Lock()
	e.loading = false
	if err != nil {
		// Failed loads are not cached: the next read re-fetches. Waiters
		// attached to this load still observe the error.
		e.err = err
		if c.entries[projectID] == e {
			delete(c.entries, projectID)
		}
	} else {
		e.integration = integ
		e.fetchedAt = time.Now()
	}
	close(e.pending)
	c.mu.Unlock()

	return integ, err
}

// fetchWithRetry retries transient failures up to maxAttempts with a
// doubling backoff. A 404/403 from the backend is a valid "no integration"
// result, not an error.
func (c *Cache) fetchWithRetry(ctx context.Context, projectID string) (*model.Integration, error) {
	delay := baseDelay
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		integ, err := c.fetcher.FetchIntegration(ctx, projectID)
		if err == nil {
			return integ, nil
		}

		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusNotFound, http.StatusForbidden:
				// Valid empty state: cache "no integration", don't retry.
				return nil, nil
			}
			if apiErr.StatusCode < 500 {
				// Other client errors are not transient.
				return nil, err
			}
		}

		lastErr = err
		if attempt == maxAttempts {
			break
		}
		slog.Warn("integration fetch failed, retrying",
			"project_id", projectID,
			"attempt", attempt,
			"delay", delay,
			"error", err)
		if serr := c.sleep(ctx, delay); serr != nil {
			return nil, serr
		}
		delay *= 2
	}

	return nil, lastErr
}

// StateFor reports the lifecycle state of a project's entry.
func (c *Cache) StateFor(projectID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[projectID]
	switch {
	case e == nil:
		return StateEmpty
	case e.loading:
		return StateLoading
	case time.Since(e.fetchedAt) >= c.ttl:
		return StateExpired
	default:
		return StateCached
	}
}

// Clear resets a single project's entry to Empty.
func (c *Cache) Clear(projectID string) {
	c.mu.Lock()
	delete(c.entries, projectID)
	c.mu.Unlock()
}

// ClearAll resets every entry.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
