package objcache

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Sumatoshi-tech/linetrend/pkg/gitlib"
	"github.com/Sumatoshi-tech/linetrend/pkg/textutil"
)

// FetchFunc reads the raw bytes of the object with the given identity.
type FetchFunc func(ctx context.Context, id gitlib.Hash) ([]byte, error)

// Cache maps content identities to metrics for the lifetime of one run.
// Entries are never evicted or overwritten. Concurrent callers asking for the
// same unseen identity share a single fetch.
type Cache struct {
	mu      sync.RWMutex
	entries map[gitlib.Hash]Metric
	flights singleflight.Group

	hits    atomic.Int64
	misses  atomic.Int64
	fetches atomic.Int64
	bytes   atomic.Int64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[gitlib.Hash]Metric),
	}
}

// LookupOrCompute returns the cached metric for id, computing it on first sight.
//
// Non-blob kinds are stored as None without calling fetch. Blob content that
// is binary or not valid UTF-8 is stored as None as well. Errors from fetch are
// returned unchanged and nothing is stored for id.
func (c *Cache) LookupOrCompute(ctx context.Context, id gitlib.Hash, kind gitlib.EntryKind, fetch FetchFunc) (Metric, error) {
	if metric, ok := c.lookup(id); ok {
		c.hits.Add(1)

		return metric, nil
	}

	if !kind.IsBlob() {
		c.misses.Add(1)

		return c.store(id, None()), nil
	}

	computed := false

	value, err, _ := c.flights.Do(id.String(), func() (any, error) {
		if metric, ok := c.lookup(id); ok {
			return metric, nil
		}

		computed = true

		c.misses.Add(1)

		data, fetchErr := fetch(ctx, id)
		if fetchErr != nil {
			return nil, fetchErr
		}

		c.fetches.Add(1)
		c.bytes.Add(int64(len(data)))

		metric := None()
		if lines, ok := textutil.DecodeLines(data); ok {
			metric = Some(lines)
		}

		return c.store(id, metric), nil
	})
	if err != nil {
		return Metric{}, err
	}

	if !computed {
		c.hits.Add(1)
	}

	metric, _ := value.(Metric)

	return metric, nil
}

// Len returns the number of identities cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *Cache) lookup(id gitlib.Hash) (Metric, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	metric, ok := c.entries[id]

	return metric, ok
}

// store inserts metric unless id is already present and returns the stored value.
func (c *Cache) store(id gitlib.Hash, metric Metric) Metric {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[id]; ok {
		return existing
	}

	c.entries[id] = metric

	return metric
}
