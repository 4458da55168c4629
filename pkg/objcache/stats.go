package objcache

// Stats holds cache performance counters.
type Stats struct {
	Hits         int64
	Misses       int64
	Fetches      int64 // Raw content reads performed on misses.
	FetchedBytes int64
	Entries      int
}

// HitRate returns the cache hit rate as a fraction (0.0 to 1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Fetches:      c.fetches.Load(),
		FetchedBytes: c.bytes.Load(),
		Entries:      c.Len(),
	}
}
