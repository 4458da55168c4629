package linecount

import (
	"slices"
	"time"

	"github.com/Sumatoshi-tech/linetrend/pkg/gitlib"
	"github.com/Sumatoshi-tech/linetrend/pkg/objcache"
)

// Entry is the line count of one visited commit.
type Entry struct {
	Ordinal int
	Commit  gitlib.Hash
	When    time.Time
	Lines   int
}

// Bounds is the domain of a series, as needed by a chart.
type Bounds struct {
	XMax int
	YMax int
}

// Series is an ordered sequence of entries with the cache statistics of the
// run that produced it.
type Series struct {
	Entries []Entry
	Cache   objcache.Stats
}

// Len returns the number of entries.
func (s *Series) Len() int {
	return len(s.Entries)
}

// Bounds returns XMax = count-1 and YMax = the largest line count.
// Both are zero for an empty series.
func (s *Series) Bounds() Bounds {
	if len(s.Entries) == 0 {
		return Bounds{}
	}

	b := Bounds{XMax: len(s.Entries) - 1}
	for _, e := range s.Entries {
		b.YMax = max(b.YMax, e.Lines)
	}

	return b
}

// Chronological returns a copy of the series reversed and re-indexed, so the
// last produced entry sits at ordinal 0.
func (s *Series) Chronological() *Series {
	entries := slices.Clone(s.Entries)
	slices.Reverse(entries)

	for i := range entries {
		entries[i].Ordinal = i
	}

	return &Series{Entries: entries, Cache: s.Cache}
}

// Lines returns the line counts in series order.
func (s *Series) Lines() []int {
	out := make([]int, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Lines
	}

	return out
}
