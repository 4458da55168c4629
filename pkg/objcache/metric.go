// Package objcache memoizes per-object line metrics by content identity.
package objcache

import "strconv"

// Metric is the optional line count of one object.
// None means the object exists but carries no lines: a sub-tree, a submodule
// pointer, or content that does not decode as text.
type Metric struct {
	lines int
	ok    bool
}

// Some returns a metric holding n lines.
func Some(n int) Metric {
	return Metric{lines: n, ok: true}
}

// None returns the empty metric.
func None() Metric {
	return Metric{}
}

// Get returns the line count and whether it is present.
func (m Metric) Get() (int, bool) {
	return m.lines, m.ok
}

// IsSome reports whether the metric holds a line count.
func (m Metric) IsSome() bool {
	return m.ok
}

// Lines returns the line count, or 0 for None.
func (m Metric) Lines() int {
	return m.lines
}

func (m Metric) String() string {
	if !m.ok {
		return "None"
	}

	return "Some(" + strconv.Itoa(m.lines) + ")"
}
