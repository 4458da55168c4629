package ancestry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownOrdering is returned by ParseOrdering for unrecognized names.
var ErrUnknownOrdering = errors.New("unknown ordering")

// Ordering selects the order in which ancestors are produced.
type Ordering int

const (
	// Topological produces every commit after all of its visited children.
	Topological Ordering = iota
	// TimeDescending produces commits by decreasing committer time.
	TimeDescending
)

// String returns the canonical flag name of the ordering.
func (o Ordering) String() string {
	switch o {
	case Topological:
		return "topo"
	case TimeDescending:
		return "time"
	default:
		return fmt.Sprintf("Ordering(%d)", int(o))
	}
}

// ParseOrdering maps a flag or config value onto an Ordering.
func ParseOrdering(name string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "topo", "topological":
		return Topological, nil
	case "time", "date", "time-descending":
		return TimeDescending, nil
	default:
		return 0, fmt.Errorf("%w: %q (want topo or time)", ErrUnknownOrdering, name)
	}
}
