package stints

import (
	"fmt"
	"strings"
	"time"

	"github.com/fortuna/stintstats/internal/pbp"
)

// Interval is a stretch of one period, from Start down to End (Start >= End).
type Interval struct {
	Period int       `json:"period"`
	Start  pbp.Clock `json:"start"`
	End    pbp.Clock `json:"end"`
}

// Duration is the elapsed game time of the interval.
func (i Interval) Duration() time.Duration {
	return time.Duration(i.Start - i.End)
}

// Contains reports whether an event at (period, clock) falls inside the interval.
func (i Interval) Contains(period int, clock pbp.Clock, policy BoundaryPolicy) bool {
	if period != i.Period {
		return false
	}
	if policy == BoundaryUpperInclusive {
		return clock > i.End && clock <= i.Start
	}
	return clock >= i.End && clock < i.Start
}

func (i Interval) String() string {
	return fmt.Sprintf("P%d %s-%s", i.Period, i.Start, i.End)
}

// BoundaryPolicy decides which interval owns an event sitting exactly on a boundary clock.
type BoundaryPolicy int

const (
	// BoundaryLowerInclusive: end <= clock < start.
	BoundaryLowerInclusive BoundaryPolicy = iota
	// BoundaryUpperInclusive: end < clock <= start.
	BoundaryUpperInclusive
)

// ParseBoundaryPolicy accepts "lower" (default) or "upper".
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lower":
		return BoundaryLowerInclusive, nil
	case "upper":
		return BoundaryUpperInclusive, nil
	default:
		return BoundaryLowerInclusive, fmt.Errorf("unknown boundary policy %q (want lower or upper)", s)
	}
}

func (p BoundaryPolicy) String() string {
	if p == BoundaryUpperInclusive {
		return "upper"
	}
	return "lower"
}

// FormatIntervals renders intervals as "P1 10:00-07:31; P2 ...".
func FormatIntervals(intervals []Interval) string {
	parts := make([]string, len(intervals))
	for i, iv := range intervals {
		parts[i] = iv.String()
	}
	return strings.Join(parts, "; ")
}
