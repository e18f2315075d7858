package stints

import "github.com/fortuna/stintstats/internal/pbp"

// NoStint marks an event that falls in none of a team's intervals.
const NoStint = -1

// Tag returns, for every event regardless of its own team, the id of the
// set's segment on court at that moment. Segments are tested in id order and
// a later match overrides an earlier one.
func Tag(events []pbp.Event, set *Set, policy BoundaryPolicy) []int {
	ids := make([]int, len(events))
	for i := range ids {
		ids[i] = NoStint
	}
	if set == nil {
		return ids
	}

	for _, seg := range set.Segments {
		for i, e := range events {
			for _, iv := range seg.Intervals {
				if iv.Contains(e.Period, e.Clock, policy) {
					ids[i] = seg.ID
					break
				}
			}
		}
	}
	return ids
}
