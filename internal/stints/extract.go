package stints

import (
	"sort"

	"github.com/fortuna/stintstats/internal/pbp"
)

// Extract replays a team's substitutions period by period, starting from the
// starting five, and returns every lineup with the intervals it played.
// Inconsistent substitution records are repaired and reported to sink.
func Extract(events []pbp.Event, starters []string, team, periods int, sink WarningSink) *Set {
	if sink == nil {
		sink = Discard
	}

	set := newSet(team)
	current := newCourt(starters)

	for period := 1; period <= periods; period++ {
		subs := periodSubstitutions(events, team, period)

		prev := pbp.PeriodLength(period)
		for _, clock := range distinctClocks(subs) {
			set.add(current.lineup(), Interval{Period: period, Start: prev, End: clock})

			in, out := swapAt(subs, clock)
			var issues []Warning
			current, issues = applySwap(current, in, out)
			for _, w := range issues {
				w.Team = team
				w.Period = period
				w.Clock = clock
				sink.Warn(w)
			}

			prev = clock
		}

		// the period closes at 00:00; no substitution applies there a second time
		set.add(current.lineup(), Interval{Period: period, Start: prev, End: 0})
	}

	return set
}

// periodSubstitutions returns the team's substitutions in the period in clock
// order, keeping only the last record per (clock, player).
func periodSubstitutions(events []pbp.Event, team, period int) []pbp.Event {
	var subs []pbp.Event
	for _, e := range events {
		if e.IsSubstitution() && e.Team == team && e.Period == period {
			subs = append(subs, e)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].Clock > subs[j].Clock
	})

	type key struct {
		clock  pbp.Clock
		player string
	}
	last := make(map[key]int, len(subs))
	for i, e := range subs {
		last[key{e.Clock, e.Player}] = i
	}

	deduped := subs[:0:0]
	for i, e := range subs {
		if last[key{e.Clock, e.Player}] == i {
			deduped = append(deduped, e)
		}
	}
	return deduped
}

func distinctClocks(subs []pbp.Event) []pbp.Clock {
	var clocks []pbp.Clock
	seen := make(map[pbp.Clock]bool)
	for _, e := range subs {
		if !seen[e.Clock] {
			seen[e.Clock] = true
			clocks = append(clocks, e.Clock)
		}
	}
	return clocks
}

func swapAt(subs []pbp.Event, clock pbp.Clock) (in, out []string) {
	for _, e := range subs {
		if e.Clock != clock {
			continue
		}
		switch e.SubType {
		case pbp.SubTypeIn:
			in = append(in, e.Player)
		case pbp.SubTypeOut:
			out = append(out, e.Player)
		}
	}
	return NewLineup(in), NewLineup(out)
}

// applySwap computes (current - out) ∪ in after clipping in to players off
// court and out to players on court. The returned warnings carry only kind,
// players and counts.
func applySwap(current court, in, out []string) (court, []Warning) {
	var issues []Warning

	var alreadyOn, notOn, clippedIn, clippedOut []string
	for _, p := range in {
		if current[p] {
			alreadyOn = append(alreadyOn, p)
		} else {
			clippedIn = append(clippedIn, p)
		}
	}
	for _, p := range out {
		if current[p] {
			clippedOut = append(clippedOut, p)
		} else {
			notOn = append(notOn, p)
		}
	}

	if len(alreadyOn) > 0 {
		issues = append(issues, Warning{Kind: IncomingOnCourt, Players: alreadyOn, In: len(in), Out: len(out)})
	}
	if len(notOn) > 0 {
		issues = append(issues, Warning{Kind: OutgoingOffCourt, Players: notOn, In: len(in), Out: len(out)})
	}

	if len(clippedIn) != len(clippedOut) {
		issues = append(issues, Warning{Kind: UnbalancedSwap, In: len(clippedIn), Out: len(clippedOut)})
	} else if len(issues) > 0 {
		issues = append(issues, Warning{Kind: SwapRepaired, In: len(clippedIn), Out: len(clippedOut)})
	}

	next := make(court, len(current)+len(clippedIn))
	for p := range current {
		next[p] = true
	}
	for _, p := range clippedOut {
		delete(next, p)
	}
	for _, p := range clippedIn {
		next[p] = true
	}

	return next, issues
}
