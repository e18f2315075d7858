package boxscore

import (
	"fmt"

	"github.com/fortuna/stintstats/internal/pbp"
)

// Aggregate counts the catalogue over the events of team, grouped by the
// stint id in the parallel stints slice. One line per distinct stint id seen
// among the team's events, in first-seen order; the sentinel id is kept.
func Aggregate(events []pbp.Event, stints []int, team int) ([]*Line, error) {
	if len(events) != len(stints) {
		return nil, fmt.Errorf("aggregate: %d events but %d stint tags", len(events), len(stints))
	}

	var order []int
	tallies := make(map[int]*[statCount]Tally)

	for i, e := range events {
		if e.Team != team {
			continue
		}
		stint := stints[i]
		t, ok := tallies[stint]
		if !ok {
			t = &[statCount]Tally{}
			tallies[stint] = t
			order = append(order, stint)
		}

		for s := range Catalogue {
			if !Catalogue[s].Match(e) {
				continue
			}
			t[s].Attempts++
			if Catalogue[s].Rate && e.Success {
				t[s].Makes++
			}
		}
	}

	lines := make([]*Line, 0, len(order))
	for _, stint := range order {
		lines = append(lines, newLine(stint, *tallies[stint]))
	}
	return lines, nil
}

// BuildRows computes a team's stint rows: its own lines joined with the
// opponent's lines grouped by the same stint column, plus the cross metrics
// for both perspectives.
func BuildRows(events []pbp.Event, stints []int, team int) ([]*Row, error) {
	own, err := Aggregate(events, stints, team)
	if err != nil {
		return nil, err
	}
	opp, err := Aggregate(events, stints, pbp.Opponent(team))
	if err != nil {
		return nil, err
	}

	oppByStint := make(map[int]*Line, len(opp))
	for _, l := range opp {
		oppByStint[l.Stint] = l
	}

	rows := make([]*Row, 0, len(own))
	for _, l := range own {
		rows = append(rows, NewRow(team, l, oppByStint[l.Stint]))
	}
	return rows, nil
}
